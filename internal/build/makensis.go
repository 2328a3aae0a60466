// Package build locates and runs the NSIS compiler on generated
// scripts. Script generation itself never shells out; compiling is an
// explicit CLI step.
package build

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nsipack/nsipack/internal/cli"
)

// Builder compiles .nsi scripts with makensis.
type Builder struct {
	Verbose bool
	Keep    bool // retain the script after a successful build
}

// NewBuilder creates a builder.
func NewBuilder(verbose, keep bool) *Builder {
	return &Builder{Verbose: verbose, Keep: keep}
}

// GetMakensisPath locates the makensis binary: the NSIS_HOME override
// first, then the usual install locations, then PATH.
func GetMakensisPath() (string, error) {
	binary := "makensis"
	if runtime.GOOS == "windows" {
		binary = "makensis.exe"
	}

	if home := os.Getenv("NSIS_HOME"); home != "" {
		candidate := filepath.Join(home, binary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		candidate = filepath.Join(home, "Bin", binary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	for _, dir := range commonInstallDirs() {
		candidate := filepath.Join(dir, binary)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(binary); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("makensis not found: set NSIS_HOME or add it to PATH")
}

func commonInstallDirs() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`C:\Program Files (x86)\NSIS`,
			`C:\Program Files\NSIS`,
		}
	}
	return []string{
		"/usr/bin",
		"/usr/local/bin",
		"/opt/homebrew/bin",
	}
}

// IsAvailable reports whether makensis can be located.
func IsAvailable() bool {
	_, err := GetMakensisPath()
	return err == nil
}

// GetVersion returns the makensis version string, or "" when the
// compiler is missing.
func GetVersion() string {
	path, err := GetMakensisPath()
	if err != nil {
		return ""
	}
	out, err := exec.Command(path, "-VERSION").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Build compiles one script with stdout/stderr passed through, so
// makensis warnings land in the user's terminal unmodified.
func (b *Builder) Build(scriptPath string) error {
	path, err := GetMakensisPath()
	if err != nil {
		return err
	}
	if b.Verbose {
		fmt.Printf("%s %s %s\n", cli.Info("run:"), path, scriptPath)
	}

	args := []string{}
	if !b.Verbose {
		args = append(args, "-V2")
	}
	args = append(args, scriptPath)

	cmd := exec.Command(path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Dir = filepath.Dir(scriptPath)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("makensis failed for %s: %w", filepath.Base(scriptPath), err)
	}

	if !b.Keep {
		if err := os.Remove(scriptPath); err != nil {
			return fmt.Errorf("removing script after build: %w", err)
		}
	}
	return nil
}
