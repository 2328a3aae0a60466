package nsis

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/nsipack/nsipack/internal/config"
	"golang.org/x/text/encoding/unicode"
)

// Output dialect registry. Only the NSIS backend is implemented; the
// other entries reserve the dialect names and file extensions.
var (
	OutputExtensions = map[string]string{
		"nsis": ".nsi",
		"wix":  ".wxs",
		"inno": ".iss",
	}
	BuildCommands = map[string]string{
		"nsis": "makensis",
	}
	implementedDialects = map[string]bool{
		"nsis": true,
	}
)

// CheckDialect validates a --dialect value.
func CheckDialect(dialect string) error {
	if implementedDialects[dialect] {
		return nil
	}
	available := make([]string, 0, len(implementedDialects))
	for d := range implementedDialects {
		available = append(available, d)
	}
	sort.Strings(available)
	return fmt.Errorf("unsupported output dialect %q (available: %s)", dialect, strings.Join(available, ", "))
}

// Converter turns one configuration into an NSIS script.
type Converter struct {
	ctx *BuildContext
}

// NewConverter creates a converter writing into outputDir.
func NewConverter(cfg *config.Config, outputDir string) *Converter {
	ctx := NewBuildContext(cfg)
	ctx.OutputDir = outputDir
	return &Converter{ctx: ctx}
}

// OutputPath returns the script path the converter writes to.
func (c *Converter) OutputPath() string {
	name := c.ctx.Config.App.Name
	if name == "" {
		name = "installer"
	}
	return filepath.Join(c.ctx.OutputDir, name+OutputExtensions["nsis"])
}

// Convert assembles the full script. Parts are generated in a fixed
// order, then the finish-page leftovers are filtered, language
// directives are moved behind the page macros, and remaining config
// references are resolved.
func (c *Converter) Convert() (string, error) {
	ctx := c.ctx
	shortcuts := CollectShortcuts(ctx)
	assocs := collectAssociations(ctx)

	parts := [][]string{
		generateHeader(ctx),
		generateCustomIncludes(ctx),
		generateGeneralSettings(ctx),
		generateModernUI(ctx, shortcuts),
		generateSigning(ctx),
		generateUpdateSection(ctx),
	}
	if ctx.HasLogging() {
		parts = append(parts, generateLogMacros(ctx))
	}
	if needsPathHelpers(ctx) {
		parts = append(parts, generatePathHelpers())
	}
	parts = append(parts,
		generateInstallSection(ctx, shortcuts, assocs),
		generatePackageSections(ctx, shortcuts, assocs),
		generatePackageDescriptions(ctx),
		generateUninstallSection(ctx, shortcuts),
		generateExistingInstallHelpers(ctx),
		generateOnInstSuccess(ctx),
		generateOnInit(ctx, shortcuts),
		generateUnOnInit(ctx),
	)
	if needsDownloadHelpers(ctx) {
		parts = append(parts, generateDownloadHelpers())
	}

	var lines []string
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, part...)
	}

	lines = c.cleanupLines(lines)
	lines = reorderLanguageDirectives(lines)

	script := c.finalSubstitution(strings.Join(lines, "\n") + "\n")
	return script, ctx.Err()
}

// Save converts and writes the script with a UTF-8 byte order mark, in
// a single write so a failed run never leaves a truncated script.
func (c *Converter) Save() (string, error) {
	script, err := c.Convert()
	if err != nil {
		return "", err
	}
	outPath := c.OutputPath()
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
	}
	encoded, err := unicode.UTF8BOM.NewEncoder().Bytes([]byte(script))
	if err != nil {
		return "", fmt.Errorf("encoding script: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return "", fmt.Errorf("writing script: %w", err)
	}
	return outPath, nil
}

// cleanupLines drops the finish-page run defines when no launch target
// is configured. The Modern UI template always emits them so the page
// layout stays in one place.
func (c *Converter) cleanupLines(lines []string) []string {
	if c.ctx.Config.Install.LaunchOnFinish != "" {
		return lines
	}
	kept := lines[:0]
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, "!define MUI_FINISHPAGE_RUN") ||
			strings.HasPrefix(s, "!define MUI_FINISHPAGE_RUN_TEXT") {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

// reorderLanguageDirectives moves every MUI_LANGUAGE insert and
// LangString behind the last page macro. Section generators emit
// LangStrings inline next to the code that uses them; NSIS requires
// them after the page setup.
func reorderLanguageDirectives(lines []string) []string {
	var other, languageInserts, langStrings []string
	lastPage := -1
	for _, line := range lines {
		s := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(s, "!insertmacro MUI_LANGUAGE"):
			languageInserts = append(languageInserts, line)
		case strings.HasPrefix(s, "LangString "):
			langStrings = append(langStrings, line)
		default:
			other = append(other, line)
			if strings.HasPrefix(s, "!insertmacro MUI_PAGE") ||
				strings.HasPrefix(s, "!insertmacro MUI_UNPAGE") ||
				strings.HasPrefix(s, "Page custom") {
				lastPage = len(other)
			}
		}
	}
	if lastPage < 0 || len(languageInserts) == 0 {
		return lines
	}
	result := make([]string, 0, len(lines))
	result = append(result, other[:lastPage]...)
	result = append(result, languageInserts...)
	result = append(result, langStrings...)
	result = append(result, other[lastPage:]...)
	return result
}

// Lowercase dotted references left in generated text. NSIS defines like
// ${APP_NAME} must survive, so only lowercase names are substituted.
var configRefPattern = regexp.MustCompile(`\$\{([a-z][a-z0-9_.]*)\}`)

// finalSubstitution resolves config references that entered the script
// through translated or templated text.
func (c *Converter) finalSubstitution(script string) string {
	return configRefPattern.ReplaceAllStringFunc(script, func(match string) string {
		return c.ctx.Resolve(match)
	})
}
