package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/nsipack/nsipack/internal/build"
	"github.com/nsipack/nsipack/internal/cli"
	"github.com/nsipack/nsipack/internal/config"
	"github.com/nsipack/nsipack/internal/nsis"
	"github.com/nsipack/nsipack/internal/resolver"
	"github.com/nsipack/nsipack/internal/variables"
)

// Version is set via ldflags at build time
var Version = "1.0.0-dev"

type cliArgs struct {
	output      string
	dialect     string
	strict      bool
	buildScript bool
	keep        bool
	status      bool
	version     bool
	verbose     bool
	files       []string
}

func main() {
	args := parseArgs()

	if args.version {
		fmt.Printf("nsipack %s\n", Version)
		os.Exit(0)
	}
	if args.status {
		printStatus()
		os.Exit(0)
	}
	if len(args.files) == 0 {
		printUsage()
		os.Exit(10)
	}

	if err := nsis.CheckDialect(args.dialect); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.Error("Error:"), err)
		os.Exit(2)
	}

	for _, filename := range args.files {
		if err := processFile(filename, args); err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", cli.Error("Error processing"), cli.Filename(filename), err)
			os.Exit(1)
		}
	}
}

func processFile(filename string, args *cliArgs) error {
	fmt.Printf("Processing %s...\n", cli.Filename(filename))

	cfg, err := config.Load(filename)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	fmt.Printf("  Product: %s v%s\n", cli.Bold(cfg.App.Name), cfg.App.Version)
	if leaves := countLeaves(cfg); leaves > 0 {
		fmt.Printf("  Components: %s\n", cli.Number(fmt.Sprintf("%d", leaves)))
	}

	if args.strict {
		if err := validateReferences(cfg); err != nil {
			return err
		}
	}

	outputDir := args.output
	if outputDir == "" {
		outputDir = cfg.Dir()
	}

	conv := nsis.NewConverter(cfg, outputDir)
	scriptPath, err := conv.Save()
	if err != nil {
		return fmt.Errorf("generating script: %w", err)
	}
	fmt.Printf("  Written: %s\n", cli.Filename(scriptPath))

	if args.buildScript {
		if !build.IsAvailable() {
			return fmt.Errorf("makensis not found; install NSIS or set NSIS_HOME")
		}
		builder := build.NewBuilder(args.verbose, args.keep)
		if err := builder.Build(scriptPath); err != nil {
			return fmt.Errorf("building installer: %w", err)
		}
		fmt.Printf("  %s\n", cli.Success("Built installer"))
	}
	return nil
}

func countLeaves(cfg *config.Config) int {
	count := 0
	var walk func(pkgs []config.PackageEntry)
	walk = func(pkgs []config.PackageEntry) {
		for i := range pkgs {
			if pkgs[i].IsGroup() {
				walk(pkgs[i].Children)
			} else {
				count++
			}
		}
	}
	walk(cfg.Packages)
	return count
}

// validateReferences scans every string in the document for references
// that cannot be resolved and fails when any are found.
func validateReferences(cfg *config.Config) error {
	res := resolver.New(cfg, variables.DialectNSIS)
	unknownSet := make(map[string]bool)
	cfg.VisitStrings(func(path, value string) {
		unknowns, _ := res.ValidateReferences(value, false)
		for _, ref := range unknowns {
			unknownSet[ref] = true
		}
	})
	if len(unknownSet) == 0 {
		return nil
	}
	unknowns := make([]string, 0, len(unknownSet))
	for ref := range unknownSet {
		unknowns = append(unknowns, ref)
	}
	sort.Strings(unknowns)
	return &resolver.UnknownReferenceError{
		References: unknowns,
		Known:      variables.NewRegistry().Names(),
	}
}

func parseArgs() *cliArgs {
	// Convert /FLAG syntax to --flag for flag package compatibility
	newArgs := make([]string, 0, len(os.Args))
	newArgs = append(newArgs, os.Args[0])

	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "/") && !strings.Contains(arg, "\\") && !strings.Contains(arg, ":") {
			// /FLAG -> --flag (but not paths like /c/foo or /flag:value)
			newArgs = append(newArgs, "--"+strings.ToLower(arg[1:]))
		} else if strings.HasPrefix(arg, "/") && strings.Contains(arg, ":") && !strings.HasPrefix(arg, "/c/") {
			// /FLAG:value -> --flag=value
			parts := strings.SplitN(arg, ":", 2)
			key := strings.ToLower(parts[0][1:])
			val := parts[1]
			newArgs = append(newArgs, "--"+key+"="+val)
		} else {
			newArgs = append(newArgs, arg)
		}
	}

	os.Args = newArgs

	args := &cliArgs{}

	flag.StringVar(&args.output, "output", "", "output directory for generated scripts")
	flag.StringVar(&args.output, "o", "", "output directory (shorthand)")
	flag.StringVar(&args.dialect, "dialect", "nsis", "output dialect")
	flag.BoolVar(&args.strict, "strict", false, "fail on unresolved references")
	flag.BoolVar(&args.buildScript, "build", false, "run makensis on the generated script")
	flag.BoolVar(&args.keep, "keep", false, "retain the script after building")
	flag.BoolVar(&args.status, "status", false, "show configuration status")
	flag.BoolVar(&args.version, "version", false, "show version")
	flag.BoolVar(&args.verbose, "verbose", false, "verbose output")

	var showHelp bool
	flag.BoolVar(&showHelp, "help", false, "show help")
	flag.BoolVar(&showHelp, "h", false, "show help")
	flag.BoolVar(&showHelp, "?", false, "show help")

	flag.Parse()

	if showHelp {
		printUsage()
		os.Exit(0)
	}

	args.files = flag.Args()
	return args
}

func printUsage() {
	fmt.Printf("nsipack - Version %s\n", Version)
	fmt.Printf("Declarative NSIS installer generator [%s/%s]\n", runtime.GOOS, runtime.GOARCH)
	fmt.Println()
	fmt.Println("Usage: nsipack [OPTIONS] FILE.yaml [FILE.yaml...]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  /OUTPUT:DIR    Output directory (default: next to the input file)")
	fmt.Println("  /DIALECT:NAME  Output dialect (default: nsis)")
	fmt.Println("  /STRICT        Fail on unresolved ${...} and $NAME references")
	fmt.Println("  /BUILD         Run makensis on the generated script")
	fmt.Println("  /KEEP          Retain the .nsi script after a build")
	fmt.Println("  /STATUS        Show NSIS toolchain status")
	fmt.Println("  /VERSION       Show version")
	fmt.Println("  /VERBOSE       Verbose output")
	fmt.Println("  /?, /HELP      Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  nsipack app.yaml                    Generate app.nsi")
	fmt.Println("  nsipack /BUILD app.yaml             Generate and compile the installer")
	fmt.Println("  nsipack /BUILD /KEEP app.yaml       Compile and keep the .nsi script")
	fmt.Println("  nsipack /STRICT /OUTPUT:out app.yaml")
}

func printStatus() {
	fmt.Printf("nsipack - Version %s\n", Version)
	fmt.Printf("Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Println()

	fmt.Println("NSIS Toolchain:")
	if build.IsAvailable() {
		path, _ := build.GetMakensisPath()
		fmt.Printf("  Location: %s\n", cli.Filename(path))
		fmt.Printf("  Version:  %s\n", build.GetVersion())
	} else {
		fmt.Printf("  Location: %s\n", cli.Warning("(not found)"))
		fmt.Println("  Install NSIS from https://nsis.sourceforge.io or set NSIS_HOME")
	}
	fmt.Println()

	fmt.Println("Search Order:")
	fmt.Println("  1. %NSIS_HOME% (and its Bin subdirectory)")
	if runtime.GOOS == "windows" {
		fmt.Println("  2. C:\\Program Files (x86)\\NSIS, C:\\Program Files\\NSIS")
	} else {
		fmt.Println("  2. /usr/bin, /usr/local/bin, /opt/homebrew/bin")
	}
	fmt.Println("  3. PATH")

	if home := os.Getenv("NSIS_HOME"); home != "" {
		if _, err := os.Stat(filepath.Join(home, "makensis")); err == nil {
			fmt.Printf("     -> %s (found)\n", home)
		}
	}
}
