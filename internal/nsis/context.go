// Package nsis generates a complete NSIS installer script from a typed
// package configuration. Generation is line oriented: each generator
// returns a slice of script lines and the converter assembles, filters,
// and reorders them before the final write.
package nsis

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/nsipack/nsipack/internal/config"
	"github.com/nsipack/nsipack/internal/resolver"
	"github.com/nsipack/nsipack/internal/variables"
)

// BuildContext carries the configuration, the resolver, and generation
// state shared by all section generators. Resolution errors are sticky:
// the first failure is recorded and surfaced once by the converter, so
// generators can stay simple line producers.
type BuildContext struct {
	Config    *config.Config
	Resolver  *resolver.Resolver
	OutputDir string

	err error
}

// NewBuildContext creates a context with a resolver bound to the raw
// configuration document.
func NewBuildContext(cfg *config.Config) *BuildContext {
	return &BuildContext{
		Config:   cfg,
		Resolver: resolver.New(cfg, variables.DialectNSIS),
	}
}

// Resolve substitutes references in s. On failure the first error is
// recorded and the input is returned unchanged.
func (ctx *BuildContext) Resolve(s string) string {
	resolved, err := ctx.Resolver.Resolve(s)
	if err != nil {
		if ctx.err == nil {
			ctx.err = err
		}
		return s
	}
	return resolved
}

// ResolvePath resolves references and normalizes separators.
func (ctx *BuildContext) ResolvePath(s string) string {
	resolved, err := ctx.Resolver.ResolvePath(s)
	if err != nil {
		if ctx.err == nil {
			ctx.err = err
		}
		return s
	}
	return resolved
}

// Err returns the first resolution or translation error recorded during
// generation.
func (ctx *BuildContext) Err() error { return ctx.err }

// recordErr stores err as the sticky error if none is recorded yet.
func (ctx *BuildContext) recordErr(err error) {
	if ctx.err == nil && err != nil {
		ctx.err = err
	}
}

// EffectiveRegView returns "32" or "64". An explicit registry_view wins;
// "auto" derives 64-bit when the resolved install directory lives under
// the 64-bit program files tree.
func (ctx *BuildContext) EffectiveRegView() string {
	switch ctx.Config.Install.RegistryView {
	case "32", "64":
		return ctx.Config.Install.RegistryView
	}
	dir := ctx.Resolve(ctx.Config.Install.InstallDir)
	if strings.Contains(dir, "PROGRAMFILES64") || strings.Contains(strings.ToLower(dir), "program files\\") {
		return "64"
	}
	if strings.Contains(ctx.Config.Install.InstallDir, "PROGRAMFILES64") {
		return "64"
	}
	return "32"
}

// HasLogging reports whether install-time logging is enabled.
func (ctx *BuildContext) HasLogging() bool {
	return ctx.Config.Logging != nil && ctx.Config.Logging.Enabled
}

// UIString returns the installer UI string reference for a builtin
// string ID: the $(LANGSTRING) reference when languages are configured,
// otherwise the literal English fallback.
func (ctx *BuildContext) UIString(id, fallback string) string {
	if len(ctx.Config.Languages) > 0 {
		return "$(" + strings.ToUpper(id) + ")"
	}
	return fallback
}

// langTextFor resolves a LangText for one language, recording missing
// translations as the sticky error.
func (ctx *BuildContext) langTextFor(lt config.LangText, lang, field string) string {
	text, err := lt.ForLanguage(lang, field)
	if err != nil {
		ctx.recordErr(err)
		return lt.Text
	}
	return text
}

// regKey returns the application registry key used for install detection
// and version storage.
func (ctx *BuildContext) regKey() string {
	if ctx.Config.Install.RegistryKey != "" {
		return ctx.Resolve(ctx.Config.Install.RegistryKey)
	}
	publisher := ctx.Config.App.Publisher
	if publisher == "" {
		publisher = ctx.Config.App.Name
	}
	return `Software\` + publisher + `\` + ctx.Config.App.Name
}

// ---------------------------------------------------------------------
// Section identity
// ---------------------------------------------------------------------

// SectionRef ties one package tree node to its generated section ID.
// Leaves get SEC_PKG_<n>; groups with a description get SEC_GROUP_<m>;
// description-less groups carry no ID and are omitted.
type SectionRef struct {
	Pkg     *config.PackageEntry
	ID      string
	IsGroup bool
}

// CollectSections walks the package tree in pre-order and assigns
// section IDs. The walk is a pure fold over (leaf, group) counters, so
// every consumer that re-runs it sees identical IDs.
func CollectSections(pkgs []config.PackageEntry) []SectionRef {
	refs, _, _ := collectSections(pkgs, 0, 0)
	return refs
}

func collectSections(pkgs []config.PackageEntry, pkgIdx, groupIdx int) ([]SectionRef, int, int) {
	var refs []SectionRef
	for i := range pkgs {
		pkg := &pkgs[i]
		if pkg.IsGroup() {
			if !pkg.Description.IsEmpty() {
				refs = append(refs, SectionRef{Pkg: pkg, ID: fmt.Sprintf("SEC_GROUP_%d", groupIdx), IsGroup: true})
				groupIdx++
			}
			var childRefs []SectionRef
			childRefs, pkgIdx, groupIdx = collectSections(pkg.Children, pkgIdx, groupIdx)
			refs = append(refs, childRefs...)
		} else {
			refs = append(refs, SectionRef{Pkg: pkg, ID: fmt.Sprintf("SEC_PKG_%d", pkgIdx)})
			pkgIdx++
		}
	}
	return refs, pkgIdx, groupIdx
}

// FlattenLeaves returns the leaf packages in pre-order. Leaf index i
// corresponds to section SEC_PKG_<i>.
func FlattenLeaves(pkgs []config.PackageEntry) []*config.PackageEntry {
	var flat []*config.PackageEntry
	for i := range pkgs {
		pkg := &pkgs[i]
		if pkg.IsGroup() {
			flat = append(flat, FlattenLeaves(pkg.Children)...)
		} else {
			flat = append(flat, pkg)
		}
	}
	return flat
}

// ---------------------------------------------------------------------
// Shortcuts
// ---------------------------------------------------------------------

// Shortcut kinds derived from the configured location.
const (
	shortcutDesktop     = "desktop"
	shortcutStartMenu   = "startmenu"
	shortcutQuickLaunch = "quicklaunch"
	shortcutCustom      = "custom"
)

// ShortcutEntry is one shortcut with its stable index. The index names
// the $CREATE_SC_<i> state variable and the checkbox control on the
// shortcut options page.
type ShortcutEntry struct {
	Index        int
	Type         string
	Config       *config.ShortcutConfig
	Section      string // "global" or "SEC_PKG_<n>"
	ResolvedName string
}

// CollectShortcuts enumerates every shortcut in stable order: global
// desktop, global start menu, the global list, then per leaf package in
// flattened order (desktop, start menu, list).
func CollectShortcuts(ctx *BuildContext) []ShortcutEntry {
	cfg := ctx.Config
	var entries []ShortcutEntry

	add := func(sc *config.ShortcutConfig, section, forcedLocation string) {
		if sc == nil || sc.Target == "" {
			return
		}
		// Copy before overriding Location; the configuration is
		// read-only to the generators.
		entry := *sc
		if forcedLocation != "" {
			entry.Location = forcedLocation
		}
		name := "${APP_NAME}"
		if entry.Name != "" {
			name = ctx.Resolve(entry.Name)
		}
		entries = append(entries, ShortcutEntry{
			Index:        len(entries),
			Type:         shortcutKind(entry.Location),
			Config:       &entry,
			Section:      section,
			ResolvedName: name,
		})
	}

	add(cfg.Install.DesktopShortcut, "global", "Desktop")
	add(cfg.Install.StartMenuShortcut, "global", "StartMenu")
	for i := range cfg.Install.Shortcuts {
		add(&cfg.Install.Shortcuts[i], "global", "")
	}

	for pkgIdx, pkg := range FlattenLeaves(cfg.Packages) {
		section := fmt.Sprintf("SEC_PKG_%d", pkgIdx)
		add(pkg.DesktopShortcut, section, "Desktop")
		add(pkg.StartMenuShortcut, section, "StartMenu")
		for i := range pkg.Shortcuts {
			add(&pkg.Shortcuts[i], section, "")
		}
	}
	return entries
}

func shortcutKind(location string) string {
	switch strings.ToLower(strings.TrimSpace(location)) {
	case "", "desktop", "desk":
		return shortcutDesktop
	case "startmenu", "start_menu", "start menu":
		return shortcutStartMenu
	case "quicklaunch", "quick_launch", "quick launch":
		return shortcutQuickLaunch
	default:
		return shortcutCustom
	}
}

var driveLetterPattern = regexp.MustCompile(`^[A-Za-z]:\\`)

// resolveShortcutPath resolves a shortcut-related path and anchors
// relative results under $INSTDIR.
func (ctx *BuildContext) resolveShortcutPath(path string) string {
	if path == "" {
		return ""
	}
	resolved := strings.ReplaceAll(ctx.Resolve(path), "/", `\`)
	if !strings.HasPrefix(resolved, "$") && !driveLetterPattern.MatchString(resolved) {
		resolved = `$INSTDIR\` + resolved
	}
	return resolved
}

func shortcutBaseDir(ctx *BuildContext, sc ShortcutEntry) string {
	switch sc.Type {
	case shortcutDesktop:
		return "$DESKTOP"
	case shortcutStartMenu:
		return `$SMPROGRAMS\${APP_NAME}`
	case shortcutQuickLaunch:
		return "$QUICKLAUNCH"
	default:
		return ctx.resolveShortcutPath(sc.Config.Location)
	}
}

func shortcutLinkPath(ctx *BuildContext, sc ShortcutEntry) string {
	base := strings.TrimRight(shortcutBaseDir(ctx, sc), `\`)
	return base + `\` + sc.ResolvedName + ".lnk"
}

// ---------------------------------------------------------------------
// Path and string utilities
// ---------------------------------------------------------------------

// normalizePath converts glob-style source paths to NSIS-compatible
// Windows paths.
func normalizePath(path string) string {
	path = strings.ReplaceAll(path, "/**/", `\`)
	path = strings.ReplaceAll(path, "**/", "")
	return strings.ReplaceAll(path, "/", `\`)
}

// useRecursive reports whether a source needs File /r.
func useRecursive(source string) bool {
	return source != "" && strings.Contains(source, "**")
}

// escapeNSIS escapes double quotes for NSIS string context.
func escapeNSIS(value string) string {
	return strings.ReplaceAll(value, `"`, `$\"`)
}

// fileLine emits one File directive, preferring the resolved path when
// it exists on disk.
func fileLine(ctx *BuildContext, source string) string {
	resolved := ctx.ResolvePath(source)
	path := normalizePath(source)
	if _, err := os.Stat(resolved); err == nil {
		path = resolved
	}
	if useRecursive(source) {
		return fmt.Sprintf(`  File /r "%s"`, path)
	}
	return fmt.Sprintf(`  File "%s"`, path)
}

// envHiveKey maps an environment variable scope to registry hive/key.
func envHiveKey(env config.EnvVarEntry) (string, string) {
	if strings.ToLower(env.Scope) == "user" {
		return "HKCU", "Environment"
	}
	return "HKLM", `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`
}

// faHivePrefix maps a file association to its registry hive and key
// prefix depending on per-user vs all-users registration.
func faHivePrefix(fa config.FileAssociation) (string, string) {
	if fa.RegisterForAllUsers {
		return "HKCR", ""
	}
	return "HKCU", `Software\Classes\`
}
