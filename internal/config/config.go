// Package config parses the YAML package description into a typed
// configuration tree. The raw document is retained alongside the typed
// tree so that ${a.b.c} references can be resolved against it.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nsipack/nsipack/internal/languages"
)

// LangText is a text value that is either a single string or a map of
// per-language translations keyed by canonical language name.
type LangText struct {
	Text         string
	Translations map[string]string
}

// MissingTranslationError reports a LangText that carries translations
// but none for the requested language.
type MissingTranslationError struct {
	Field     string
	Language  string
	Available []string
}

func (e *MissingTranslationError) Error() string {
	return fmt.Sprintf("missing translation for %s: %q (available: %s)",
		e.Field, e.Language, strings.Join(e.Available, ", "))
}

// LangTextFrom builds a LangText from a raw YAML value: a string becomes
// plain text, a map becomes per-language translations with the keys
// resolved to canonical language names.
func LangTextFrom(value any) LangText {
	switch v := value.(type) {
	case nil:
		return LangText{}
	case string:
		return LangText{Text: v}
	case map[string]any:
		tr := make(map[string]string, len(v))
		for key, text := range v {
			tr[languages.Canonical(key)] = toString(text)
		}
		return LangText{Translations: tr}
	default:
		return LangText{Text: toString(v)}
	}
}

// IsEmpty reports whether the LangText has neither text nor translations.
func (lt LangText) IsEmpty() bool {
	return lt.Text == "" && len(lt.Translations) == 0
}

// ForLanguage returns the text for the given language. Translated values
// are strict: a language missing from a non-empty translation map is an
// error naming the field and the available languages.
func (lt LangText) ForLanguage(lang, field string) (string, error) {
	if len(lt.Translations) == 0 {
		return lt.Text, nil
	}
	canonical := languages.Canonical(lang)
	if text, ok := lt.Translations[canonical]; ok {
		return text, nil
	}
	available := make([]string, 0, len(lt.Translations))
	for name := range lt.Translations {
		available = append(available, name)
	}
	sort.Strings(available)
	return "", &MissingTranslationError{Field: field, Language: canonical, Available: available}
}

// AppInfo is the application metadata block.
type AppInfo struct {
	Name          string
	Version       string
	Publisher     string
	Branding      string
	Description   LangText
	InstallIcon   string
	UninstallIcon string
	License       LangText
}

// RegistryEntry is a registry value written by the installer and removed
// on uninstall.
type RegistryEntry struct {
	Hive  string // HKLM | HKCU | HKCR
	Key   string
	Name  string
	Value string
	Type  string // string | expand | dword
	View  string // auto | 32 | 64
}

// EnvVarEntry is an environment variable managed by the installer.
type EnvVarEntry struct {
	Name              string
	Value             string
	Scope             string // system (HKLM) | user (HKCU)
	RemoveOnUninstall bool
	Append            bool // PATH-append semantics
}

// FileAssociation registers a file extension with the installed program.
type FileAssociation struct {
	Extension           string
	ProgID              string
	Description         LangText
	Application         string
	DefaultIcon         string
	Verbs               map[string]string
	RegisterForAllUsers bool
}

// ShortcutConfig describes one shortcut.
type ShortcutConfig struct {
	Name     string
	Target   string
	Location string
	Icon     string
	Args     string
	Workdir  string
	Label    LangText
	Optional bool
	Default  bool
}

// SystemRequirements lists pre-installation checks run in .onInit.
type SystemRequirements struct {
	MinWindowsVersion string
	MinFreeSpaceMB    int
	MinRAMMB          int
	RequireAdmin      bool
}

// SigningConfig configures code signing of the produced installer.
type SigningConfig struct {
	Enabled         bool
	Certificate     string
	Password        string
	TimestampURL    string
	VerifySignature bool
	ChecksumType    string
	ChecksumValue   string
}

// UpdateConfig is the auto-update metadata written to the registry.
type UpdateConfig struct {
	Enabled         bool
	UpdateURL       string
	DownloadURL     string
	BackupOnUpgrade bool
	RepairEnabled   bool
	CheckOnStartup  bool
	RegistryHive    string
	RegistryKey     string
}

// LoggingConfig enables install-time logging.
type LoggingConfig struct {
	Enabled bool
	Path    string
	Level   string
}

// Existing-install handling modes.
const (
	ModePromptUninstall = "prompt_uninstall"
	ModeAutoUninstall   = "auto_uninstall"
	ModeOverwrite       = "overwrite"
	ModeAbort           = "abort"
	ModeNone            = "none"
)

// ExistingInstallConfig is the policy for handling a detected previous
// installation. A negative UninstallWaitMS waits forever.
type ExistingInstallConfig struct {
	Mode            string
	VersionCheck    bool
	AllowMultiple   bool
	UninstallerArgs string
	ShowVersionInfo bool
	UninstallWaitMS int
}

// defaultExistingInstall returns the policy applied when the block is
// absent from the configuration.
func defaultExistingInstall() ExistingInstallConfig {
	return ExistingInstallConfig{
		Mode:            ModePromptUninstall,
		ShowVersionInfo: true,
		UninstallWaitMS: 15000,
	}
}

// InstallConfig is the installation behaviour block.
type InstallConfig struct {
	InstallDir          string
	DesktopShortcut     *ShortcutConfig
	StartMenuShortcut   *ShortcutConfig
	Shortcuts           []ShortcutConfig
	RegistryEntries     []RegistryEntry
	EnvVars             []EnvVarEntry
	FileAssociations    []FileAssociation
	SystemRequirements  *SystemRequirements
	LaunchOnFinish      string
	LaunchOnFinishLabel LangText
	LaunchInBackground  bool
	SilentInstall       bool
	InstallerName       string
	RegistryKey         string
	RegistryView        string // auto | 32 | 64
	ExistingInstall     ExistingInstallConfig
}

// FileEntry is a single file or directory tree to install. Source may be
// a local path or an http(s) URL downloaded at install time.
type FileEntry struct {
	Source        string
	Destination   string
	ChecksumType  string
	ChecksumValue string
	Decompress    bool
}

// IsRemote reports whether the source is downloaded rather than packaged.
func (f FileEntry) IsRemote() bool {
	return strings.HasPrefix(f.Source, "http://") || strings.HasPrefix(f.Source, "https://")
}

// SourceSpec is one source/destination pair of a package.
type SourceSpec struct {
	Source      string
	Destination string
}

// PackageEntry is a node of the component tree. A node without children
// is a selectable package; a node with children is a group.
type PackageEntry struct {
	Name        string
	Sources     []SourceSpec
	Optional    bool
	Default     bool
	Description LangText
	Children    []PackageEntry
	PostInstall []string

	DesktopShortcut   *ShortcutConfig
	StartMenuShortcut *ShortcutConfig
	Shortcuts         []ShortcutConfig
	RegistryEntries   []RegistryEntry
	EnvVars           []EnvVarEntry
	FileAssociations  []FileAssociation
}

// IsGroup reports whether the entry has child packages.
func (p *PackageEntry) IsGroup() bool { return len(p.Children) > 0 }

// LanguageConfig selects one installer language with optional UI string
// overrides keyed by string ID.
type LanguageConfig struct {
	Name    string
	Strings map[string]string
}

// Config is the root of the typed configuration tree.
type Config struct {
	App            AppInfo
	Install        InstallConfig
	Files          []FileEntry
	Packages       []PackageEntry
	Signing        *SigningConfig
	Update         *UpdateConfig
	Logging        *LoggingConfig
	Languages      []LanguageConfig
	CustomIncludes map[string][]string

	raw map[string]any
	dir string
}

// Dir returns the directory of the configuration file, or "" when the
// configuration was built from a plain map.
func (c *Config) Dir() string { return c.dir }

// Lookup resolves a dot-separated path like "app.name" against the raw
// document. The second return is false when any step is missing.
func (c *Config) Lookup(path string) (any, bool) {
	var current any = c.raw
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// VisitStrings walks every scalar string in the raw document and calls
// fn with its dotted path and value. Used for reference validation.
func (c *Config) VisitStrings(fn func(path, value string)) {
	visitStrings("", c.raw, fn)
}

func visitStrings(path string, value any, fn func(path, value string)) {
	switch v := value.(type) {
	case string:
		fn(path, v)
	case map[string]any:
		for _, key := range mapKeys(v) {
			child := key
			if path != "" {
				child = path + "." + key
			}
			visitStrings(child, v[key], fn)
		}
	case []any:
		for i, item := range v {
			visitStrings(fmt.Sprintf("%s[%d]", path, i), item, fn)
		}
	}
}

// FromMap builds a configuration from an already-decoded document.
// Package order follows sorted key order; loading from a file preserves
// the document order instead.
func FromMap(data map[string]any) *Config {
	return build(data, nil)
}

func build(data map[string]any, order *orderIndex) *Config {
	cfg := &Config{
		App:            appFrom(getMap(data, "app")),
		Install:        installFrom(getMap(data, "install")),
		CustomIncludes: includesFrom(getMap(data, "custom_includes")),
		raw:            data,
	}

	for _, f := range getList(data, "files") {
		cfg.Files = append(cfg.Files, fileFrom(f))
	}

	if pkgs := getMap(data, "packages"); len(pkgs) > 0 {
		for _, name := range order.keysOf("packages", mapKeys(pkgs)) {
			if child, ok := pkgs[name].(map[string]any); ok {
				cfg.Packages = append(cfg.Packages, packageFrom(name, child, order, "packages."+name))
			}
		}
	}

	if raw, ok := data["signing"].(map[string]any); ok {
		s := signingFrom(raw)
		cfg.Signing = &s
	}
	if raw, ok := data["update"].(map[string]any); ok {
		u := updateFrom(raw)
		cfg.Update = &u
	}
	if raw, ok := data["logging"].(map[string]any); ok {
		l := loggingFrom(raw)
		cfg.Logging = &l
	}
	for _, item := range getList(data, "languages") {
		cfg.Languages = append(cfg.Languages, languageFrom(item))
	}
	return cfg
}

func appFrom(data map[string]any) AppInfo {
	installIcon := getString(data, "install_icon", "")
	return AppInfo{
		Name:          getString(data, "name", ""),
		Version:       getString(data, "version", "1.0.0"),
		Publisher:     getString(data, "publisher", ""),
		Branding:      getString(data, "branding", ""),
		Description:   LangTextFrom(data["description"]),
		InstallIcon:   installIcon,
		UninstallIcon: getString(data, "uninstall_icon", installIcon),
		License:       LangTextFrom(data["license"]),
	}
}

func installFrom(data map[string]any) InstallConfig {
	ic := InstallConfig{
		InstallDir:          getString(data, "install_dir", `$PROGRAMFILES64\${app.name}`),
		LaunchOnFinish:      getString(data, "launch_on_finish", ""),
		LaunchOnFinishLabel: LangTextFrom(data["launch_on_finish_label"]),
		LaunchInBackground:  getBool(data, "launch_in_background", true),
		SilentInstall:       getBool(data, "silent_install", false),
		InstallerName:       getString(data, "installer_name", ""),
		RegistryKey:         getString(data, "registry_key", ""),
		RegistryView:        getString(data, "registry_view", "auto"),
		ExistingInstall:     existingInstallFrom(data["existing_install"]),
	}

	if data["allow_multiple_installations"] == true {
		ic.ExistingInstall.AllowMultiple = true
	}

	ic.DesktopShortcut = shortcutPtr(data["desktop_shortcut"])
	if ic.DesktopShortcut == nil {
		if target := getString(data, "desktop_shortcut_target", ""); target != "" {
			ic.DesktopShortcut = &ShortcutConfig{Target: target, Optional: true, Default: true}
		}
	}
	ic.StartMenuShortcut = shortcutPtr(data["start_menu_shortcut"])
	if ic.StartMenuShortcut == nil {
		if target := getString(data, "start_menu_shortcut_target", ""); target != "" {
			ic.StartMenuShortcut = &ShortcutConfig{Target: target, Optional: true, Default: true}
		}
	}
	for _, sc := range getList(data, "shortcuts") {
		ic.Shortcuts = append(ic.Shortcuts, shortcutFrom(sc))
	}
	for _, e := range getList(data, "registry_entries") {
		if m, ok := e.(map[string]any); ok {
			ic.RegistryEntries = append(ic.RegistryEntries, registryFrom(m))
		}
	}
	for _, e := range getList(data, "env_vars") {
		if m, ok := e.(map[string]any); ok {
			ic.EnvVars = append(ic.EnvVars, envVarFrom(m))
		}
	}
	for _, e := range getList(data, "file_associations") {
		if m, ok := e.(map[string]any); ok {
			ic.FileAssociations = append(ic.FileAssociations, assocFrom(m))
		}
	}
	if m, ok := data["system_requirements"].(map[string]any); ok {
		sr := SystemRequirements{
			MinWindowsVersion: getString(m, "min_windows_version", ""),
			MinFreeSpaceMB:    getInt(m, "min_free_space_mb", 0),
			MinRAMMB:          getInt(m, "min_ram_mb", 0),
			RequireAdmin:      getBool(m, "require_admin", false),
		}
		ic.SystemRequirements = &sr
	}
	return ic
}

func existingInstallFrom(value any) ExistingInstallConfig {
	switch v := value.(type) {
	case string:
		ei := defaultExistingInstall()
		ei.Mode = v
		return ei
	case map[string]any:
		return ExistingInstallConfig{
			Mode:            getString(v, "mode", ModePromptUninstall),
			VersionCheck:    getBool(v, "version_check", false),
			AllowMultiple:   getBool(v, "allow_multiple", false),
			UninstallerArgs: getString(v, "uninstaller_args", ""),
			ShowVersionInfo: getBool(v, "show_version_info", true),
			UninstallWaitMS: getInt(v, "uninstall_wait_ms", 5000),
		}
	default:
		return defaultExistingInstall()
	}
}

func shortcutPtr(value any) *ShortcutConfig {
	if value == nil {
		return nil
	}
	sc := shortcutFrom(value)
	return &sc
}

func shortcutFrom(value any) ShortcutConfig {
	m, ok := value.(map[string]any)
	if !ok {
		// Plain string shorthand for the target.
		return ShortcutConfig{Target: toString(value), Optional: true, Default: true}
	}
	return ShortcutConfig{
		Name:     getString(m, "name", ""),
		Target:   getString(m, "target", ""),
		Location: getString(m, "location", "Desktop"),
		Icon:     getString(m, "icon", ""),
		Args:     getString(m, "args", ""),
		Workdir:  getString(m, "workdir", ""),
		Label:    LangTextFrom(m["label"]),
		Optional: getBool(m, "optional", true),
		Default:  getBool(m, "default", true),
	}
}

func registryFrom(m map[string]any) RegistryEntry {
	return RegistryEntry{
		Hive:  getString(m, "hive", "HKLM"),
		Key:   getString(m, "key", ""),
		Name:  getString(m, "name", ""),
		Value: getString(m, "value", ""),
		Type:  getString(m, "type", "string"),
		View:  getString(m, "view", "auto"),
	}
}

func envVarFrom(m map[string]any) EnvVarEntry {
	return EnvVarEntry{
		Name:              getString(m, "name", ""),
		Value:             getString(m, "value", ""),
		Scope:             getString(m, "scope", "system"),
		RemoveOnUninstall: getBool(m, "remove_on_uninstall", true),
		Append:            getBool(m, "append", false),
	}
}

func assocFrom(m map[string]any) FileAssociation {
	fa := FileAssociation{
		Extension:           getString(m, "extension", ""),
		ProgID:              getString(m, "prog_id", ""),
		Description:         LangTextFrom(m["description"]),
		Application:         getString(m, "application", ""),
		DefaultIcon:         getString(m, "default_icon", ""),
		RegisterForAllUsers: getBool(m, "register_for_all_users", true),
	}
	if verbs, ok := m["verbs"].(map[string]any); ok {
		fa.Verbs = make(map[string]string, len(verbs))
		for name, cmd := range verbs {
			fa.Verbs[name] = toString(cmd)
		}
	}
	return fa
}

func signingFrom(m map[string]any) SigningConfig {
	return SigningConfig{
		Enabled:         getBool(m, "enabled", false),
		Certificate:     getString(m, "certificate", ""),
		Password:        getString(m, "password", ""),
		TimestampURL:    getString(m, "timestamp_url", "http://timestamp.digicert.com"),
		VerifySignature: getBool(m, "verify_signature", false),
		ChecksumType:    getString(m, "checksum_type", ""),
		ChecksumValue:   getString(m, "checksum_value", ""),
	}
}

func updateFrom(m map[string]any) UpdateConfig {
	return UpdateConfig{
		Enabled:         getBool(m, "enabled", false),
		UpdateURL:       getString(m, "update_url", ""),
		DownloadURL:     getString(m, "download_url", ""),
		BackupOnUpgrade: getBool(m, "backup_on_upgrade", false),
		RepairEnabled:   getBool(m, "repair_enabled", false),
		CheckOnStartup:  getBool(m, "check_on_startup", true),
		RegistryHive:    getString(m, "registry_hive", "HKLM"),
		RegistryKey:     getString(m, "registry_key", `Software\${app.publisher}\${app.name}`),
	}
}

func loggingFrom(m map[string]any) LoggingConfig {
	return LoggingConfig{
		Enabled: getBool(m, "enabled", false),
		Path:    getString(m, "path", ""),
		Level:   getString(m, "level", "INFO"),
	}
}

func languageFrom(value any) LanguageConfig {
	switch v := value.(type) {
	case string:
		return LanguageConfig{Name: languages.Canonical(v)}
	case map[string]any:
		lc := LanguageConfig{Name: languages.Canonical(getString(v, "name", ""))}
		if strs, ok := v["strings"].(map[string]any); ok {
			lc.Strings = make(map[string]string, len(strs))
			for id, s := range strs {
				lc.Strings[id] = toString(s)
			}
		}
		return lc
	default:
		return LanguageConfig{Name: toString(value)}
	}
}

func fileFrom(value any) FileEntry {
	m, ok := value.(map[string]any)
	if !ok {
		return FileEntry{Source: toString(value), Destination: "$INSTDIR"}
	}
	source := getString(m, "source", "")
	if dl := getString(m, "download_url", ""); dl != "" && !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		source = dl
	}
	return FileEntry{
		Source:        source,
		Destination:   getString(m, "destination", "$INSTDIR"),
		ChecksumType:  getString(m, "checksum_type", ""),
		ChecksumValue: getString(m, "checksum_value", ""),
		Decompress:    getBool(m, "decompress", false),
	}
}

func packageFrom(name string, data map[string]any, order *orderIndex, path string) PackageEntry {
	pkg := PackageEntry{
		Name:        name,
		Optional:    getBool(data, "optional", false),
		Default:     getBool(data, "default", true),
		Description: LangTextFrom(data["description"]),
	}

	// Explicit i18n overrides take precedence over inline translations.
	if i18n, ok := data["description_i18n"].(map[string]any); ok {
		if pkg.Description.Translations == nil {
			pkg.Description.Translations = make(map[string]string, len(i18n))
		}
		for key, value := range i18n {
			pkg.Description.Translations[languages.Canonical(key)] = toString(value)
		}
	}

	defaultDest := getString(data, "destination", "$INSTDIR")
	sourcesData, ok := data["sources"]
	if !ok {
		sourcesData = data["source"]
	}
	pkg.Sources = sourcesFrom(sourcesData, defaultDest)

	switch post := data["post_install"].(type) {
	case string:
		pkg.PostInstall = []string{post}
	case []any:
		for _, item := range post {
			if s := toString(item); s != "" {
				pkg.PostInstall = append(pkg.PostInstall, s)
			}
		}
	}

	if children, ok := data["children"].(map[string]any); ok {
		for _, childName := range order.keysOf(path+".children", mapKeys(children)) {
			if childData, ok := children[childName].(map[string]any); ok {
				pkg.Children = append(pkg.Children,
					packageFrom(childName, childData, order, path+".children."+childName))
			}
		}
	}

	pkg.DesktopShortcut = shortcutPtr(data["desktop_shortcut"])
	pkg.StartMenuShortcut = shortcutPtr(data["start_menu_shortcut"])
	for _, sc := range getList(data, "shortcuts") {
		pkg.Shortcuts = append(pkg.Shortcuts, shortcutFrom(sc))
	}
	for _, e := range getList(data, "registry_entries") {
		if m, ok := e.(map[string]any); ok {
			pkg.RegistryEntries = append(pkg.RegistryEntries, registryFrom(m))
		}
	}
	for _, e := range getList(data, "env_vars") {
		if m, ok := e.(map[string]any); ok {
			pkg.EnvVars = append(pkg.EnvVars, envVarFrom(m))
		}
	}
	for _, e := range getList(data, "file_associations") {
		if m, ok := e.(map[string]any); ok {
			pkg.FileAssociations = append(pkg.FileAssociations, assocFrom(m))
		}
	}
	return pkg
}

func sourcesFrom(value any, defaultDest string) []SourceSpec {
	switch v := value.(type) {
	case string:
		return []SourceSpec{{Source: v, Destination: defaultDest}}
	case []any:
		var specs []SourceSpec
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				specs = append(specs, SourceSpec{Source: entry, Destination: defaultDest})
			case map[string]any:
				dest := getString(entry, "destination", defaultDest)
				switch src := entry["source"].(type) {
				case []any:
					for _, s := range src {
						specs = append(specs, SourceSpec{Source: toString(s), Destination: dest})
					}
				default:
					specs = append(specs, SourceSpec{Source: toString(src), Destination: dest})
				}
			}
		}
		return specs
	default:
		return nil
	}
}

func includesFrom(data map[string]any) map[string][]string {
	if len(data) == 0 {
		return nil
	}
	includes := make(map[string][]string, len(data))
	for section, value := range data {
		switch v := value.(type) {
		case string:
			includes[section] = []string{v}
		case []any:
			for _, line := range v {
				includes[section] = append(includes[section], toString(line))
			}
		}
	}
	return includes
}

// Raw value accessors. YAML decoding produces map[string]any with
// interface values, so every read goes through these.

func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	child, _ := m[key].(map[string]any)
	return child
}

func getList(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	list, _ := m[key].([]any)
	return list
}

func getString(m map[string]any, key, fallback string) string {
	if v, ok := m[key]; ok && v != nil {
		return toString(v)
	}
	return fallback
}

func getBool(m map[string]any, key string, fallback bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return fallback
}

func getInt(m map[string]any, key string, fallback int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}

func mapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
