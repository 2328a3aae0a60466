package nsis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/nsipack/nsipack/internal/config"
	"github.com/nsipack/nsipack/internal/languages"
)

// headerTemplate is the script preamble. Generated blocks are injected
// triple-braced so handlebars does not HTML-escape the NSIS syntax.
const headerTemplate = `; {{{APP_NAME}}} {{{APP_VERSION}}} installer
; Generated by nsipack from {{{SOURCE_NAME}}}

Unicode true

!include "MUI2.nsh"
!include "LogicLib.nsh"
!include "FileFunc.nsh"
!include "WinVer.nsh"

!define APP_NAME "{{{APP_NAME}}}"
!define APP_VERSION "{{{APP_VERSION}}}"
!define APP_VERSION_VI "{{{APP_VERSION_VI}}}"
!define APP_PUBLISHER "{{{APP_PUBLISHER}}}"
!define REG_KEY "{{{REG_KEY}}}"`

const generalSettingsTemplate = `Name "${APP_NAME}"
OutFile "{{{OUT_FILE}}}"
InstallDir "{{{INSTALL_DIR}}}"
InstallDirRegKey HKLM "${REG_KEY}" "InstallPath"
RequestExecutionLevel {{{EXEC_LEVEL}}}
SetCompressor /SOLID lzma
ShowInstDetails show
ShowUninstDetails show
{{#if BRANDING}}BrandingText "{{{BRANDING}}}"
{{/if}}{{#if SILENT}}SilentInstall silent
{{/if}}`

const modernUITemplate = `!define MUI_ABORTWARNING
{{#if INSTALL_ICON}}!define MUI_ICON "{{{INSTALL_ICON}}}"
{{/if}}{{#if UNINSTALL_ICON}}!define MUI_UNICON "{{{UNINSTALL_ICON}}}"
{{/if}}{{#if MULTI_LANGUAGE}}!define MUI_LANGDLL_REGISTRY_ROOT "HKLM"
!define MUI_LANGDLL_REGISTRY_KEY "${REG_KEY}"
!define MUI_LANGDLL_REGISTRY_VALUENAME "InstallerLanguage"
{{/if}}{{{SHORTCUT_VARS}}}
{{#if LICENSE_FILE}}!insertmacro MUI_PAGE_LICENSE "{{{LICENSE_FILE}}}"
{{/if}}{{#if HAS_COMPONENTS}}!insertmacro MUI_PAGE_COMPONENTS
{{/if}}{{#if DIR_LEAVE}}!define MUI_PAGE_CUSTOMFUNCTION_LEAVE ExistingInstall_DirLeave
{{/if}}!insertmacro MUI_PAGE_DIRECTORY
{{#if SHORTCUT_PAGE}}Page custom ShortcutOptionsPage ShortcutOptionsPageLeave
{{/if}}!insertmacro MUI_PAGE_INSTFILES
!define MUI_FINISHPAGE_RUN "{{{FINISH_RUN}}}"
!define MUI_FINISHPAGE_RUN_TEXT "{{{FINISH_RUN_TEXT}}}"
!insertmacro MUI_PAGE_FINISH
!insertmacro MUI_UNPAGE_CONFIRM
!insertmacro MUI_UNPAGE_INSTFILES
{{{LANGUAGE_INSERTS}}}{{{LANG_STRINGS}}}{{{SHORTCUT_PAGE_FUNCS}}}`

var (
	headerTpl          = raymond.MustParse(headerTemplate)
	generalSettingsTpl = raymond.MustParse(generalSettingsTemplate)
	modernUITpl        = raymond.MustParse(modernUITemplate)
)

// generateHeader renders the !define preamble.
func generateHeader(ctx *BuildContext) []string {
	cfg := ctx.Config
	data := map[string]interface{}{
		"APP_NAME":       ctx.Resolve(cfg.App.Name),
		"APP_VERSION":    cfg.App.Version,
		"APP_VERSION_VI": padVersion(cfg.App.Version),
		"APP_PUBLISHER":  ctx.Resolve(cfg.App.Publisher),
		"REG_KEY":        ctx.regKey(),
		"SOURCE_NAME":    cfg.App.Name + ".yaml",
	}
	return renderLines(ctx, headerTpl, data)
}

// generateCustomIncludes emits verbatim script lines from the
// custom_includes block, grouped by section name.
func generateCustomIncludes(ctx *BuildContext) []string {
	includes := ctx.Config.CustomIncludes
	if len(includes) == 0 {
		return nil
	}
	var lines []string
	for _, section := range sortedKeys(includes) {
		lines = append(lines, fmt.Sprintf("; custom includes: %s", section))
		for _, line := range includes[section] {
			lines = append(lines, ctx.Resolve(line))
		}
	}
	return lines
}

// generateGeneralSettings renders the installer attributes.
func generateGeneralSettings(ctx *BuildContext) []string {
	cfg := ctx.Config
	outFile := cfg.Install.InstallerName
	if outFile == "" {
		outFile = fmt.Sprintf("%s-%s-setup.exe", cfg.App.Name, cfg.App.Version)
	}
	execLevel := "admin"
	if sr := cfg.Install.SystemRequirements; sr != nil && !sr.RequireAdmin {
		execLevel = "user"
	}
	data := map[string]interface{}{
		"OUT_FILE":    ctx.ResolvePath(outFile),
		"INSTALL_DIR": ctx.resolveInstallDir(),
		"EXEC_LEVEL":  execLevel,
		"BRANDING":    ctx.Resolve(cfg.App.Branding),
		"SILENT":      cfg.Install.SilentInstall,
	}
	return renderLines(ctx, generalSettingsTpl, data)
}

// resolveInstallDir resolves the install directory but keeps ${app.name}
// style references out of the emitted script.
func (ctx *BuildContext) resolveInstallDir() string {
	return strings.ReplaceAll(ctx.Resolve(ctx.Config.Install.InstallDir), "/", `\`)
}

// generateModernUI renders MUI page setup, the shortcut options page,
// language inserts, and LangStrings.
func generateModernUI(ctx *BuildContext, shortcuts []ShortcutEntry) []string {
	cfg := ctx.Config

	finishRun := ""
	finishRunText := ""
	if cfg.Install.LaunchOnFinish != "" {
		finishRun = ctx.resolveShortcutPath(cfg.Install.LaunchOnFinish)
		finishRunText = ctx.finishRunText()
	}

	licenseFile := ""
	if !cfg.App.License.IsEmpty() {
		licenseFile = ctx.ResolvePath(cfg.App.License.Text)
	}

	optional := optionalShortcuts(shortcuts)
	data := map[string]interface{}{
		"INSTALL_ICON":        ctx.ResolvePath(cfg.App.InstallIcon),
		"UNINSTALL_ICON":      ctx.ResolvePath(cfg.App.UninstallIcon),
		"MULTI_LANGUAGE":      len(cfg.Languages) > 1,
		"LICENSE_FILE":        licenseFile,
		"HAS_COMPONENTS":      len(cfg.Packages) > 0,
		"DIR_LEAVE":           cfg.Install.ExistingInstall.AllowMultiple && cfg.Install.ExistingInstall.Mode != config.ModeNone,
		"SHORTCUT_PAGE":       len(optional) > 0,
		"FINISH_RUN":          finishRun,
		"FINISH_RUN_TEXT":     finishRunText,
		"SHORTCUT_VARS":       shortcutVarBlock(shortcuts),
		"LANGUAGE_INSERTS":    languageInsertBlock(ctx),
		"LANG_STRINGS":        langStringBlock(ctx, shortcuts),
		"SHORTCUT_PAGE_FUNCS": shortcutPageBlock(ctx, optional),
	}
	return renderLines(ctx, modernUITpl, data)
}

func (ctx *BuildContext) finishRunText() string {
	label := ctx.Config.Install.LaunchOnFinishLabel
	if label.IsEmpty() {
		return ctx.UIString("finish_run", "Run ${APP_NAME}")
	}
	if len(ctx.Config.Languages) > 0 && len(label.Translations) > 0 {
		return "$(FINISH_RUN)"
	}
	return ctx.Resolve(label.Text)
}

func renderLines(ctx *BuildContext, tpl *raymond.Template, data map[string]interface{}) []string {
	result, err := tpl.Exec(data)
	if err != nil {
		ctx.recordErr(fmt.Errorf("rendering script template: %w", err))
		return nil
	}
	return strings.Split(strings.TrimRight(result, "\n"), "\n")
}

// padVersion extends a version string to the four-part form Windows
// version resources require.
func padVersion(version string) string {
	parts := strings.Split(version, ".")
	for len(parts) < 4 {
		parts = append(parts, "0")
	}
	for i, part := range parts[:4] {
		if _, err := strconv.Atoi(part); err != nil {
			parts[i] = "0"
		}
	}
	return strings.Join(parts[:4], ".")
}

// ---------------------------------------------------------------------
// Shortcut options page
// ---------------------------------------------------------------------

// optionalShortcuts filters the entries that get a checkbox.
func optionalShortcuts(shortcuts []ShortcutEntry) []ShortcutEntry {
	var optional []ShortcutEntry
	for _, sc := range shortcuts {
		if sc.Config.Optional {
			optional = append(optional, sc)
		}
	}
	return optional
}

// shortcutVarBlock declares the $CREATE_SC_<i> state variables and the
// checkbox control handles.
func shortcutVarBlock(shortcuts []ShortcutEntry) string {
	if len(shortcuts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, sc := range shortcuts {
		fmt.Fprintf(&b, "Var CREATE_SC_%d\n", sc.Index)
	}
	for _, sc := range shortcuts {
		if sc.Config.Optional {
			fmt.Fprintf(&b, "Var _SC_CTRL_%d\n", sc.Index)
		}
	}
	return b.String()
}

// shortcutPageBlock emits the nsDialogs page listing one checkbox per
// optional shortcut.
func shortcutPageBlock(ctx *BuildContext, optional []ShortcutEntry) string {
	if len(optional) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nFunction ShortcutOptionsPage\n")
	b.WriteString("  !insertmacro MUI_HEADER_TEXT \"Shortcuts\" \"Choose which shortcuts to create\"\n")
	b.WriteString("  nsDialogs::Create 1018\n")
	b.WriteString("  Pop $0\n")
	b.WriteString("  StrCmp $0 error 0 +2\n")
	b.WriteString("  Abort\n")
	for row, sc := range optional {
		label := shortcutCheckboxLabel(ctx, sc)
		fmt.Fprintf(&b, "  ${NSD_CreateCheckbox} 0 %du 100%% 12u \"%s\"\n", row*14, label)
		fmt.Fprintf(&b, "  Pop $_SC_CTRL_%d\n", sc.Index)
		fmt.Fprintf(&b, "  StrCmp $CREATE_SC_%d \"1\" 0 +2\n", sc.Index)
		fmt.Fprintf(&b, "  ${NSD_Check} $_SC_CTRL_%d\n", sc.Index)
	}
	b.WriteString("  nsDialogs::Show\n")
	b.WriteString("FunctionEnd\n")
	b.WriteString("\nFunction ShortcutOptionsPageLeave\n")
	for _, sc := range optional {
		fmt.Fprintf(&b, "  ${NSD_GetState} $_SC_CTRL_%d $0\n", sc.Index)
		fmt.Fprintf(&b, "  StrCmp $0 ${BST_CHECKED} 0 +3\n")
		fmt.Fprintf(&b, "  StrCpy $CREATE_SC_%d \"1\"\n", sc.Index)
		fmt.Fprintf(&b, "  Goto +2\n")
		fmt.Fprintf(&b, "  StrCpy $CREATE_SC_%d \"0\"\n", sc.Index)
	}
	b.WriteString("FunctionEnd\n")
	return b.String()
}

// shortcutCheckboxLabel picks the checkbox text: explicit label, builtin
// desktop/startmenu string, or a generic label built from the name.
func shortcutCheckboxLabel(ctx *BuildContext, sc ShortcutEntry) string {
	if len(ctx.Config.Languages) > 0 {
		return fmt.Sprintf("$(SC_LABEL_%d)", sc.Index)
	}
	return escapeNSIS(literalShortcutLabel(ctx, sc, ""))
}

func literalShortcutLabel(ctx *BuildContext, sc ShortcutEntry, lang string) string {
	if !sc.Config.Label.IsEmpty() {
		text := sc.Config.Label.Text
		if lang != "" {
			text = ctx.langTextFor(sc.Config.Label, lang, "shortcut label")
		}
		return ctx.Resolve(text)
	}
	overrides := overridesFor(ctx, lang)
	switch sc.Type {
	case shortcutDesktop:
		return languages.GetString("shortcuts_desktop", lang, overrides)
	case shortcutStartMenu:
		return languages.GetString("shortcuts_startmenu", lang, overrides)
	default:
		return "Create shortcut: " + sc.ResolvedName
	}
}

func overridesFor(ctx *BuildContext, lang string) map[string]string {
	for _, lc := range ctx.Config.Languages {
		if lc.Name == languages.Canonical(lang) {
			return lc.Strings
		}
	}
	return nil
}

// ---------------------------------------------------------------------
// Languages
// ---------------------------------------------------------------------

// languageInsertBlock emits one MUI_LANGUAGE insert per configured
// language, defaulting to English.
func languageInsertBlock(ctx *BuildContext) string {
	var b strings.Builder
	if len(ctx.Config.Languages) == 0 {
		b.WriteString("!insertmacro MUI_LANGUAGE \"English\"\n")
		return b.String()
	}
	for _, lc := range ctx.Config.Languages {
		mapping := languages.NSISForOrFallback(lc.Name)
		fmt.Fprintf(&b, "!insertmacro MUI_LANGUAGE \"%s\"\n", mapping.MUIName)
	}
	return b.String()
}

// langStringBlock emits the LangString table: every builtin UI string
// plus per-shortcut checkbox labels, once per configured language.
func langStringBlock(ctx *BuildContext, shortcuts []ShortcutEntry) string {
	if len(ctx.Config.Languages) == 0 {
		return ""
	}
	var b strings.Builder
	for _, lc := range ctx.Config.Languages {
		mapping := languages.NSISForOrFallback(lc.Name)
		for _, id := range languages.StringIDs {
			text := languages.GetString(id, lc.Name, lc.Strings)
			text = fillRequirementPlaceholders(ctx, id, text)
			fmt.Fprintf(&b, "LangString %s ${%s} \"%s\"\n",
				strings.ToUpper(id), mapping.LangConstant, EscapeLangString(text))
		}
		for _, sc := range optionalShortcuts(shortcuts) {
			label := literalShortcutLabel(ctx, sc, lc.Name)
			fmt.Fprintf(&b, "LangString SC_LABEL_%d ${%s} \"%s\"\n",
				sc.Index, mapping.LangConstant, EscapeLangString(label))
		}
	}
	return b.String()
}

// fillRequirementPlaceholders substitutes the {mv} and {mb} markers in
// the system requirement messages.
func fillRequirementPlaceholders(ctx *BuildContext, id, text string) string {
	sr := ctx.Config.Install.SystemRequirements
	if sr == nil {
		return text
	}
	switch id {
	case "requires_windows":
		return strings.ReplaceAll(text, "{mv}", sr.MinWindowsVersion)
	case "not_enough_space":
		return strings.ReplaceAll(text, "{mb}", strconv.Itoa(sr.MinFreeSpaceMB))
	case "not_enough_memory":
		return strings.ReplaceAll(text, "{mb}", strconv.Itoa(sr.MinRAMMB))
	}
	return text
}

// EscapeLangString converts text to NSIS LangString form. Already
// escaped `$\r` / `$\n` markers written with a trailing dollar around
// real line breaks are normalized first so the output never doubles the
// escapes, then quotes and raw line breaks are escaped.
func EscapeLangString(text string) string {
	text = strings.ReplaceAll(text, "$\r$", "\r")
	text = strings.ReplaceAll(text, "$\n$", "\n")
	text = strings.ReplaceAll(text, "$\r", "\r")
	text = strings.ReplaceAll(text, "$\n", "\n")
	text = strings.ReplaceAll(text, `"`, `$\"`)
	text = strings.ReplaceAll(text, "\r", `$\r`)
	text = strings.ReplaceAll(text, "\n", `$\n`)
	return text
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
