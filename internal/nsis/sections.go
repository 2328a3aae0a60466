package nsis

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/nsipack/nsipack/internal/config"
	"github.com/nsipack/nsipack/internal/languages"
)

const arpKey = `Software\Microsoft\Windows\CurrentVersion\Uninstall\${APP_NAME}`

// assocEntry is one file association with its stable index used for the
// FA_DESC_<i> LangString.
type assocEntry struct {
	Index   int
	FA      *config.FileAssociation
	Section string // "global" or "SEC_PKG_<n>"
}

// collectAssociations enumerates file associations in stable order:
// install-level first, then per leaf package in flattened order.
func collectAssociations(ctx *BuildContext) []assocEntry {
	var entries []assocEntry
	for i := range ctx.Config.Install.FileAssociations {
		entries = append(entries, assocEntry{
			Index:   len(entries),
			FA:      &ctx.Config.Install.FileAssociations[i],
			Section: "global",
		})
	}
	for pkgIdx, pkg := range FlattenLeaves(ctx.Config.Packages) {
		for i := range pkg.FileAssociations {
			entries = append(entries, assocEntry{
				Index:   len(entries),
				FA:      &pkg.FileAssociations[i],
				Section: fmt.Sprintf("SEC_PKG_%d", pkgIdx),
			})
		}
	}
	return entries
}

// generateInstallSection emits the hidden main section: files, the
// uninstaller, registry state, environment variables, shortcuts, and
// file associations.
func generateInstallSection(ctx *BuildContext, shortcuts []ShortcutEntry, assocs []assocEntry) []string {
	cfg := ctx.Config
	var lines []string

	if anyRemoteFile(cfg.Files) {
		lines = append(lines,
			"; Remote downloads use the INetC plugin:",
			"; https://nsis.sourceforge.io/Inetc_plug-in",
			`!include "inetc.nsh"`,
			"")
	}

	lines = append(lines, commentBanner("Install")...)
	lines = append(lines, `Section "-Install" SEC_INSTALL`)
	if ctx.HasLogging() {
		lines = append(lines, "  !insertmacro LogInit")
		lines = append(lines, ctx.logWrite("Installing ${APP_NAME} ${APP_VERSION}")...)
	}

	lines = append(lines, emitFileEntries(ctx, cfg.Files)...)

	lines = append(lines, `  WriteUninstaller "$INSTDIR\Uninstall.exe"`)
	lines = append(lines, "")
	view := ctx.EffectiveRegView()
	lines = append(lines,
		fmt.Sprintf("  SetRegView %s", view),
		`  WriteRegStr HKLM "${REG_KEY}" "InstallPath" "$INSTDIR"`,
		`  WriteRegStr HKLM "${REG_KEY}" "Version" "${APP_VERSION}"`,
		fmt.Sprintf(`  WriteRegStr HKLM "%s" "DisplayName" "${APP_NAME}"`, arpKey),
		fmt.Sprintf(`  WriteRegStr HKLM "%s" "DisplayVersion" "${APP_VERSION}"`, arpKey),
		fmt.Sprintf(`  WriteRegStr HKLM "%s" "Publisher" "${APP_PUBLISHER}"`, arpKey),
		fmt.Sprintf(`  WriteRegStr HKLM "%s" "UninstallString" "$\"$INSTDIR\Uninstall.exe$\""`, arpKey),
		fmt.Sprintf(`  WriteRegStr HKLM "%s" "QuietUninstallString" "$\"$INSTDIR\Uninstall.exe$\" /S"`, arpKey),
		fmt.Sprintf(`  WriteRegStr HKLM "%s" "InstallLocation" "$INSTDIR"`, arpKey),
		fmt.Sprintf(`  WriteRegDWORD HKLM "%s" "NoModify" 1`, arpKey),
		fmt.Sprintf(`  WriteRegDWORD HKLM "%s" "NoRepair" 1`, arpKey),
		fmt.Sprintf(`  WriteRegStr HKLM "%s" "DisplayIcon" "$INSTDIR\Uninstall.exe,0"`, arpKey),
		`  ${GetSize} "$INSTDIR" "/S=0K" $0 $1 $2`,
		`  IntFmt $0 "0x%08X" $0`,
		fmt.Sprintf(`  WriteRegDWORD HKLM "%s" "EstimatedSize" $0`, arpKey),
		"  SetRegView lastused",
	)

	lines = append(lines, emitRegistryWrites(ctx, cfg.Install.RegistryEntries)...)
	lines = append(lines, emitEnvWrites(ctx, cfg.Install.EnvVars, "inst")...)

	for _, sc := range shortcuts {
		if sc.Section == "global" {
			lines = append(lines, emitShortcutCreate(ctx, sc)...)
		}
	}

	for _, ae := range assocs {
		if ae.Section == "global" {
			lines = append(lines, emitAssociationWrite(ctx, ae)...)
		}
	}

	lines = append(lines, "SectionEnd")
	return lines
}

func anyRemoteFile(files []config.FileEntry) bool {
	for _, f := range files {
		if f.IsRemote() {
			return true
		}
	}
	return false
}

// emitFileEntries writes the top-level file list, deduplicating
// consecutive SetOutPath directives.
func emitFileEntries(ctx *BuildContext, files []config.FileEntry) []string {
	var lines []string
	currentOutPath := ""
	for _, f := range files {
		dest := ctx.ResolvePath(f.Destination)
		if dest != currentOutPath {
			lines = append(lines, fmt.Sprintf(`  SetOutPath "%s"`, dest))
			currentOutPath = dest
		}
		if f.IsRemote() {
			lines = append(lines, emitRemoteFile(ctx, f)...)
		} else {
			lines = append(lines, fileLine(ctx, f.Source))
		}
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}
	return lines
}

func emitRemoteFile(ctx *BuildContext, f config.FileEntry) []string {
	url := ctx.Resolve(f.Source)
	name := remoteFileName(url)
	lines := []string{
		fmt.Sprintf(`  inetc::get /SILENT "%s" "$OUTDIR\%s" /END`, url, name),
		"  Pop $0",
		`  StrCmp $0 "OK" +3`,
		fmt.Sprintf(`  MessageBox MB_OK|MB_ICONSTOP "Download failed: %s"`, name),
		"  Abort",
	}
	if f.ChecksumValue != "" {
		checksumType := f.ChecksumType
		if checksumType == "" {
			checksumType = "SHA256"
		}
		lines = append(lines,
			fmt.Sprintf(`  Push "$OUTDIR\%s"`, name),
			fmt.Sprintf(`  Push "%s"`, strings.ToUpper(checksumType)),
			fmt.Sprintf(`  Push "%s"`, f.ChecksumValue),
			"  Call VerifyChecksum",
			"  Pop $0",
			`  StrCmp $0 "0" +3`,
			fmt.Sprintf(`  MessageBox MB_OK|MB_ICONSTOP "Checksum mismatch: %s"`, name),
			"  Abort",
		)
	}
	if f.Decompress {
		lines = append(lines,
			fmt.Sprintf(`  Push "$OUTDIR\%s"`, name),
			`  Push "$OUTDIR"`,
			"  Call ExtractArchive",
		)
	}
	return lines
}

// remoteFileName extracts the target file name from a download URL.
func remoteFileName(url string) string {
	trimmed := url
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	name := path.Base(trimmed)
	if name == "." || name == "/" || name == "" {
		return "download.bin"
	}
	return name
}

// ---------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------

// emitRegistryWrites emits the custom registry entries, switching the
// registry view only when consecutive entries differ.
func emitRegistryWrites(ctx *BuildContext, entries []config.RegistryEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	var lines []string
	currentView := ""
	for _, e := range entries {
		view := registryEntryView(ctx, e)
		if view != currentView {
			lines = append(lines, fmt.Sprintf("  SetRegView %s", view))
			currentView = view
		}
		key := ctx.Resolve(e.Key)
		value := ctx.Resolve(e.Value)
		switch e.Type {
		case "dword":
			lines = append(lines, fmt.Sprintf(`  WriteRegDWORD %s "%s" "%s" %s`, e.Hive, key, e.Name, value))
		case "expand":
			lines = append(lines, fmt.Sprintf(`  WriteRegExpandStr %s "%s" "%s" "%s"`, e.Hive, key, e.Name, escapeNSIS(value)))
		default:
			lines = append(lines, fmt.Sprintf(`  WriteRegStr %s "%s" "%s" "%s"`, e.Hive, key, e.Name, escapeNSIS(value)))
		}
	}
	lines = append(lines, "  SetRegView lastused")
	return lines
}

// emitRegistryRemoves deletes custom registry values and cleans up the
// keys they touched when nothing else remains in them.
func emitRegistryRemoves(ctx *BuildContext, entries []config.RegistryEntry) []string {
	if len(entries) == 0 {
		return nil
	}
	var lines []string
	currentView := ""
	type hiveKey struct{ hive, key string }
	var touched []hiveKey
	seen := make(map[hiveKey]bool)
	for _, e := range entries {
		view := registryEntryView(ctx, e)
		if view != currentView {
			lines = append(lines, fmt.Sprintf("  SetRegView %s", view))
			currentView = view
		}
		key := ctx.Resolve(e.Key)
		lines = append(lines, fmt.Sprintf(`  DeleteRegValue %s "%s" "%s"`, e.Hive, key, e.Name))
		hk := hiveKey{e.Hive, key}
		if !seen[hk] {
			seen[hk] = true
			touched = append(touched, hk)
		}
	}
	for _, hk := range touched {
		lines = append(lines, fmt.Sprintf(`  DeleteRegKey /ifempty %s "%s"`, hk.hive, hk.key))
	}
	lines = append(lines, "  SetRegView lastused")
	return lines
}

func registryEntryView(ctx *BuildContext, e config.RegistryEntry) string {
	if e.View == "32" || e.View == "64" {
		return e.View
	}
	return ctx.EffectiveRegView()
}

// ---------------------------------------------------------------------
// Environment variables
// ---------------------------------------------------------------------

// emitEnvWrites emits environment variable writes. PATH-style appends
// are guarded by _StrContains so repeated installs never duplicate the
// entry. Labels embed the prefix so install and package sections can
// both emit appends.
func emitEnvWrites(ctx *BuildContext, envs []config.EnvVarEntry, labelPrefix string) []string {
	var lines []string
	for i, env := range envs {
		hive, key := envHiveKey(env)
		value := ctx.Resolve(env.Value)
		if env.Append {
			skip := fmt.Sprintf("_skip_path_append_%s_%d", labelPrefix, i)
			lines = append(lines,
				fmt.Sprintf(`  ReadRegStr $0 %s "%s" "%s"`, hive, key, env.Name),
				fmt.Sprintf(`  StrCpy $1 "%s"`, escapeNSIS(value)),
				"  Push $0",
				"  Push $1",
				"  Call _StrContains",
				fmt.Sprintf(`  StrCmp $R9 "1" %s`, skip),
				`  StrCmp $0 "" 0 +3`,
				`  StrCpy $0 "$1"`,
				"  Goto +2",
				`  StrCpy $0 "$0;$1"`,
				fmt.Sprintf(`  WriteRegExpandStr %s "%s" "%s" $0`, hive, key, env.Name),
				skip+":",
			)
		} else {
			lines = append(lines,
				fmt.Sprintf(`  WriteRegExpandStr %s "%s" "%s" "%s"`, hive, key, env.Name, escapeNSIS(value)))
		}
		lines = append(lines, envBroadcast())
	}
	return lines
}

// emitEnvRemoves reverses emitEnvWrites on uninstall.
func emitEnvRemoves(ctx *BuildContext, envs []config.EnvVarEntry) []string {
	var lines []string
	for _, env := range envs {
		if !env.RemoveOnUninstall {
			continue
		}
		hive, key := envHiveKey(env)
		if env.Append {
			lines = append(lines,
				fmt.Sprintf(`  ReadRegStr $0 %s "%s" "%s"`, hive, key, env.Name),
				fmt.Sprintf(`  StrCpy $1 "%s"`, escapeNSIS(ctx.Resolve(env.Value))),
				"  Call un._RemovePathEntry",
				fmt.Sprintf(`  WriteRegExpandStr %s "%s" "%s" $0`, hive, key, env.Name),
			)
		} else {
			lines = append(lines, fmt.Sprintf(`  DeleteRegValue %s "%s" "%s"`, hive, key, env.Name))
		}
		lines = append(lines, envBroadcast())
	}
	return lines
}

func envBroadcast() string {
	return `  SendMessage ${HWND_BROADCAST} ${WM_WININICHANGE} 0 "STR:Environment" /TIMEOUT=500`
}

// ---------------------------------------------------------------------
// Shortcuts
// ---------------------------------------------------------------------

// emitShortcutCreate emits one shortcut, optionally guarded by its
// $CREATE_SC_<i> toggle set on the options page.
func emitShortcutCreate(ctx *BuildContext, sc ShortcutEntry) []string {
	var lines []string
	if sc.Config.Optional {
		lines = append(lines,
			fmt.Sprintf(`  StrCmp $CREATE_SC_%d "1" SC_Create_%d`, sc.Index, sc.Index),
			fmt.Sprintf("  Goto SC_Skip_%d", sc.Index),
			fmt.Sprintf("SC_Create_%d:", sc.Index),
		)
	}
	base := shortcutBaseDir(ctx, sc)
	if sc.Type != shortcutDesktop {
		lines = append(lines, fmt.Sprintf(`  CreateDirectory "%s"`, base))
	}
	if sc.Config.Workdir != "" {
		lines = append(lines, "  ; WARNING: shortcut workdir is not supported and was ignored")
	}
	target := ctx.resolveShortcutPath(sc.Config.Target)
	icon := ""
	if sc.Config.Icon != "" {
		icon = ctx.resolveShortcutPath(sc.Config.Icon)
	}
	lines = append(lines, fmt.Sprintf(`  CreateShortCut "%s" "%s" "%s" "%s"`,
		shortcutLinkPath(ctx, sc), target, escapeNSIS(ctx.Resolve(sc.Config.Args)), icon))
	if sc.Type == shortcutStartMenu && sc.Section == "global" {
		lines = append(lines, fmt.Sprintf(`  CreateShortCut "%s\Uninstall.lnk" "$INSTDIR\Uninstall.exe"`,
			strings.TrimRight(base, `\`)))
	}
	if sc.Config.Optional {
		lines = append(lines, fmt.Sprintf("SC_Skip_%d:", sc.Index))
	}
	return lines
}

// emitShortcutRemoves deletes every shortcut unconditionally, then the
// Uninstall.lnk entries and the now-empty start menu folders.
func emitShortcutRemoves(ctx *BuildContext, shortcuts []ShortcutEntry) []string {
	var lines []string
	var startMenuDirs []string
	seenDir := make(map[string]bool)
	for _, sc := range shortcuts {
		lines = append(lines, fmt.Sprintf(`  Delete "%s"`, shortcutLinkPath(ctx, sc)))
		if sc.Type == shortcutStartMenu {
			dir := strings.TrimRight(shortcutBaseDir(ctx, sc), `\`)
			if !seenDir[dir] {
				seenDir[dir] = true
				startMenuDirs = append(startMenuDirs, dir)
			}
		}
	}
	for _, dir := range startMenuDirs {
		lines = append(lines, fmt.Sprintf(`  Delete "%s\Uninstall.lnk"`, dir))
	}
	for _, dir := range startMenuDirs {
		lines = append(lines, fmt.Sprintf(`  RMDir "%s"`, dir))
	}
	return lines
}

// ---------------------------------------------------------------------
// File associations
// ---------------------------------------------------------------------

// emitAssociationWrite registers one file extension. A translated
// description becomes a FA_DESC_<i> LangString; the reorder pass moves
// the LangString lines next to the language table.
func emitAssociationWrite(ctx *BuildContext, ae assocEntry) []string {
	fa := ae.FA
	hive, prefix := faHivePrefix(*fa)
	progID := fa.ProgID
	if progID == "" {
		progID = "${APP_NAME}" + fa.Extension
	}
	var lines []string

	description := ""
	if len(fa.Description.Translations) > 0 {
		if len(ctx.Config.Languages) == 0 {
			ctx.recordErr(fmt.Errorf("file association %s: translated description requires a languages list", fa.Extension))
		}
		description = fmt.Sprintf("$(FA_DESC_%d)", ae.Index)
		for _, lc := range ctx.Config.Languages {
			mapping := languages.NSISForOrFallback(lc.Name)
			text := ctx.langTextFor(fa.Description, lc.Name, "file association description")
			lines = append(lines, fmt.Sprintf(`LangString FA_DESC_%d ${%s} "%s"`,
				ae.Index, mapping.LangConstant, EscapeLangString(ctx.Resolve(text))))
		}
	} else {
		description = escapeNSIS(ctx.Resolve(fa.Description.Text))
	}

	app := ctx.resolveShortcutPath(fa.Application)
	lines = append(lines,
		fmt.Sprintf(`  WriteRegStr %s "%s%s" "" "%s"`, hive, prefix, fa.Extension, progID),
		fmt.Sprintf(`  WriteRegStr %s "%s%s" "" "%s"`, hive, prefix, progID, description),
	)
	icon := fa.DefaultIcon
	if icon == "" {
		icon = app + ",0"
	} else {
		icon = ctx.resolveShortcutPath(icon)
	}
	lines = append(lines,
		fmt.Sprintf(`  WriteRegStr %s "%s%s\DefaultIcon" "" "%s"`, hive, prefix, progID, icon),
		fmt.Sprintf(`  WriteRegStr %s "%s%s\shell\open\command" "" "$\"%s$\" $\"%%1$\""`, hive, prefix, progID, app),
	)
	for _, verb := range sortedVerbKeys(fa.Verbs) {
		lines = append(lines, fmt.Sprintf(`  WriteRegStr %s "%s%s\shell\%s\command" "" "%s"`,
			hive, prefix, progID, verb, escapeNSIS(ctx.Resolve(fa.Verbs[verb]))))
	}
	return lines
}

// emitAssociationRemoves unregisters the extension and its ProgID.
func emitAssociationRemoves(ctx *BuildContext, fas []config.FileAssociation) []string {
	var lines []string
	for _, fa := range fas {
		hive, prefix := faHivePrefix(fa)
		progID := fa.ProgID
		if progID == "" {
			progID = "${APP_NAME}" + fa.Extension
		}
		lines = append(lines,
			fmt.Sprintf(`  DeleteRegKey %s "%s%s"`, hive, prefix, fa.Extension),
			fmt.Sprintf(`  DeleteRegKey %s "%s%s"`, hive, prefix, progID),
		)
	}
	return lines
}

func sortedVerbKeys(verbs map[string]string) []string {
	keys := make([]string, 0, len(verbs))
	for k := range verbs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---------------------------------------------------------------------
// Uninstall
// ---------------------------------------------------------------------

// generateUninstallSection reverses everything the install and package
// sections created.
func generateUninstallSection(ctx *BuildContext, shortcuts []ShortcutEntry) []string {
	cfg := ctx.Config
	lines := commentBanner("Uninstall")
	lines = append(lines, `Section "Uninstall"`)

	// Top-level files, newest first.
	for i := len(cfg.Files) - 1; i >= 0; i-- {
		lines = append(lines, emitFileRemove(ctx, cfg.Files[i])...)
	}

	// Package payloads.
	for _, pkg := range FlattenLeaves(cfg.Packages) {
		for _, src := range pkg.Sources {
			lines = append(lines, emitSourceRemove(ctx, src)...)
		}
	}

	lines = append(lines, `  Delete "$INSTDIR\Uninstall.exe"`)
	lines = append(lines, `  RMDir "$INSTDIR"`)

	lines = append(lines, emitShortcutRemoves(ctx, shortcuts)...)

	view := ctx.EffectiveRegView()
	lines = append(lines,
		fmt.Sprintf("  SetRegView %s", view),
		`  DeleteRegKey HKLM "${REG_KEY}"`,
		fmt.Sprintf(`  DeleteRegKey HKLM "%s"`, arpKey),
		"  SetRegView lastused",
	)

	lines = append(lines, emitRegistryRemoves(ctx, cfg.Install.RegistryEntries)...)
	lines = append(lines, emitAssociationRemoves(ctx, cfg.Install.FileAssociations)...)
	lines = append(lines, emitEnvRemoves(ctx, cfg.Install.EnvVars)...)

	// Per-package state.
	for _, pkg := range FlattenLeaves(cfg.Packages) {
		lines = append(lines, emitRegistryRemoves(ctx, pkg.RegistryEntries)...)
		lines = append(lines, emitAssociationRemoves(ctx, pkg.FileAssociations)...)
		lines = append(lines, emitEnvRemoves(ctx, pkg.EnvVars)...)
	}

	lines = append(lines, "SectionEnd")
	return lines
}

// emitFileRemove reverses one top-level file entry.
func emitFileRemove(ctx *BuildContext, f config.FileEntry) []string {
	dest := ctx.ResolvePath(f.Destination)
	if f.IsRemote() {
		return []string{fmt.Sprintf(`  Delete "%s\%s"`, dest, remoteFileName(ctx.Resolve(f.Source)))}
	}
	return emitSourceRemove(ctx, config.SourceSpec{Source: f.Source, Destination: f.Destination})
}

// emitSourceRemove reverses one source spec: full trees are removed
// recursively, single files deleted by basename.
func emitSourceRemove(ctx *BuildContext, src config.SourceSpec) []string {
	dest := ctx.ResolvePath(src.Destination)
	if useRecursive(src.Source) {
		if dir := globRootDir(src.Source); dir != "" {
			return []string{fmt.Sprintf(`  RMDir /r "%s\%s"`, dest, dir)}
		}
		return []string{fmt.Sprintf(`  RMDir /r "%s"`, dest)}
	}
	base := path.Base(strings.ReplaceAll(src.Source, `\`, "/"))
	return []string{fmt.Sprintf(`  Delete "%s\%s"`, dest, base)}
}

// globRootDir returns the directory name a recursive glob copies into
// the destination, or "" when the glob matches the source root itself.
func globRootDir(source string) string {
	normalized := strings.ReplaceAll(source, `\`, "/")
	trimmed := strings.TrimSuffix(normalized, "/**")
	if trimmed == normalized || trimmed == "" || strings.Contains(trimmed, "*") {
		return ""
	}
	return path.Base(trimmed)
}
