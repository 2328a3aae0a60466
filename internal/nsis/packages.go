package nsis

import (
	"fmt"
	"strings"

	"github.com/nsipack/nsipack/internal/config"
	"github.com/nsipack/nsipack/internal/languages"
)

// generatePackageSections emits the component tree: one Section per
// leaf, SectionGroup wrappers for groups. Section IDs repeat the
// CollectSections walk so every other generator agrees on them.
func generatePackageSections(ctx *BuildContext, shortcuts []ShortcutEntry, assocs []assocEntry) []string {
	if len(ctx.Config.Packages) == 0 {
		return nil
	}
	lines := commentBanner("Components")
	body, _, _ := emitPackageLevel(ctx, ctx.Config.Packages, 0, 0, shortcuts, assocs)
	return append(lines, body...)
}

func emitPackageLevel(ctx *BuildContext, pkgs []config.PackageEntry, pkgIdx, groupIdx int, shortcuts []ShortcutEntry, assocs []assocEntry) ([]string, int, int) {
	var lines []string
	for i := range pkgs {
		pkg := &pkgs[i]
		if pkg.IsGroup() {
			if pkg.Description.IsEmpty() {
				lines = append(lines, fmt.Sprintf(`SectionGroup "%s"`, escapeNSIS(pkg.Name)))
			} else {
				lines = append(lines, fmt.Sprintf(`SectionGroup /e "%s" SEC_GROUP_%d`, escapeNSIS(pkg.Name), groupIdx))
				groupIdx++
			}
			var children []string
			children, pkgIdx, groupIdx = emitPackageLevel(ctx, pkg.Children, pkgIdx, groupIdx, shortcuts, assocs)
			lines = append(lines, children...)
			lines = append(lines, "SectionGroupEnd")
		} else {
			lines = append(lines, emitLeafSection(ctx, pkg, pkgIdx, shortcuts, assocs)...)
			pkgIdx++
		}
	}
	return lines, pkgIdx, groupIdx
}

func emitLeafSection(ctx *BuildContext, pkg *config.PackageEntry, idx int, shortcuts []ShortcutEntry, assocs []assocEntry) []string {
	sectionID := fmt.Sprintf("SEC_PKG_%d", idx)
	lines := []string{fmt.Sprintf(`Section "%s" %s`, escapeNSIS(pkg.Name), sectionID)}
	lines = append(lines, ctx.logWrite("Installing component "+pkg.Name)...)

	currentOutPath := ""
	for _, src := range pkg.Sources {
		dest := ctx.ResolvePath(src.Destination)
		if dest != currentOutPath {
			lines = append(lines, fmt.Sprintf(`  SetOutPath "%s"`, dest))
			currentOutPath = dest
		}
		lines = append(lines, fileLine(ctx, src.Source))
	}

	for _, cmd := range pkg.PostInstall {
		lines = append(lines, fmt.Sprintf(`  ExecWait "%s"`, escapeNSIS(ctx.Resolve(cmd))))
	}

	lines = append(lines, emitRegistryWrites(ctx, pkg.RegistryEntries)...)
	lines = append(lines, emitEnvWrites(ctx, pkg.EnvVars, fmt.Sprintf("pkg%d", idx))...)
	for _, sc := range shortcuts {
		if sc.Section == sectionID {
			lines = append(lines, emitShortcutCreate(ctx, sc)...)
		}
	}
	for _, ae := range assocs {
		if ae.Section == sectionID {
			lines = append(lines, emitAssociationWrite(ctx, ae)...)
		}
	}
	lines = append(lines, "SectionEnd")
	return lines
}

// generatePackageDescriptions emits the component-page description
// texts. Described groups and leaves share one DESC counter in walk
// order.
func generatePackageDescriptions(ctx *BuildContext) []string {
	refs := CollectSections(ctx.Config.Packages)
	var described []SectionRef
	for _, ref := range refs {
		if !ref.Pkg.Description.IsEmpty() {
			described = append(described, ref)
		}
	}
	if len(described) == 0 {
		return nil
	}

	var lines []string
	if len(ctx.Config.Languages) == 0 {
		for i, ref := range described {
			if len(ref.Pkg.Description.Translations) > 0 {
				ctx.recordErr(fmt.Errorf("package %s: translated description requires a languages list", ref.Pkg.Name))
			}
			text := EscapeLangString(ctx.Resolve(ref.Pkg.Description.Text))
			lines = append(lines, fmt.Sprintf(`LangString DESC_%d ${LANG_ENGLISH} "%s"`, i, text))
		}
	} else {
		for _, lc := range ctx.Config.Languages {
			mapping := languages.NSISForOrFallback(lc.Name)
			for i, ref := range described {
				text := ctx.langTextFor(ref.Pkg.Description, lc.Name, "description of package "+ref.Pkg.Name)
				lines = append(lines, fmt.Sprintf(`LangString DESC_%d ${%s} "%s"`,
					i, mapping.LangConstant, EscapeLangString(ctx.Resolve(text))))
			}
		}
	}

	lines = append(lines, "!insertmacro MUI_FUNCTION_DESCRIPTION_BEGIN")
	for i, ref := range described {
		lines = append(lines, fmt.Sprintf("  !insertmacro MUI_DESCRIPTION_TEXT ${%s} $(DESC_%d)", ref.ID, i))
	}
	lines = append(lines, "!insertmacro MUI_FUNCTION_DESCRIPTION_END")
	return lines
}

// generateSigning emits the post-build signing step.
func generateSigning(ctx *BuildContext) []string {
	signing := ctx.Config.Signing
	if signing == nil || !signing.Enabled {
		return nil
	}
	return []string{
		"",
		"; Sign the produced installer. Runs on the build machine after",
		"; makensis finishes, with %1 bound to the output file.",
		fmt.Sprintf(`!finalize 'signtool sign /f "%s" /p "%s" /t "%s" "%%1"'`,
			ctx.ResolvePath(signing.Certificate), signing.Password, signing.TimestampURL),
	}
}

// generateUpdateSection writes the auto-update metadata consumed by the
// application at run time.
func generateUpdateSection(ctx *BuildContext) []string {
	update := ctx.Config.Update
	if update == nil || !update.Enabled {
		return nil
	}
	key := ctx.Resolve(update.RegistryKey)
	boolStr := func(b bool) string {
		if b {
			return "true"
		}
		return "false"
	}
	return []string{
		"",
		fmt.Sprintf(`!define UPDATE_REG_KEY "%s"`, key),
		"",
		`Section "-Update Configuration"`,
		fmt.Sprintf(`  WriteRegStr %s "${UPDATE_REG_KEY}" "UpdateURL" "%s"`, update.RegistryHive, ctx.Resolve(update.UpdateURL)),
		fmt.Sprintf(`  WriteRegStr %s "${UPDATE_REG_KEY}" "DownloadURL" "%s"`, update.RegistryHive, ctx.Resolve(update.DownloadURL)),
		fmt.Sprintf(`  WriteRegStr %s "${UPDATE_REG_KEY}" "CheckOnStartup" "%s"`, update.RegistryHive, boolStr(update.CheckOnStartup)),
		fmt.Sprintf(`  WriteRegStr %s "${UPDATE_REG_KEY}" "BackupOnUpgrade" "%s"`, update.RegistryHive, boolStr(update.BackupOnUpgrade)),
		fmt.Sprintf(`  WriteRegStr %s "${UPDATE_REG_KEY}" "RepairEnabled" "%s"`, update.RegistryHive, boolStr(update.RepairEnabled)),
		"SectionEnd",
	}
}

// generateOnInit emits .onInit: single-instance guard, optional
// signature verification, system requirement checks, language dialog,
// shortcut toggle defaults, section flags, and the existing-install
// check.
func generateOnInit(ctx *BuildContext, shortcuts []ShortcutEntry) []string {
	cfg := ctx.Config
	lines := commentBanner("Initialization")
	lines = append(lines, "Function .onInit")

	lines = append(lines,
		`  System::Call 'kernel32::CreateMutex(p 0, i 0, t "${APP_NAME}_InstallerMutex") p .r1 ?e'`,
		"  Pop $R0",
		`  StrCmp $R0 "0" +3`,
		fmt.Sprintf(`  MessageBox MB_OK|MB_ICONEXCLAMATION "%s"`, ctx.UIString("installer_running", "The installer is already running.")),
		"  Abort",
	)

	if cfg.Signing != nil && cfg.Signing.VerifySignature {
		lines = append(lines,
			`  nsExec::ExecToStack 'powershell -NoProfile -Command "if ((Get-AuthenticodeSignature -LiteralPath \"$EXEPATH\").Status -eq \"Valid\") { exit 0 } else { exit 1 }"'`,
			"  Pop $0",
			"  Pop $1",
			`  StrCmp $0 "0" +3`,
			fmt.Sprintf(`  MessageBox MB_OK|MB_ICONSTOP "%s"`, ctx.UIString("signature_failed", "Signature verification failed. Installation aborted.")),
			"  Abort",
		)
	}

	lines = append(lines, emitSystemRequirements(ctx)...)

	if len(cfg.Languages) > 1 {
		lines = append(lines, "  !insertmacro MUI_LANGDLL_DISPLAY")
	}

	if ctx.HasLogging() {
		lines = append(lines,
			"!ifdef NSIS_CONFIG_LOG",
			"  LogSet on",
			"!endif",
		)
	}

	for _, sc := range shortcuts {
		value := "1"
		if sc.Config.Optional && !sc.Config.Default {
			value = "0"
		}
		lines = append(lines, fmt.Sprintf(`  StrCpy $CREATE_SC_%d "%s"`, sc.Index, value))
	}

	for _, ref := range CollectSections(cfg.Packages) {
		if ref.IsGroup {
			continue
		}
		if !ref.Pkg.Optional {
			// SF_SELECTED|SF_RO keeps mandatory components checked.
			lines = append(lines, fmt.Sprintf("  SectionSetFlags ${%s} 17", ref.ID))
		} else if !ref.Pkg.Default {
			lines = append(lines, fmt.Sprintf("  SectionSetFlags ${%s} 0", ref.ID))
		}
	}

	lines = append(lines, emitExistingInstallCheck(ctx)...)
	lines = append(lines, "FunctionEnd")
	return lines
}

func emitSystemRequirements(ctx *BuildContext) []string {
	sr := ctx.Config.Install.SystemRequirements
	if sr == nil {
		return nil
	}
	var lines []string
	if sr.MinWindowsVersion != "" {
		lines = append(lines,
			fmt.Sprintf("  ${IfNot} %s", winVerGuard(sr.MinWindowsVersion)),
			fmt.Sprintf(`    MessageBox MB_OK|MB_ICONSTOP "%s"`,
				ctx.UIString("requires_windows", "Requires Windows "+sr.MinWindowsVersion+" or higher.")),
			"    Abort",
			"  ${EndIf}",
		)
	}
	if sr.MinFreeSpaceMB > 0 {
		lines = append(lines,
			`  ${GetRoot} "$INSTDIR" $0`,
			`  ${DriveSpace} "$0\" "/D=F /S=M" $1`,
			fmt.Sprintf("  IntCmp $1 %d _space_ok _space_fail _space_ok", sr.MinFreeSpaceMB),
			"_space_fail:",
			fmt.Sprintf(`  MessageBox MB_OK|MB_ICONSTOP "%s"`,
				ctx.UIString("not_enough_space", fmt.Sprintf("Not enough free disk space. Require at least %d MB.", sr.MinFreeSpaceMB))),
			"  Abort",
			"_space_ok:",
		)
	}
	if sr.MinRAMMB > 0 {
		lines = append(lines,
			"  System::Alloc 64",
			"  Pop $0",
			`  System::Call "*$0(i 64)"`,
			`  System::Call "kernel32::GlobalMemoryStatusEx(p r0)"`,
			`  System::Call "*$0(i, i, l .r1)"`,
			"  System::Free $0",
			"  System::Int64Op $1 / 1048576",
			"  Pop $1",
			fmt.Sprintf("  IntCmp $1 %d _mem_ok _mem_fail _mem_ok", sr.MinRAMMB),
			"_mem_fail:",
			fmt.Sprintf(`  MessageBox MB_OK|MB_ICONSTOP "%s"`,
				ctx.UIString("not_enough_memory", fmt.Sprintf("Not enough physical memory. Require at least %d MB.", sr.MinRAMMB))),
			"  Abort",
			"_mem_ok:",
		)
	}
	if sr.RequireAdmin {
		lines = append(lines,
			"  UserInfo::GetAccountType",
			"  Pop $0",
			`  StrCmp $0 "Admin" _admin_ok`,
			fmt.Sprintf(`  MessageBox MB_OK|MB_ICONSTOP "%s"`,
				ctx.UIString("need_admin", "This installer requires administrator privileges.")),
			"  Abort",
			"_admin_ok:",
		)
	}
	return lines
}

// winVerGuard maps a minimum version string to a WinVer.nsh test.
func winVerGuard(version string) string {
	switch strings.TrimSpace(version) {
	case "11":
		// WinVer.nsh has no AtLeastWin11; Windows 11 starts at build 22000.
		return "${AtLeastBuild} 22000"
	case "10":
		return "${AtLeastWin10}"
	case "8.1":
		return "${AtLeastWin8.1}"
	case "8":
		return "${AtLeastWin8}"
	case "7":
		return "${AtLeastWin7}"
	case "vista":
		return "${AtLeastWinVista}"
	default:
		return "${AtLeastWin" + version + "}"
	}
}

// generateOnInstSuccess logs which optional components were installed.
// Emitted only when logging is on; NSIS supplies the default otherwise.
func generateOnInstSuccess(ctx *BuildContext) []string {
	if !ctx.HasLogging() {
		return nil
	}
	lines := []string{"", "Function .onInstSuccess"}
	for i, pkg := range FlattenLeaves(ctx.Config.Packages) {
		if !pkg.Optional {
			continue
		}
		lines = append(lines,
			fmt.Sprintf("  SectionGetFlags ${SEC_PKG_%d} $0", i),
			"  IntOp $0 $0 & ${SF_SELECTED}",
			fmt.Sprintf(`  StrCmp $0 "0" _pkg_%d_skipped _pkg_%d_installed`, i, i),
			fmt.Sprintf("_pkg_%d_skipped:", i),
			fmt.Sprintf(`  !insertmacro LogWrite "Skipping component %s"`, escapeNSIS(pkg.Name)),
			fmt.Sprintf("  Goto _pkg_%d_done", i),
			fmt.Sprintf("_pkg_%d_installed:", i),
			fmt.Sprintf(`  !insertmacro LogWrite "Installed component %s"`, escapeNSIS(pkg.Name)),
			fmt.Sprintf("_pkg_%d_done:", i),
		)
	}
	lines = append(lines,
		`  !insertmacro LogWrite "Installation of ${APP_NAME} ${APP_VERSION} finished"`,
		"  !insertmacro LogClose",
		"FunctionEnd",
	)
	return lines
}

// generateUnOnInit emits the uninstaller single-instance guard.
func generateUnOnInit(ctx *BuildContext) []string {
	lines := []string{"", "Function un.onInit"}
	lines = append(lines,
		`  System::Call 'kernel32::CreateMutex(p 0, i 0, t "${APP_NAME}_UninstallerMutex") p .r1 ?e'`,
		"  Pop $R0",
		`  StrCmp $R0 "0" +3`,
		`  MessageBox MB_OK|MB_ICONEXCLAMATION "The uninstaller is already running."`,
		"  Abort",
	)
	if ctx.HasLogging() {
		lines = append(lines,
			"!ifdef NSIS_CONFIG_LOG",
			"  LogSet on",
			"!endif",
		)
	}
	lines = append(lines, "FunctionEnd")
	return lines
}
