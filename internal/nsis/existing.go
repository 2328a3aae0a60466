package nsis

import (
	"fmt"

	"github.com/nsipack/nsipack/internal/config"
	"github.com/nsipack/nsipack/internal/languages"
)

// existingInstallOpts parameterizes the detection state machine so the
// .onInit and directory-page instantiations stay structurally identical.
type existingInstallOpts struct {
	prefix       string // label prefix, "_ei" or "_eid"
	fromRegistry bool   // detect via InstallPath registry value vs the chosen $INSTDIR
	waitLoop     bool   // poll for the uninstaller to disappear after ExecWait
}

// emitExistingInstallCheck is the .onInit instantiation. With
// AllowMultiple the check moves to the directory page, where the user
// has picked the target folder.
func emitExistingInstallCheck(ctx *BuildContext) []string {
	ei := ctx.Config.Install.ExistingInstall
	if ei.Mode == config.ModeNone {
		return nil
	}
	if ei.AllowMultiple {
		return []string{
			"  ; Multiple installations allowed. The existing-install check",
			"  ; runs in ExistingInstall_DirLeave once a folder is chosen.",
		}
	}
	return emitExistingInstallMachine(ctx, existingInstallOpts{
		prefix:       "_ei",
		fromRegistry: true,
		waitLoop:     true,
	})
}

// generateExistingInstallHelpers emits the version-probe helpers and,
// with AllowMultiple, the directory-page leave callback.
func generateExistingInstallHelpers(ctx *BuildContext) []string {
	ei := ctx.Config.Install.ExistingInstall
	if ei.Mode == config.ModeNone {
		return nil
	}
	var lines []string
	if existingInstallNeedsVersion(ei) || ei.AllowMultiple {
		lines = append(lines, emitDebugLogMacro(ctx)...)
	}
	if existingInstallNeedsVersion(ei) {
		lines = append(lines, emitGetFileProductVersion()...)
	}
	if ei.AllowMultiple {
		lines = append(lines, "", "Function ExistingInstall_DirLeave")
		lines = append(lines, emitExistingInstallMachine(ctx, existingInstallOpts{
			prefix:       "_eid",
			fromRegistry: false,
			waitLoop:     false,
		})...)
		lines = append(lines, "FunctionEnd")
	}
	return lines
}

func existingInstallNeedsVersion(ei config.ExistingInstallConfig) bool {
	if ei.Mode == config.ModeNone || ei.Mode == config.ModeOverwrite {
		return false
	}
	return ei.VersionCheck || ei.ShowVersionInfo
}

// emitExistingInstallMachine emits the detection and handling flow.
// Registers: $R0 registry value, $R1 existing install dir, $R2 existing
// version, $R3 wait clock, $R4 uninstaller exit code.
func emitExistingInstallMachine(ctx *BuildContext, o existingInstallOpts) []string {
	ei := ctx.Config.Install.ExistingInstall
	p := func(label string) string { return o.prefix + label }
	var lines []string

	view := ctx.EffectiveRegView()
	lines = append(lines, fmt.Sprintf("  SetRegView %s", view))
	if o.fromRegistry {
		lines = append(lines,
			`  ReadRegStr $R0 HKLM "${REG_KEY}" "InstallPath"`,
			fmt.Sprintf(`  StrCmp $R0 "" %s`, p("_done")),
			"  StrCpy $R1 $R0",
		)
	} else {
		// Directory page: only react when the chosen folder already
		// holds this application.
		lines = append(lines,
			"  StrCpy $R1 $INSTDIR",
			`  ReadRegStr $R0 HKLM "${REG_KEY}" "InstallPath"`,
			fmt.Sprintf(`  StrCmp $R0 $R1 0 %s`, p("_done")),
		)
	}
	lines = append(lines,
		fmt.Sprintf(`  IfFileExists "$R1\Uninstall.exe" %s %s`, p("_has_uninst"), p("_overwrite_only")),
		p("_has_uninst:"),
	)

	if existingInstallNeedsVersion(ei) {
		lines = append(lines, emitVersionRead(p)...)
	}
	if ei.VersionCheck {
		lines = append(lines,
			fmt.Sprintf("  StrCmp $R2 ${APP_VERSION} %s", p("_done")),
			fmt.Sprintf("  StrCmp $R2 ${APP_VERSION_VI} %s", p("_done")),
		)
	}

	switch ei.Mode {
	case config.ModePromptUninstall:
		lines = append(lines, emitPromptBranch(ctx, ei, p)...)
	case config.ModeAutoUninstall:
		lines = append(lines, fmt.Sprintf("  Goto %s", p("_do_uninstall")))
	case config.ModeAbort:
		lines = append(lines, emitAbortBranch(ctx, ei, p)...)
	case config.ModeOverwrite:
		lines = append(lines, fmt.Sprintf("  Goto %s", p("_done")))
	}

	if ei.Mode == config.ModePromptUninstall || ei.Mode == config.ModeAutoUninstall {
		lines = append(lines, emitUninstallBranch(ctx, ei, o, p)...)
	}

	lines = append(lines,
		p("_cancel:"),
		"  Abort",
		p("_overwrite_only:"),
		"  ; No uninstaller present, install over the existing files.",
		p("_done:"),
		"  SetRegView lastused",
	)
	return lines
}

// emitVersionRead fills $R2 with the existing version: the product
// version string from the uninstaller binary, falling back to its fixed
// DLL version, "" when neither is usable.
func emitVersionRead(p func(string) string) []string {
	return []string{
		`  Push "$R1\Uninstall.exe"`,
		"  Call _GetFileProductVersion",
		"  Pop $R2",
		fmt.Sprintf(`  StrCmp $R2 "" 0 %s`, p("_ver_done")),
		`  GetDLLVersion "$R1\Uninstall.exe" $0 $1`,
		"  IntOp $2 $0 / 0x00010000",
		"  IntOp $3 $0 & 0x0000FFFF",
		"  IntOp $4 $1 / 0x00010000",
		"  IntOp $5 $1 & 0x0000FFFF",
		`  StrCpy $R2 "$2.$3.$4.$5"`,
		fmt.Sprintf(`  StrCmp $R2 "0.0.0.0" 0 %s`, p("_ver_done")),
		`  StrCpy $R2 ""`,
		p("_ver_done:"),
	}
}

func emitPromptBranch(ctx *BuildContext, ei config.ExistingInstallConfig, p func(string) string) []string {
	promptNoVer := ctx.UIString("existing_install_prompt_no_ver",
		languages.GetString("existing_install_prompt_no_ver", "English", nil))
	if !ei.ShowVersionInfo {
		return []string{
			fmt.Sprintf(`  MessageBox MB_YESNO|MB_ICONQUESTION "%s" IDYES %s IDNO %s`,
				promptNoVer, p("_do_uninstall"), p("_cancel")),
		}
	}
	prompt := ctx.UIString("existing_install_prompt",
		languages.GetString("existing_install_prompt", "English", nil))
	return []string{
		fmt.Sprintf(`  StrCmp $R2 "" %s`, p("_prompt_no_ver")),
		fmt.Sprintf(`  MessageBox MB_YESNO|MB_ICONQUESTION "%s" IDYES %s IDNO %s`,
			prompt, p("_do_uninstall"), p("_cancel")),
		fmt.Sprintf("  Goto %s", p("_prompt_done")),
		p("_prompt_no_ver:"),
		fmt.Sprintf(`  MessageBox MB_YESNO|MB_ICONQUESTION "%s" IDYES %s IDNO %s`,
			promptNoVer, p("_do_uninstall"), p("_cancel")),
		p("_prompt_done:"),
	}
}

func emitAbortBranch(ctx *BuildContext, ei config.ExistingInstallConfig, p func(string) string) []string {
	abortNoVer := ctx.UIString("existing_install_abort_no_ver",
		languages.GetString("existing_install_abort_no_ver", "English", nil))
	if !ei.ShowVersionInfo {
		return []string{
			fmt.Sprintf(`  MessageBox MB_OK|MB_ICONSTOP "%s"`, abortNoVer),
			fmt.Sprintf("  Goto %s", p("_cancel")),
		}
	}
	abort := ctx.UIString("existing_install_abort",
		languages.GetString("existing_install_abort", "English", nil))
	return []string{
		fmt.Sprintf(`  StrCmp $R2 "" %s`, p("_abort_no_ver")),
		fmt.Sprintf(`  MessageBox MB_OK|MB_ICONSTOP "%s"`, abort),
		fmt.Sprintf("  Goto %s", p("_cancel")),
		p("_abort_no_ver:"),
		fmt.Sprintf(`  MessageBox MB_OK|MB_ICONSTOP "%s"`, abortNoVer),
		fmt.Sprintf("  Goto %s", p("_cancel")),
	}
}

// emitUninstallBranch runs the previous uninstaller and waits for it to
// finish. Silent uninstallers return before their copy exits, so the
// wait polls for the uninstaller binary to disappear.
func emitUninstallBranch(ctx *BuildContext, ei config.ExistingInstallConfig, o existingInstallOpts, p func(string) string) []string {
	args := ei.UninstallerArgs
	if args == "" {
		args = "/S"
	}
	retry := ctx.UIString("uninstall_not_finished",
		languages.GetString("uninstall_not_finished", "English", nil))

	lines := []string{
		p("_do_uninstall:"),
		fmt.Sprintf(`  ExecWait '"$R1\Uninstall.exe" %s' $R4`, args),
	}
	if !o.waitLoop {
		lines = append(lines,
			fmt.Sprintf(`  StrCmp $R4 "0" %s`, p("_done")),
			fmt.Sprintf(`  MessageBox MB_RETRYCANCEL|MB_ICONEXCLAMATION "%s" IDRETRY %s IDCANCEL %s`,
				retry, p("_do_uninstall"), p("_cancel")),
		)
		return lines
	}

	if ei.UninstallWaitMS < 0 {
		// Wait forever; the clock in $R3 is kept for debugging only.
		lines = append(lines,
			"  StrCpy $R3 0",
			p("_wait_continue:"),
			fmt.Sprintf(`  IfFileExists "$R1\Uninstall.exe" 0 %s`, p("_done")),
			"  Sleep 500",
			"  IntOp $R3 $R3 + 500",
			fmt.Sprintf("  Goto %s", p("_wait_continue")),
		)
		return lines
	}

	lines = append(lines,
		fmt.Sprintf(`  StrCmp $R4 "0" 0 %s`, p("_wait_done")),
		"  StrCpy $R3 0",
		p("_wait_continue:"),
		fmt.Sprintf(`  IfFileExists "$R1\Uninstall.exe" 0 %s`, p("_done")),
		"  Sleep 500",
		"  IntOp $R3 $R3 + 500",
		fmt.Sprintf("  IntCmp $R3 %d %s %s %s",
			ei.UninstallWaitMS, p("_wait_done"), p("_wait_continue"), p("_wait_done")),
		p("_wait_done:"),
		fmt.Sprintf(`  IfFileExists "$R1\Uninstall.exe" 0 %s`, p("_done")),
		fmt.Sprintf(`  MessageBox MB_RETRYCANCEL|MB_ICONEXCLAMATION "%s" IDRETRY %s`,
			retry, p("_do_uninstall")),
		fmt.Sprintf("  Goto %s", p("_cancel")),
	)
	return lines
}

// emitDebugLogMacro emits the _InstallerDebugLog macro: a real append
// to a temp file when logging is enabled, an empty stub otherwise, so
// call sites never need guarding.
func emitDebugLogMacro(ctx *BuildContext) []string {
	if !ctx.HasLogging() {
		return []string{
			"",
			"!macro _InstallerDebugLog text",
			"!macroend",
		}
	}
	return []string{
		"",
		"!macro _InstallerDebugLog text",
		`  FileOpen $R7 "$TEMP\${APP_NAME}-install-debug.log" a`,
		"  FileSeek $R7 0 END",
		"  ${GetTime} \"\" \"L\" $R8 $R8 $R8 $R8 $R8 $R8 $R8",
		`  FileWrite $R7 "${text}$\r$\n"`,
		"  FileClose $R7",
		"!macroend",
	}
}

// emitGetFileProductVersion emits the version-resource probe: query the
// ProductVersion string (then FileVersion) for the common language and
// codepage combinations.
func emitGetFileProductVersion() []string {
	return []string{
		"",
		"; Stack in: file path. Stack out: product version string, or \"\"",
		"; when the file carries no usable version resource.",
		"Function _GetFileProductVersion",
		"  Exch $0",
		"  Push $1",
		"  Push $2",
		"  Push $3",
		"  Push $5",
		"  Push $6",
		"  Push $9",
		`  StrCpy $9 ""`,
		"  System::Call 'version::GetFileVersionInfoSizeW(w r0, *i 0) i .r1'",
		"  IntCmp $1 0 _gfpv_exit _gfpv_exit 0",
		"  System::Alloc $1",
		"  Pop $2",
		"  System::Call 'version::GetFileVersionInfoW(w r0, i 0, i r1, p r2) i .r3'",
		"  IntCmp $3 0 _gfpv_free _gfpv_free 0",
		`  StrCpy $5 "040904B0"`,
		"_gfpv_try_lang:",
		"  System::Call 'version::VerQueryValueW(p r2, w \"\\StringFileInfo\\$5\\ProductVersion\", *p .r6, *i .r3) i .r3'",
		"  IntCmp $3 0 +2 +2 _gfpv_got",
		"  System::Call 'version::VerQueryValueW(p r2, w \"\\StringFileInfo\\$5\\FileVersion\", *p .r6, *i .r3) i .r3'",
		"  IntCmp $3 0 +2 +2 _gfpv_got",
		`  StrCmp $5 "040904B0" 0 +3`,
		`  StrCpy $5 "080404B0"`,
		"  Goto _gfpv_try_lang",
		`  StrCmp $5 "080404B0" 0 _gfpv_free`,
		`  StrCpy $5 "000004B0"`,
		"  Goto _gfpv_try_lang",
		"_gfpv_got:",
		"  System::Call '*$6(&w256 .r9)'",
		"_gfpv_free:",
		"  System::Free $2",
		"_gfpv_exit:",
		"  StrCpy $0 $9",
		"  Pop $9",
		"  Pop $6",
		"  Pop $5",
		"  Pop $3",
		"  Pop $2",
		"  Pop $1",
		"  Exch $0",
		"FunctionEnd",
	}
}
