package nsis

import (
	"fmt"
	"strings"
)

// generateLogMacros emits the LogInit/LogWrite/LogClose macro set used
// when install-time logging is enabled.
func generateLogMacros(ctx *BuildContext) []string {
	logPath := `$INSTDIR\install.log`
	if ctx.Config.Logging.Path != "" {
		logPath = ctx.ResolvePath(ctx.Config.Logging.Path)
	}
	return []string{
		"Var LOG_HANDLE",
		"",
		"!macro LogInit",
		fmt.Sprintf(`  FileOpen $LOG_HANDLE "%s" w`, logPath),
		"!macroend",
		"",
		"!macro LogWrite text",
		`  StrCmp $LOG_HANDLE "" +3`,
		"  ${GetTime} \"\" \"L\" $2 $1 $0 $6 $3 $4 $5",
		`  FileWrite $LOG_HANDLE "$0-$1-$2 $3:$4:$5 ${text}$\r$\n"`,
		"!macroend",
		"",
		"!macro LogClose",
		`  StrCmp $LOG_HANDLE "" +3`,
		"  FileClose $LOG_HANDLE",
		`  StrCpy $LOG_HANDLE ""`,
		"!macroend",
	}
}

// logWrite returns a LogWrite invocation, or nothing when logging is
// disabled, so section generators can log unconditionally.
func (ctx *BuildContext) logWrite(text string) []string {
	if !ctx.HasLogging() {
		return nil
	}
	return []string{fmt.Sprintf(`  !insertmacro LogWrite "%s"`, escapeNSIS(text))}
}

// needsPathHelpers reports whether any environment variable uses
// PATH-append semantics, at install level or inside a package.
func needsPathHelpers(ctx *BuildContext) bool {
	for _, env := range ctx.Config.Install.EnvVars {
		if env.Append {
			return true
		}
	}
	for _, pkg := range FlattenLeaves(ctx.Config.Packages) {
		for _, env := range pkg.EnvVars {
			if env.Append {
				return true
			}
		}
	}
	return false
}

// generatePathHelpers emits _StrContains for duplicate detection on
// install and un._RemovePathEntry for clean removal on uninstall.
func generatePathHelpers() []string {
	return []string{
		"; Sets $R9 to 1 when the needle (top of stack) occurs in the",
		"; haystack (second on stack).",
		"Function _StrContains",
		"  Exch $R1",
		"  Exch",
		"  Exch $R2",
		"  Push $R3",
		"  Push $R4",
		"  Push $R5",
		`  StrCpy $R9 "0"`,
		"  StrLen $R3 $R1",
		"  StrLen $R4 $R2",
		"  IntOp $R4 $R4 - $R3",
		"  IntCmp $R4 0 0 _sc_done 0",
		"  StrCpy $R5 0",
		"_sc_loop:",
		"  StrCpy $R0 $R2 $R3 $R5",
		"  StrCmp $R0 $R1 0 +3",
		`  StrCpy $R9 "1"`,
		"  Goto _sc_done",
		"  IntOp $R5 $R5 + 1",
		"  IntCmp $R5 $R4 _sc_loop _sc_loop _sc_done",
		"_sc_done:",
		"  Pop $R5",
		"  Pop $R4",
		"  Pop $R3",
		"  Pop $R2",
		"  Pop $R1",
		"FunctionEnd",
		"",
		"; Removes one semicolon-delimited entry ($1) from the PATH-style",
		"; value in $0 and leaves the result in $0.",
		"Function un._RemovePathEntry",
		"  Push $2",
		"  Push $3",
		"  Push $4",
		"  Push $5",
		`  StrCpy $2 ";$0;"`,
		`  StrCpy $3 ";$1;"`,
		"  StrLen $4 $3",
		"  StrCpy $5 0",
		"_rpe_scan:",
		"  StrCpy $R0 $2 $4 $5",
		"  StrCmp $R0 $3 _rpe_found",
		`  StrCmp $R0 "" _rpe_done`,
		"  IntOp $5 $5 + 1",
		"  Goto _rpe_scan",
		"_rpe_found:",
		"  StrCpy $R0 $2 $5",
		"  IntOp $5 $5 + $4",
		"  IntOp $5 $5 - 1",
		`  StrCpy $R1 $2 "" $5`,
		`  StrCpy $2 "$R0$R1"`,
		"_rpe_done:",
		"  StrLen $4 $2",
		"  IntOp $4 $4 - 2",
		"  StrCpy $0 $2 $4 1",
		"  Pop $5",
		"  Pop $4",
		"  Pop $3",
		"  Pop $2",
		"FunctionEnd",
	}
}

// needsDownloadHelpers reports whether any file entry downloads or
// verifies content at install time.
func needsDownloadHelpers(ctx *BuildContext) bool {
	for _, f := range ctx.Config.Files {
		if f.IsRemote() || f.ChecksumValue != "" || f.Decompress {
			return true
		}
	}
	return false
}

// generateDownloadHelpers emits VerifyChecksum and ExtractArchive. Both
// shell out to PowerShell so no extra plugin beyond inetc is needed.
func generateDownloadHelpers() []string {
	return []string{
		"; Stack in: file path, checksum type, expected value.",
		"; Stack out: 0 on match, 1 on mismatch or hashing failure.",
		"Function VerifyChecksum",
		"  Exch $2",
		"  Exch",
		"  Exch $1",
		"  Exch 2",
		"  Exch $0",
		"  nsExec::ExecToStack 'powershell -NoProfile -Command \"if ((Get-FileHash -Algorithm $1 -LiteralPath \\\"$0\\\").Hash -eq \\\"$2\\\") { exit 0 } else { exit 1 }\"'",
		"  Pop $3",
		"  Pop $4",
		`  StrCmp $3 "0" 0 +3`,
		`  StrCpy $3 "0"`,
		"  Goto +2",
		`  StrCpy $3 "1"`,
		"  Pop $0",
		"  Pop $2",
		"  Pop $1",
		"  Push $3",
		"FunctionEnd",
		"",
		"; Stack in: archive path, destination directory. Extracts the",
		"; archive and deletes it on success.",
		"Function ExtractArchive",
		"  Exch $1",
		"  Exch",
		"  Exch $0",
		"  nsExec::ExecToLog 'powershell -NoProfile -Command \"Expand-Archive -LiteralPath \\\"$0\\\" -DestinationPath \\\"$1\\\" -Force\"'",
		"  Pop $2",
		`  StrCmp $2 "0" 0 +2`,
		`  Delete "$0"`,
		"  Pop $0",
		"  Pop $1",
		"FunctionEnd",
	}
}

// commentBanner renders a section separator comment.
func commentBanner(title string) []string {
	return []string{
		"",
		"; " + strings.Repeat("-", 68),
		"; " + title,
		"; " + strings.Repeat("-", 68),
	}
}
