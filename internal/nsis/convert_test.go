package nsis

import (
	"strings"
	"testing"

	"github.com/nsipack/nsipack/internal/config"
)

func baseConfig(overlay map[string]any) map[string]any {
	data := map[string]any{
		"app": map[string]any{
			"name":      "DemoApp",
			"version":   "2.1.0",
			"publisher": "Demo Corp",
		},
		"install": map[string]any{
			"install_dir": `$PROGRAMFILES64\DemoApp`,
		},
		"files": []any{
			map[string]any{"source": "bin/demo.exe", "destination": "$INSTDIR"},
		},
	}
	for key, value := range overlay {
		data[key] = value
	}
	return data
}

func convertScript(t *testing.T, data map[string]any) string {
	t.Helper()
	conv := NewConverter(config.FromMap(data), t.TempDir())
	script, err := conv.Convert()
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	return script
}

func TestConvertHeaderDefines(t *testing.T) {
	script := convertScript(t, baseConfig(nil))
	for _, want := range []string{
		`!define APP_NAME "DemoApp"`,
		`!define APP_VERSION "2.1.0"`,
		`!define APP_VERSION_VI "2.1.0.0"`,
		`!define APP_PUBLISHER "Demo Corp"`,
		`!define REG_KEY "Software\Demo Corp\DemoApp"`,
		"Unicode true",
		`OutFile "DemoApp-2.1.0-setup.exe"`,
		`InstallDir "$PROGRAMFILES64\DemoApp"`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertInstallSection(t *testing.T) {
	script := convertScript(t, baseConfig(nil))
	for _, want := range []string{
		`Section "-Install" SEC_INSTALL`,
		`SetOutPath "$INSTDIR"`,
		`File "bin\demo.exe"`,
		`WriteUninstaller "$INSTDIR\Uninstall.exe"`,
		`WriteRegStr HKLM "${REG_KEY}" "InstallPath" "$INSTDIR"`,
		`WriteRegStr HKLM "${REG_KEY}" "Version" "${APP_VERSION}"`,
		`"DisplayName" "${APP_NAME}"`,
		`"UninstallString" "$\"$INSTDIR\Uninstall.exe$\""`,
		`"QuietUninstallString" "$\"$INSTDIR\Uninstall.exe$\" /S"`,
		`"NoModify" 1`,
		`${GetSize} "$INSTDIR" "/S=0K" $0 $1 $2`,
		`IntFmt $0 "0x%08X" $0`,
		`"EstimatedSize" $0`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertUninstallSection(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"packages": map[string]any{
			"tools": map[string]any{"source": "tools/**", "destination": `$INSTDIR\tools`},
		},
	}))
	for _, want := range []string{
		`Section "Uninstall"`,
		`Delete "$INSTDIR\demo.exe"`,
		`RMDir /r "$INSTDIR\tools\tools"`,
		`Delete "$INSTDIR\Uninstall.exe"`,
		`RMDir "$INSTDIR"`,
		`DeleteRegKey HKLM "${REG_KEY}"`,
		`DeleteRegKey HKLM "Software\Microsoft\Windows\CurrentVersion\Uninstall\${APP_NAME}"`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertPackageSections(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"packages": map[string]any{
			"core": map[string]any{
				"source":      "core/**",
				"description": "Core files",
			},
			"extras": map[string]any{
				"description": "Optional extras",
				"children": map[string]any{
					"docs": map[string]any{"source": "docs/**", "optional": true, "default": false},
				},
			},
		},
	}))
	for _, want := range []string{
		`Section "core" SEC_PKG_0`,
		`SectionGroup /e "extras" SEC_GROUP_0`,
		`Section "docs" SEC_PKG_1`,
		"SectionGroupEnd",
		`LangString DESC_0 ${LANG_ENGLISH} "Core files"`,
		`LangString DESC_1 ${LANG_ENGLISH} "Optional extras"`,
		"!insertmacro MUI_FUNCTION_DESCRIPTION_BEGIN",
		"!insertmacro MUI_DESCRIPTION_TEXT ${SEC_PKG_0} $(DESC_0)",
		"!insertmacro MUI_DESCRIPTION_TEXT ${SEC_GROUP_0} $(DESC_1)",
		"!insertmacro MUI_FUNCTION_DESCRIPTION_END",
		"  SectionSetFlags ${SEC_PKG_0} 17",
		"  SectionSetFlags ${SEC_PKG_1} 0",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertAbortModeEmitsNoUninstallBranch(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"install": map[string]any{
			"install_dir":      `$PROGRAMFILES64\DemoApp`,
			"existing_install": map[string]any{"mode": "abort"},
		},
	}))
	for _, want := range []string{
		`ReadRegStr $R0 HKLM "${REG_KEY}" "InstallPath"`,
		"_ei_cancel:",
		"_ei_done:",
		"Goto _ei_cancel",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
	if strings.Contains(script, "_ei_do_uninstall") {
		t.Error("abort mode must not emit an uninstall branch")
	}
	if strings.Contains(script, "ExecWait '\"$R1\\Uninstall.exe\"") {
		t.Error("abort mode must not run the previous uninstaller")
	}
}

func TestConvertUnboundedWaitLoop(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"install": map[string]any{
			"install_dir": `$PROGRAMFILES64\DemoApp`,
			"existing_install": map[string]any{
				"mode":              "auto_uninstall",
				"uninstall_wait_ms": -1,
			},
		},
	}))
	for _, want := range []string{
		"_ei_do_uninstall:",
		"_ei_wait_continue:",
		"  Sleep 500",
		"  IntOp $R3 $R3 + 500",
		"  Goto _ei_wait_continue",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
	if strings.Contains(script, "IntCmp $R3") {
		t.Error("infinite wait must not bound the loop with IntCmp")
	}
}

func TestConvertTimedWaitLoop(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"install": map[string]any{
			"install_dir": `$PROGRAMFILES64\DemoApp`,
			"existing_install": map[string]any{
				"mode":              "auto_uninstall",
				"uninstall_wait_ms": 30000,
			},
		},
	}))
	for _, want := range []string{
		"IntCmp $R3 30000 _ei_wait_done _ei_wait_continue _ei_wait_done",
		"_ei_wait_done:",
		"MessageBox MB_RETRYCANCEL|MB_ICONEXCLAMATION",
		"IDRETRY _ei_do_uninstall",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertAllowMultipleMovesCheckToDirLeave(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"install": map[string]any{
			"install_dir": `$PROGRAMFILES64\DemoApp`,
			"existing_install": map[string]any{
				"mode":           "prompt_uninstall",
				"allow_multiple": true,
			},
		},
	}))
	for _, want := range []string{
		"!define MUI_PAGE_CUSTOMFUNCTION_LEAVE ExistingInstall_DirLeave",
		"Function ExistingInstall_DirLeave",
		"_eid_done:",
		"_eid_do_uninstall:",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
	if strings.Contains(script, "_ei_has_uninst") {
		t.Error(".onInit must defer to the directory page when multiple installs are allowed")
	}
}

func TestConvertLanguages(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"languages": []any{
			"English",
			map[string]any{
				"name": "SimplifiedChinese",
				"strings": map[string]any{
					"installer_running": "安装程序已经在运行了。",
				},
			},
		},
	}))
	for _, want := range []string{
		`!insertmacro MUI_LANGUAGE "English"`,
		`!insertmacro MUI_LANGUAGE "SimpChinese"`,
		`LangString INSTALLER_RUNNING ${LANG_ENGLISH} "The installer is already running."`,
		`LangString INSTALLER_RUNNING ${LANG_SIMPCHINESE} "安装程序已经在运行了。"`,
		"!insertmacro MUI_LANGDLL_DISPLAY",
		`MessageBox MB_OK|MB_ICONEXCLAMATION "$(INSTALLER_RUNNING)"`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertReorderPutsLanguagesAfterPages(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"languages": []any{"English", "German"},
	}))
	lastPage := strings.LastIndex(script, "!insertmacro MUI_UNPAGE_INSTFILES")
	firstLanguage := strings.Index(script, "!insertmacro MUI_LANGUAGE")
	firstLangString := strings.Index(script, "LangString ")
	if lastPage < 0 || firstLanguage < 0 || firstLangString < 0 {
		t.Fatal("expected pages, language inserts, and LangStrings in script")
	}
	if firstLanguage < lastPage {
		t.Error("MUI_LANGUAGE must come after the last page macro")
	}
	if firstLangString < firstLanguage {
		t.Error("LangStrings must come after the MUI_LANGUAGE inserts")
	}
}

func TestConvertFinishPageCleanup(t *testing.T) {
	t.Run("without launch target", func(t *testing.T) {
		script := convertScript(t, baseConfig(nil))
		if strings.Contains(script, "!define MUI_FINISHPAGE_RUN") {
			t.Error("finish-page run defines must be dropped when no launch target is set")
		}
	})
	t.Run("with launch target", func(t *testing.T) {
		script := convertScript(t, baseConfig(map[string]any{
			"install": map[string]any{
				"install_dir":      `$PROGRAMFILES64\DemoApp`,
				"launch_on_finish": "bin/demo.exe",
			},
		}))
		if !strings.Contains(script, `!define MUI_FINISHPAGE_RUN "$INSTDIR\bin\demo.exe"`) {
			t.Error("missing finish-page run define")
		}
	})
}

func TestConvertRemoteFile(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"files": []any{
			map[string]any{
				"source":         "https://example.com/payload/runtime.zip",
				"destination":    `$INSTDIR\runtime`,
				"checksum_type":  "sha256",
				"checksum_value": "abc123",
				"decompress":     true,
			},
		},
	}))
	for _, want := range []string{
		`!include "inetc.nsh"`,
		`inetc::get /SILENT "https://example.com/payload/runtime.zip" "$OUTDIR\runtime.zip" /END`,
		`StrCmp $0 "OK" +3`,
		`Push "SHA256"`,
		`Push "abc123"`,
		"Call VerifyChecksum",
		"Call ExtractArchive",
		"Function VerifyChecksum",
		"Function ExtractArchive",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertPathAppend(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"install": map[string]any{
			"install_dir": `$PROGRAMFILES64\DemoApp`,
			"env_vars": []any{
				map[string]any{"name": "PATH", "value": `$INSTDIR\bin`, "append": true},
			},
		},
	}))
	for _, want := range []string{
		`ReadRegStr $0 HKLM "SYSTEM\CurrentControlSet\Control\Session Manager\Environment" "PATH"`,
		"Call _StrContains",
		`StrCmp $R9 "1" _skip_path_append_inst_0`,
		`StrCpy $0 "$0;$1"`,
		"_skip_path_append_inst_0:",
		`SendMessage ${HWND_BROADCAST} ${WM_WININICHANGE} 0 "STR:Environment" /TIMEOUT=500`,
		"Function _StrContains",
		"Function un._RemovePathEntry",
		"Call un._RemovePathEntry",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertSigningAndUpdate(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"signing": map[string]any{
			"enabled":     true,
			"certificate": "certs/demo.pfx",
			"password":    "secret",
		},
		"update": map[string]any{
			"enabled":           true,
			"update_url":        "https://example.com/update.json",
			"check_on_startup":  true,
			"backup_on_upgrade": false,
		},
	}))
	for _, want := range []string{
		`!finalize 'signtool sign /f "certs\demo.pfx" /p "secret" /t "http://timestamp.digicert.com" "%1"'`,
		`Section "-Update Configuration"`,
		`"UpdateURL" "https://example.com/update.json"`,
		`"CheckOnStartup" "true"`,
		`"BackupOnUpgrade" "false"`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertMissingTranslationFails(t *testing.T) {
	data := baseConfig(map[string]any{
		"languages": []any{"English", "German"},
		"packages": map[string]any{
			"core": map[string]any{
				"source": "core/**",
				"description": map[string]any{
					"English": "Core files",
				},
			},
		},
	})
	conv := NewConverter(config.FromMap(data), t.TempDir())
	if _, err := conv.Convert(); err == nil {
		t.Fatal("expected error for missing German description")
	}
}

func TestConvertTranslatedDescriptionWithoutLanguagesFails(t *testing.T) {
	data := baseConfig(map[string]any{
		"packages": map[string]any{
			"core": map[string]any{
				"source": "core/**",
				"description": map[string]any{
					"English": "Core files",
					"German":  "Kerndateien",
				},
			},
		},
	})
	conv := NewConverter(config.FromMap(data), t.TempDir())
	if _, err := conv.Convert(); err == nil {
		t.Fatal("expected error for translations without a languages list")
	}
}

func TestConvertLoggingHooks(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"logging": map[string]any{"enabled": true},
		"packages": map[string]any{
			"docs": map[string]any{"source": "docs/**", "optional": true},
		},
	}))
	for _, want := range []string{
		"!macro LogInit",
		"!macro LogWrite text",
		"!macro LogClose",
		"  !insertmacro LogInit",
		"Function .onInstSuccess",
		"SectionGetFlags ${SEC_PKG_0} $0",
		"IntOp $0 $0 & ${SF_SELECTED}",
		`!insertmacro LogWrite "Skipping component docs"`,
		"!insertmacro LogClose",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q", want)
		}
	}
}

func TestConvertFinalSubstitution(t *testing.T) {
	script := convertScript(t, baseConfig(map[string]any{
		"custom_includes": map[string]any{
			"header": []any{`; built for ${app.name} ${app.version}`},
		},
	}))
	if !strings.Contains(script, "; built for DemoApp 2.1.0") {
		t.Error("config references must be resolved in the final pass")
	}
	if !strings.Contains(script, "${APP_NAME}") {
		t.Error("NSIS defines must survive the final substitution")
	}
}

func TestReorderLanguageDirectivesUnchangedWithoutPages(t *testing.T) {
	lines := []string{
		`LangString FOO ${LANG_ENGLISH} "foo"`,
		"Section \"-Install\" SEC_INSTALL",
		"SectionEnd",
	}
	got := reorderLanguageDirectives(lines)
	if len(got) != len(lines) {
		t.Fatalf("got %d lines, want %d", len(got), len(lines))
	}
	for i := range lines {
		if got[i] != lines[i] {
			t.Errorf("line %d changed: %q -> %q", i, lines[i], got[i])
		}
	}
}

func TestConverterOutputPath(t *testing.T) {
	conv := NewConverter(config.FromMap(baseConfig(nil)), "out")
	if got := conv.OutputPath(); !strings.HasSuffix(got, "DemoApp.nsi") {
		t.Errorf("OutputPath() = %q", got)
	}
}

func TestCheckDialect(t *testing.T) {
	if err := CheckDialect("nsis"); err != nil {
		t.Errorf("nsis dialect should be accepted: %v", err)
	}
	err := CheckDialect("wix")
	if err == nil {
		t.Fatal("wix dialect is reserved, not implemented")
	}
	if !strings.Contains(err.Error(), "nsis") {
		t.Errorf("error should list available dialects, got %q", err)
	}
}
