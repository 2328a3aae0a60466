package nsis

import (
	"reflect"
	"testing"

	"github.com/nsipack/nsipack/internal/config"
)

func samplePackages() []config.PackageEntry {
	return []config.PackageEntry{
		{Name: "core"},
		{
			Name:        "extras",
			Description: config.LangText{Text: "Extra tools"},
			Children: []config.PackageEntry{
				{Name: "cli", Description: config.LangText{Text: "Command line tools"}},
				{Name: "docs"},
			},
		},
		{
			Name:     "misc",
			Children: []config.PackageEntry{{Name: "samples"}},
		},
	}
}

func TestCollectSections(t *testing.T) {
	refs := CollectSections(samplePackages())

	want := []struct {
		name    string
		id      string
		isGroup bool
	}{
		{"core", "SEC_PKG_0", false},
		{"extras", "SEC_GROUP_0", true},
		{"cli", "SEC_PKG_1", false},
		{"docs", "SEC_PKG_2", false},
		{"samples", "SEC_PKG_3", false},
	}
	if len(refs) != len(want) {
		t.Fatalf("got %d refs, want %d", len(refs), len(want))
	}
	for i, w := range want {
		if refs[i].Pkg.Name != w.name || refs[i].ID != w.id || refs[i].IsGroup != w.isGroup {
			t.Errorf("refs[%d] = {%s %s %v}, want {%s %s %v}",
				i, refs[i].Pkg.Name, refs[i].ID, refs[i].IsGroup, w.name, w.id, w.isGroup)
		}
	}
}

func TestCollectSectionsIsDeterministic(t *testing.T) {
	pkgs := samplePackages()
	first := CollectSections(pkgs)
	second := CollectSections(pkgs)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("run 1 ref %d has ID %s, run 2 has %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestFlattenLeaves(t *testing.T) {
	leaves := FlattenLeaves(samplePackages())
	var names []string
	for _, pkg := range leaves {
		names = append(names, pkg.Name)
	}
	want := []string{"core", "cli", "docs", "samples"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
}

func TestCollectShortcutsOrder(t *testing.T) {
	cfg := config.FromMap(map[string]any{
		"app": map[string]any{"name": "DemoApp", "version": "1.0.0"},
		"install": map[string]any{
			"desktop_shortcut":    map[string]any{"target": "bin/demo.exe"},
			"start_menu_shortcut": map[string]any{"target": "bin/demo.exe"},
			"shortcuts": []any{
				map[string]any{"name": "Demo Docs", "target": "docs/index.html", "location": "startmenu"},
				map[string]any{"name": "Empty", "target": "", "location": "desktop"},
			},
		},
		"packages": map[string]any{
			"tools": map[string]any{
				"source":           "tools/**",
				"desktop_shortcut": map[string]any{"target": "tools/tool.exe", "name": "Demo Tool"},
			},
		},
	})
	ctx := NewBuildContext(cfg)
	entries := CollectShortcuts(ctx)

	want := []struct {
		kind    string
		section string
	}{
		{shortcutDesktop, "global"},
		{shortcutStartMenu, "global"},
		{shortcutStartMenu, "global"},
		{shortcutDesktop, "SEC_PKG_0"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d (empty targets must be skipped)", len(entries), len(want))
	}
	for i, w := range want {
		if entries[i].Index != i {
			t.Errorf("entry %d has index %d", i, entries[i].Index)
		}
		if entries[i].Type != w.kind || entries[i].Section != w.section {
			t.Errorf("entry %d = {%s %s}, want {%s %s}",
				i, entries[i].Type, entries[i].Section, w.kind, w.section)
		}
	}
	if entries[2].ResolvedName != "Demo Docs" {
		t.Errorf("named shortcut resolved to %q", entries[2].ResolvedName)
	}
	if entries[0].ResolvedName != "${APP_NAME}" {
		t.Errorf("unnamed shortcut resolved to %q, want ${APP_NAME}", entries[0].ResolvedName)
	}
}

func TestCollectShortcutsDoesNotMutateConfig(t *testing.T) {
	cfg := config.FromMap(map[string]any{
		"app": map[string]any{"name": "DemoApp", "version": "1.0.0"},
		"install": map[string]any{
			"desktop_shortcut":    map[string]any{"target": "bin/demo.exe"},
			"start_menu_shortcut": map[string]any{"target": "bin/demo.exe"},
		},
	})
	ctx := NewBuildContext(cfg)

	entries := CollectShortcuts(ctx)
	if entries[0].Config.Location != "Desktop" || entries[1].Config.Location != "StartMenu" {
		t.Errorf("entry locations = %q, %q", entries[0].Config.Location, entries[1].Config.Location)
	}
	if cfg.Install.DesktopShortcut.Location != "" {
		t.Errorf("desktop shortcut config mutated: Location = %q", cfg.Install.DesktopShortcut.Location)
	}
	if cfg.Install.StartMenuShortcut.Location != "" {
		t.Errorf("start menu shortcut config mutated: Location = %q", cfg.Install.StartMenuShortcut.Location)
	}
}

func TestShortcutBaseDir(t *testing.T) {
	cfg := config.FromMap(map[string]any{
		"app": map[string]any{"name": "DemoApp", "version": "1.0.0"},
	})
	ctx := NewBuildContext(cfg)

	tests := []struct {
		name string
		sc   ShortcutEntry
		want string
	}{
		{"desktop", ShortcutEntry{Type: shortcutDesktop, Config: &config.ShortcutConfig{}}, "$DESKTOP"},
		{"startmenu", ShortcutEntry{Type: shortcutStartMenu, Config: &config.ShortcutConfig{}}, `$SMPROGRAMS\${APP_NAME}`},
		{"quicklaunch", ShortcutEntry{Type: shortcutQuickLaunch, Config: &config.ShortcutConfig{}}, "$QUICKLAUNCH"},
		{"custom relative", ShortcutEntry{Type: shortcutCustom, Config: &config.ShortcutConfig{Location: "links/extra"}}, `$INSTDIR\links\extra`},
		{"custom absolute", ShortcutEntry{Type: shortcutCustom, Config: &config.ShortcutConfig{Location: `C:\Links`}}, `C:\Links`},
		{"custom variable", ShortcutEntry{Type: shortcutCustom, Config: &config.ShortcutConfig{Location: `$APPDATA/DemoApp`}}, `$APPDATA\DemoApp`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shortcutBaseDir(ctx, tt.sc); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEffectiveRegView(t *testing.T) {
	tests := []struct {
		name    string
		install map[string]any
		want    string
	}{
		{"explicit 32", map[string]any{"registry_view": "32", "install_dir": `$PROGRAMFILES64\Demo`}, "32"},
		{"explicit 64", map[string]any{"registry_view": "64", "install_dir": `$PROGRAMFILES\Demo`}, "64"},
		{"auto from 64-bit dir", map[string]any{"install_dir": `$PROGRAMFILES64\Demo`}, "64"},
		{"auto from 32-bit dir", map[string]any{"install_dir": `$PROGRAMFILES\Demo`}, "32"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.FromMap(map[string]any{
				"app":     map[string]any{"name": "DemoApp", "version": "1.0.0"},
				"install": tt.install,
			})
			ctx := NewBuildContext(cfg)
			if got := ctx.EffectiveRegView(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEscapeLangString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello", "Hello"},
		{"quotes", `say "hi"`, `say $\"hi$\"`},
		{"crlf", "Line1\r\nLine2", `Line1$\r$\nLine2`},
		{"marker with trailing dollar", "Text$\r$and$\n$more", `Text$\rand$\nmore`},
		{"marker then real newline", "Text$\r$\nMore", `Text$\r$\nMore`},
		{"already escaped", `a$\r$\nb`, `a$\r$\nb`},
		{"registers preserved", `found at $R1 ($R2)`, `found at $R1 ($R2)`},
		{"placeholders preserved", "need {mb} MB in $INSTDIR", "need {mb} MB in $INSTDIR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeLangString(tt.in); got != tt.want {
				t.Errorf("EscapeLangString(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEscapeLangStringIdempotent(t *testing.T) {
	inputs := []string{
		"Line1\r\nLine2",
		`say "hi"`,
		"Text$\r$and$\n$more",
	}
	for _, in := range inputs {
		once := EscapeLangString(in)
		twice := EscapeLangString(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"build/output/**", `build\output\**`},
		{"dir/**/file.txt", `dir\file.txt`},
		{"**/file.txt", "file.txt"},
		{"plain/path.txt", `plain\path.txt`},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStickyResolveError(t *testing.T) {
	cfg := config.FromMap(map[string]any{
		"app": map[string]any{"name": "DemoApp", "version": "1.0.0"},
		"variables": map[string]any{
			"a": "${variables.b}",
			"b": "${variables.a}",
		},
	})
	ctx := NewBuildContext(cfg)
	if got := ctx.Resolve("${variables.a}"); got != "${variables.a}" {
		t.Errorf("failed resolve should return input, got %q", got)
	}
	if ctx.Err() == nil {
		t.Fatal("expected sticky error after cycle")
	}
	first := ctx.Err()
	ctx.Resolve("${variables.b}")
	if ctx.Err() != first {
		t.Error("later failures must not replace the first error")
	}
}
