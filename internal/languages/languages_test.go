package languages

import (
	"strings"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"English", "English"},
		{"english", "English"},
		{"chinese", "SimplifiedChinese"},
		{"zh-CN", "SimplifiedChinese"},
		{"zh", "SimplifiedChinese"},
		{"simpchinese", "SimplifiedChinese"},
		{"tradchinese", "TraditionalChinese"},
		{"portuguesebr", "BrazilianPortuguese"},
		{"pt-BR", "BrazilianPortuguese"},
		{"nb", "Norwegian"},
		{"Klingon", "Klingon"}, // unknown names pass through
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Canonical(tt.input); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	info, ok := Info("chinese")
	if !ok {
		t.Fatal("expected chinese alias to resolve")
	}
	if info.Name != "SimplifiedChinese" || info.ISO != "zh-CN" {
		t.Errorf("unexpected info: %+v", info)
	}

	if _, ok := Info("Klingon"); ok {
		t.Error("expected Klingon to be unregistered")
	}
}

func TestGetStringLookupOrder(t *testing.T) {
	// User override wins.
	got := GetString("finish_run", "German", map[string]string{"finish_run": "Los!"})
	if got != "Los!" {
		t.Errorf("override lookup: got %q", got)
	}

	// Builtin for the language.
	got = GetString("finish_run", "German", nil)
	if got != "${APP_NAME} starten" {
		t.Errorf("builtin lookup: got %q", got)
	}

	// Alias resolution applies.
	got = GetString("langpage_title", "chinese", nil)
	if got != "选择安装语言" {
		t.Errorf("alias lookup: got %q", got)
	}

	// English fallback for partially translated languages.
	got = GetString("need_admin", "German", nil)
	if got != "This installer requires administrator privileges." {
		t.Errorf("fallback lookup: got %q", got)
	}

	// Unknown language falls back to English entirely.
	got = GetString("finish_run", "Klingon", nil)
	if got != "Run ${APP_NAME}" {
		t.Errorf("unknown language fallback: got %q", got)
	}
}

func TestCopiedLanguages(t *testing.T) {
	if GetString("finish_run", "SpanishInternational", nil) != GetString("finish_run", "Spanish", nil) {
		t.Error("SpanishInternational should share Spanish strings")
	}
	if GetString("finish_run", "NorwegianNynorsk", nil) != GetString("finish_run", "Norwegian", nil) {
		t.Error("NorwegianNynorsk should share Norwegian strings")
	}
}

func TestNSISFor(t *testing.T) {
	tests := []struct {
		name     string
		mui      string
		constant string
		lcid     int
	}{
		{"English", "English", "LANG_ENGLISH", 1033},
		{"SimplifiedChinese", "SimpChinese", "LANG_SIMPCHINESE", 2052},
		{"TraditionalChinese", "TradChinese", "LANG_TRADCHINESE", 1028},
		{"BrazilianPortuguese", "PortugueseBR", "LANG_PORTUGUESEBR", 1046},
		{"chinese", "SimpChinese", "LANG_SIMPCHINESE", 2052}, // via alias
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := NSISFor(tt.name)
			if !ok {
				t.Fatalf("NSISFor(%q) not found", tt.name)
			}
			if m.MUIName != tt.mui || m.LangConstant != tt.constant || m.LCID != tt.lcid {
				t.Errorf("NSISFor(%q) = %+v", tt.name, m)
			}
		})
	}
}

func TestNSISForOrFallback(t *testing.T) {
	m := NSISForOrFallback("Klingon")
	if m.MUIName != "Klingon" {
		t.Errorf("fallback MUI name: got %q", m.MUIName)
	}
	if m.LangConstant != "LANG_KLINGON" {
		t.Errorf("fallback constant: got %q", m.LangConstant)
	}
	if m.LCID != 0 {
		t.Errorf("fallback LCID: got %d", m.LCID)
	}
}

func TestEveryTranslatedLanguageIsRegistered(t *testing.T) {
	for lang := range translations {
		if _, ok := Info(lang); !ok {
			t.Errorf("translated language %s missing from registry", lang)
		}
	}
}

func TestTranslationIDsAreKnown(t *testing.T) {
	known := make(map[string]bool, len(StringIDs))
	for _, id := range StringIDs {
		known[id] = true
	}
	for lang, strs := range translations {
		for id := range strs {
			if !known[id] {
				t.Errorf("%s uses unknown string id %q", lang, id)
			}
		}
	}
	// English must cover the full set since it is the fallback.
	for _, id := range StringIDs {
		if s := translations["English"][id]; strings.TrimSpace(s) == "" {
			t.Errorf("English missing string %q", id)
		}
	}
}
