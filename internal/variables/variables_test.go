package variables

import (
	"errors"
	"testing"
)

func TestRegistryHasBuiltins(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{
		"INSTDIR", "PROGRAMFILES", "PROGRAMFILES64", "APPDATA", "LOCALAPPDATA",
		"DESKTOP", "STARTMENU", "SMPROGRAMS", "TEMP", "WINDIR", "SYSDIR",
		"COMMONFILES", "COMMONFILES64", "DOCUMENTS",
	} {
		if !r.Has(name) {
			t.Errorf("expected builtin %s to be registered", name)
		}
	}

	if r.Has("NOT_A_VARIABLE") {
		t.Error("unexpected builtin NOT_A_VARIABLE")
	}

	if got := len(r.Names()); got != 14 {
		t.Errorf("expected 14 builtins, got %d", got)
	}
}

func TestTokenPerDialect(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name    string
		dialect string
		want    string
	}{
		{"INSTDIR", DialectNSIS, "$INSTDIR"},
		{"INSTDIR", DialectWiX, "[INSTALLDIR]"},
		{"INSTDIR", DialectInno, "{app}"},
		{"PROGRAMFILES64", DialectNSIS, "$PROGRAMFILES64"},
		{"SMPROGRAMS", DialectNSIS, "$SMPROGRAMS"},
		{"DOCUMENTS", DialectWiX, "[PersonalFolder]"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.dialect, func(t *testing.T) {
			tok, known, err := r.Token(tt.name, tt.dialect)
			if err != nil {
				t.Fatalf("Token(%s, %s) failed: %v", tt.name, tt.dialect, err)
			}
			if !known {
				t.Fatalf("Token(%s, %s): variable reported unknown", tt.name, tt.dialect)
			}
			if tok != tt.want {
				t.Errorf("Token(%s, %s) = %q, want %q", tt.name, tt.dialect, tok, tt.want)
			}
		})
	}
}

func TestTokenUnknownVariable(t *testing.T) {
	r := NewRegistry()

	_, known, err := r.Token("BOGUS", DialectNSIS)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if known {
		t.Error("expected BOGUS to be unknown")
	}
}

func TestTokenMissingDialect(t *testing.T) {
	r := NewRegistry()
	r.defs["CUSTOM"] = Definition{
		Name:   "CUSTOM",
		Tokens: map[string]string{DialectNSIS: "$CUSTOM"},
	}

	_, known, err := r.Token("CUSTOM", DialectWiX)
	if !known {
		t.Fatal("expected CUSTOM to be known")
	}
	var dte *DialectTokenError
	if !errors.As(err, &dte) {
		t.Fatalf("expected DialectTokenError, got %v", err)
	}
	if dte.Dialect != DialectWiX {
		t.Errorf("expected dialect %s in error, got %s", DialectWiX, dte.Dialect)
	}
	if len(dte.Dialects) != 1 || dte.Dialects[0] != DialectNSIS {
		t.Errorf("expected available dialects [nsis], got %v", dte.Dialects)
	}
}

func TestIsName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"INSTDIR", true},
		{"PROGRAMFILES64", true},
		{"_PRIVATE", true},
		{"A", true},
		{"", false},
		{"instdir", false},
		{"9LIVES", false},
		{"FOO-BAR", false},
		{"FOO BAR", false},
	}

	for _, tt := range tests {
		if got := IsName(tt.input); got != tt.want {
			t.Errorf("IsName(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
