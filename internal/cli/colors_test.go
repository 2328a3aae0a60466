package cli

import (
	"os"
	"strings"
	"testing"
)

func TestColorFunctions(t *testing.T) {
	ColorsEnabled = true
	defer func() { ColorsEnabled = detectColors() }()

	tests := []struct {
		name string
		fn   func(string) string
		code string
	}{
		{"Error", Error, "\033[31m"},
		{"Success", Success, "\033[32m"},
		{"Warning", Warning, "\033[33m"},
		{"Info", Info, "\033[36m"},
		{"Bold", Bold, "\033[1m"},
		{"Filename", Filename, "\033[36m"},
		{"Number", Number, "\033[35m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fn("sample")
			if !strings.Contains(got, tt.code) {
				t.Errorf("%s(\"sample\") = %q, expected color code %q", tt.name, got, tt.code)
			}
			if !strings.Contains(got, "sample") {
				t.Errorf("%s(\"sample\") = %q, expected to contain input text", tt.name, got)
			}
			if !strings.HasSuffix(got, string(reset)) {
				t.Errorf("%s(\"sample\") = %q, expected trailing reset code", tt.name, got)
			}
		})
	}
}

func TestColorsDisabled(t *testing.T) {
	ColorsEnabled = false
	defer func() { ColorsEnabled = detectColors() }()

	for _, fn := range []func(string) string{Error, Success, Warning, Info, Bold, Filename, Number} {
		if got := fn("plain"); got != "plain" {
			t.Errorf("with colors disabled, expected \"plain\", got %q", got)
		}
	}
}

func TestNoColorEnv(t *testing.T) {
	original := os.Getenv("NO_COLOR")
	defer func() {
		if original == "" {
			os.Unsetenv("NO_COLOR")
		} else {
			os.Setenv("NO_COLOR", original)
		}
		ColorsEnabled = detectColors()
	}()

	os.Setenv("NO_COLOR", "1")
	EnableColors()
	if ColorsEnabled {
		t.Error("expected colors to be disabled when NO_COLOR is set")
	}
}

func TestDisableColors(t *testing.T) {
	ColorsEnabled = true
	DisableColors()
	if ColorsEnabled {
		t.Error("DisableColors should clear ColorsEnabled")
	}
	ColorsEnabled = detectColors()
}
