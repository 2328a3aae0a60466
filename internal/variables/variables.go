// Package variables defines the builtin installer variables and their
// per-dialect spellings. A package description refers to well-known
// locations with $NAME references (for example $INSTDIR or $APPDATA);
// each target dialect has its own token for the same location.
package variables

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect names accepted by the registry.
const (
	DialectNSIS = "nsis"
	DialectWiX  = "wix"
	DialectInno = "inno"
)

// Definition describes one builtin variable and the token that represents
// it in each supported dialect. A dialect missing from Tokens has no
// spelling for this variable.
type Definition struct {
	Name   string
	Tokens map[string]string
}

// DialectTokenError reports a variable that exists but has no token for
// the requested dialect.
type DialectTokenError struct {
	Name     string
	Dialect  string
	Dialects []string
}

func (e *DialectTokenError) Error() string {
	return fmt.Sprintf("variable %s has no %s token (available: %s)",
		e.Name, e.Dialect, strings.Join(e.Dialects, ", "))
}

// Registry holds the builtin variable definitions keyed by name.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry returns a registry populated with the builtin variables.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition, len(builtins))}
	for _, d := range builtins {
		r.defs[d.Name] = d
	}
	return r
}

// Has reports whether name is a known builtin variable.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Token returns the dialect spelling for the named variable. The second
// return is false when the variable itself is unknown; a known variable
// without a token for the dialect is an error.
func (r *Registry) Token(name, dialect string) (string, bool, error) {
	def, ok := r.defs[name]
	if !ok {
		return "", false, nil
	}
	tok, ok := def.Tokens[dialect]
	if !ok {
		dialects := make([]string, 0, len(def.Tokens))
		for d := range def.Tokens {
			dialects = append(dialects, d)
		}
		sort.Strings(dialects)
		return "", true, &DialectTokenError{Name: name, Dialect: dialect, Dialects: dialects}
	}
	return tok, true, nil
}

// Names returns the builtin variable names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsName reports whether s is a syntactically valid variable name:
// an uppercase letter or underscore followed by uppercase letters,
// digits, or underscores.
func IsName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

var builtins = []Definition{
	{Name: "INSTDIR", Tokens: map[string]string{
		DialectNSIS: `$INSTDIR`, DialectWiX: `[INSTALLDIR]`, DialectInno: `{app}`}},
	{Name: "PROGRAMFILES", Tokens: map[string]string{
		DialectNSIS: `$PROGRAMFILES`, DialectWiX: `[ProgramFilesFolder]`, DialectInno: `{commonpf32}`}},
	{Name: "PROGRAMFILES64", Tokens: map[string]string{
		DialectNSIS: `$PROGRAMFILES64`, DialectWiX: `[ProgramFiles64Folder]`, DialectInno: `{commonpf64}`}},
	{Name: "APPDATA", Tokens: map[string]string{
		DialectNSIS: `$APPDATA`, DialectWiX: `[AppDataFolder]`, DialectInno: `{userappdata}`}},
	{Name: "LOCALAPPDATA", Tokens: map[string]string{
		DialectNSIS: `$LOCALAPPDATA`, DialectWiX: `[LocalAppDataFolder]`, DialectInno: `{localappdata}`}},
	{Name: "DESKTOP", Tokens: map[string]string{
		DialectNSIS: `$DESKTOP`, DialectWiX: `[DesktopFolder]`, DialectInno: `{userdesktop}`}},
	{Name: "STARTMENU", Tokens: map[string]string{
		DialectNSIS: `$STARTMENU`, DialectWiX: `[StartMenuFolder]`, DialectInno: `{usersm}`}},
	{Name: "SMPROGRAMS", Tokens: map[string]string{
		DialectNSIS: `$SMPROGRAMS`, DialectWiX: `[ProgramMenuFolder]`, DialectInno: `{userprograms}`}},
	{Name: "TEMP", Tokens: map[string]string{
		DialectNSIS: `$TEMP`, DialectWiX: `[TempFolder]`, DialectInno: `{tmp}`}},
	{Name: "WINDIR", Tokens: map[string]string{
		DialectNSIS: `$WINDIR`, DialectWiX: `[WindowsFolder]`, DialectInno: `{win}`}},
	{Name: "SYSDIR", Tokens: map[string]string{
		DialectNSIS: `$SYSDIR`, DialectWiX: `[SystemFolder]`, DialectInno: `{sys}`}},
	{Name: "COMMONFILES", Tokens: map[string]string{
		DialectNSIS: `$COMMONFILES`, DialectWiX: `[CommonFilesFolder]`, DialectInno: `{commoncf32}`}},
	{Name: "COMMONFILES64", Tokens: map[string]string{
		DialectNSIS: `$COMMONFILES64`, DialectWiX: `[CommonFiles64Folder]`, DialectInno: `{commoncf64}`}},
	{Name: "DOCUMENTS", Tokens: map[string]string{
		DialectNSIS: `$DOCUMENTS`, DialectWiX: `[PersonalFolder]`, DialectInno: `{userdocs}`}},
}
