// Package languages is the registry of installer UI languages. It holds
// language metadata, alias resolution for legacy names, and builtin
// translations for the installer UI strings. Everything in this file is
// dialect-neutral; the NSIS-specific identifiers live in nsis.go.
package languages

// Language describes one supported installer language.
type Language struct {
	Name        string // canonical name, e.g. "SimplifiedChinese"
	ISO         string // ISO 639-1 / BCP 47 tag, e.g. "zh-CN"
	Description string // human-readable label
}

var registry = buildRegistry()

func buildRegistry() map[string]Language {
	reg := make(map[string]Language)
	add := func(name, iso, desc string) {
		reg[name] = Language{Name: name, ISO: iso, Description: desc}
	}
	add("English", "en", "English (US)")
	add("SimplifiedChinese", "zh-CN", "Simplified Chinese")
	add("TraditionalChinese", "zh-TW", "Traditional Chinese")
	add("French", "fr", "French (France)")
	add("German", "de", "German (Germany)")
	add("Spanish", "es", "Spanish (Spain)")
	add("SpanishInternational", "es-419", "Spanish (International)")
	add("Portuguese", "pt", "Portuguese (Portugal)")
	add("BrazilianPortuguese", "pt-BR", "Portuguese (Brazil)")
	add("Italian", "it", "Italian (Italy)")
	add("Dutch", "nl", "Dutch (Netherlands)")
	add("Polish", "pl", "Polish (Poland)")
	add("Czech", "cs", "Czech (Czech Republic)")
	add("Hungarian", "hu", "Hungarian (Hungary)")
	add("Turkish", "tr", "Turkish (Turkey)")
	add("Japanese", "ja", "Japanese (Japan)")
	add("Korean", "ko", "Korean (South Korea)")
	add("Russian", "ru", "Russian (Russia)")
	add("Swedish", "sv", "Swedish (Sweden)")
	add("Norwegian", "nb", "Norwegian (Bokmål)")
	add("NorwegianNynorsk", "nn", "Norwegian (Nynorsk)")
	add("Danish", "da", "Danish (Denmark)")
	add("Ukrainian", "uk", "Ukrainian (Ukraine)")
	add("Arabic", "ar", "Arabic (Saudi Arabia)")
	add("Thai", "th", "Thai (Thailand)")
	add("Vietnamese", "vi", "Vietnamese (Vietnam)")
	return reg
}

var aliases = buildAliases()

func buildAliases() map[string]string {
	m := make(map[string]string)
	for name, info := range registry {
		m[lower(name)] = name
		m[lower(info.ISO)] = name
	}
	// Legacy and shorthand names accepted in older configurations.
	for alias, canonical := range map[string]string{
		"chinese":      "SimplifiedChinese",
		"zh":           "SimplifiedChinese",
		"he":           "Hebrew",
		"fa":           "Farsi",
		"simpchinese":  "SimplifiedChinese",
		"tradchinese":  "TraditionalChinese",
		"portuguesebr": "BrazilianPortuguese",
	} {
		m[alias] = canonical
	}
	return m
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Canonical resolves a language name or alias to its canonical form.
// Lookup is case-insensitive. Unknown names are returned unchanged so
// that raw NSIS language names typed by the user still pass through.
func Canonical(name string) string {
	if canonical, ok := aliases[lower(name)]; ok {
		return canonical
	}
	return name
}

// Info looks up language metadata by canonical name or alias. The second
// return is false when the language is not registered.
func Info(name string) (Language, bool) {
	info, ok := registry[Canonical(name)]
	return info, ok
}

// GetString returns the UI string for id in the given language. Lookup
// order: user-provided overrides, builtin translation for the canonical
// language, then the English builtin. Missing everywhere returns "".
func GetString(id, lang string, overrides map[string]string) string {
	if s, ok := overrides[id]; ok {
		return s
	}
	if tr, ok := translations[Canonical(lang)]; ok {
		if s, ok := tr[id]; ok {
			return s
		}
	}
	return translations["English"][id]
}

// StringIDs lists the UI string identifiers the generated installer uses.
// Any of them may be overridden per language in the configuration.
var StringIDs = []string{
	"shortcuts_desktop",
	"shortcuts_startmenu",
	"langpage_title",
	"langpage_desc",
	"finish_run",
	"uninstall_not_finished",
	"installer_running",
	"signature_failed",
	"requires_windows",
	"not_enough_space",
	"not_enough_memory",
	"need_admin",
	"existing_install_prompt",
	"existing_install_prompt_no_ver",
	"existing_install_abort",
	"existing_install_abort_no_ver",
}
