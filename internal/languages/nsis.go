package languages

import "strings"

// NSISMapping holds the NSIS-specific identifiers for a language: the MUI
// language file name, the LANG_* constant used by LangString, and the
// Windows locale ID used for fallback defines.
type NSISMapping struct {
	MUIName      string
	LangConstant string
	LCID         int
}

var nsisMap = buildNSISMap()

func buildNSISMap() map[string]NSISMapping {
	m := make(map[string]NSISMapping)
	add := func(name, mui string, lcid int) {
		m[name] = NSISMapping{
			MUIName:      mui,
			LangConstant: "LANG_" + strings.ToUpper(mui),
			LCID:         lcid,
		}
	}

	// Western European
	add("English", "English", 1033)
	add("French", "French", 1036)
	add("German", "German", 1031)
	add("Spanish", "Spanish", 1034)
	add("SpanishInternational", "SpanishInternational", 3082)
	add("Portuguese", "Portuguese", 2070)
	add("BrazilianPortuguese", "PortugueseBR", 1046)
	add("Italian", "Italian", 1040)
	add("Dutch", "Dutch", 1043)
	add("Catalan", "Catalan", 1027)

	// Nordic
	add("Swedish", "Swedish", 1053)
	add("Norwegian", "Norwegian", 1044)
	add("NorwegianNynorsk", "NorwegianNynorsk", 2068)
	add("Danish", "Danish", 1030)
	add("Finnish", "Finnish", 1035)

	// Eastern European
	add("Polish", "Polish", 1045)
	add("Czech", "Czech", 1029)
	add("Hungarian", "Hungarian", 1038)
	add("Romanian", "Romanian", 1048)
	add("Bulgarian", "Bulgarian", 1026)
	add("Croatian", "Croatian", 1050)
	add("Slovak", "Slovak", 1051)
	add("Serbian", "Serbian", 3098)
	add("SerbianLatin", "SerbianLatin", 2074)
	add("Slovenian", "Slovenian", 1060)
	add("Estonian", "Estonian", 1061)
	add("Latvian", "Latvian", 1062)
	add("Lithuanian", "Lithuanian", 1063)
	add("Ukrainian", "Ukrainian", 1058)
	add("Russian", "Russian", 1049)

	// Asian
	add("SimplifiedChinese", "SimpChinese", 2052)
	add("TraditionalChinese", "TradChinese", 1028)
	add("Japanese", "Japanese", 1041)
	add("Korean", "Korean", 1042)
	add("Thai", "Thai", 1054)
	add("Vietnamese", "Vietnamese", 1066)
	add("Indonesian", "Indonesian", 1057)

	// Middle Eastern and other
	add("Turkish", "Turkish", 1055)
	add("Arabic", "Arabic", 1025)
	add("Hebrew", "Hebrew", 1037)
	add("Farsi", "Farsi", 1065)
	add("Greek", "Greek", 1032)
	add("Macedonian", "Macedonian", 1071)

	return m
}

// NSISFor looks up the NSIS identifiers for a language name or alias.
func NSISFor(name string) (NSISMapping, bool) {
	m, ok := nsisMap[Canonical(name)]
	return m, ok
}

// NSISForOrFallback returns the NSIS identifiers for a language,
// synthesizing a best-effort mapping for unknown names. The synthesized
// MUI name is the canonical (or raw) input, which works when the user
// typed a valid NSIS MUI name directly; the LCID is 0.
func NSISForOrFallback(name string) NSISMapping {
	if m, ok := NSISFor(name); ok {
		return m
	}
	canonical := Canonical(name)
	return NSISMapping{
		MUIName:      canonical,
		LangConstant: "LANG_" + strings.ToUpper(canonical),
		LCID:         0,
	}
}
