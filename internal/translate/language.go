// SPDX-License-Identifier: MIT

// Package translate holds the supported language catalog and builds the
// per-language prompt and speech instructions used by the translation
// endpoints.
package translate

import "strings"

// Language is the canonical English name of a supported language.
type Language string

const (
	English    Language = "English"
	Spanish    Language = "Spanish"
	French     Language = "French"
	German     Language = "German"
	Italian    Language = "Italian"
	Portuguese Language = "Portuguese"
	Russian    Language = "Russian"
	Chinese    Language = "Chinese"
	Japanese   Language = "Japanese"
	Korean     Language = "Korean"
	Arabic     Language = "Arabic"
	Dutch      Language = "Dutch"
	Polish     Language = "Polish"
	Turkish    Language = "Turkish"
	Greek      Language = "Greek"
	Swedish    Language = "Swedish"
	Norwegian  Language = "Norwegian"
	Danish     Language = "Danish"
	Finnish    Language = "Finnish"
	Czech      Language = "Czech"
	Hungarian  Language = "Hungarian"
	Romanian   Language = "Romanian"
	Hindi      Language = "Hindi"
	Thai       Language = "Thai"
	Vietnamese Language = "Vietnamese"
)

// aliases maps each language to the lowercase spellings accepted as input:
// the English name, the ISO 639-1 code and the native name.
var aliases = map[Language][]string{
	English:    {"english", "en"},
	Spanish:    {"spanish", "es", "español"},
	French:     {"french", "fr", "français"},
	German:     {"german", "de", "deutsch"},
	Italian:    {"italian", "it", "italiano"},
	Portuguese: {"portuguese", "pt", "português"},
	Russian:    {"russian", "ru", "русский"},
	Chinese:    {"chinese", "zh", "中文"},
	Japanese:   {"japanese", "ja", "日本語"},
	Korean:     {"korean", "ko", "한국어"},
	Arabic:     {"arabic", "ar", "العربية"},
	Dutch:      {"dutch", "nl", "nederlands"},
	Polish:     {"polish", "pl", "polski"},
	Turkish:    {"turkish", "tr", "türkçe"},
	Greek:      {"greek", "el", "ελληνικά"},
	Swedish:    {"swedish", "sv", "svenska"},
	Norwegian:  {"norwegian", "no", "norsk"},
	Danish:     {"danish", "da", "dansk"},
	Finnish:    {"finnish", "fi", "suomi"},
	Czech:      {"czech", "cs", "čeština"},
	Hungarian:  {"hungarian", "hu", "magyar"},
	Romanian:   {"romanian", "ro", "română"},
	Hindi:      {"hindi", "hi", "हिन्दी"},
	Thai:       {"thai", "th", "ไทย"},
	Vietnamese: {"vietnamese", "vi", "tiếng việt"},
}

// nativeNames maps each language to its endonym.
var nativeNames = map[Language]string{
	English:    "English",
	Spanish:    "español",
	French:     "français",
	German:     "Deutsch",
	Italian:    "italiano",
	Portuguese: "português",
	Russian:    "русский",
	Chinese:    "中文",
	Japanese:   "日本語",
	Korean:     "한국어",
	Arabic:     "العربية",
	Dutch:      "Nederlands",
	Polish:     "polski",
	Turkish:    "Türkçe",
	Greek:      "ελληνικά",
	Swedish:    "svenska",
	Norwegian:  "norsk",
	Danish:     "dansk",
	Finnish:    "suomi",
	Czech:      "čeština",
	Hungarian:  "magyar",
	Romanian:   "română",
	Hindi:      "हिन्दी",
	Thai:       "ไทย",
	Vietnamese: "Tiếng Việt",
}

// Resolve maps an arbitrary language spelling to its canonical language.
// Unknown inputs come back trimmed but otherwise untouched, with ok false.
func Resolve(input string) (Language, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}
	normalized := strings.ToLower(trimmed)
	for lang, names := range aliases {
		for _, a := range names {
			if normalized == a {
				return lang, true
			}
		}
	}
	return Language(trimmed), false
}

// NativeName returns the endonym of a language, or its own spelling when the
// language is not in the catalog.
func NativeName(lang Language) string {
	if n, ok := nativeNames[lang]; ok {
		return n
	}
	return string(lang)
}
