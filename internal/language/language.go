// Package language maps ISO 639-2 three-letter language codes to their
// ISO 639-1 two-letter equivalents and resolves the effective language of a
// transcription request.
//
// The table is built once at package initialization from the ISO 639-1 code
// list, using golang.org/x/text to derive each code's three-letter form. It is
// read-only afterwards and safe for concurrent use.
package language

import (
	"strings"

	"golang.org/x/text/language"
)

// iso6391 lists every ISO 639-1 code.
const iso6391 = "aa ab ae af ak am an ar as av ay az ba be bg bh bi bm bn bo br bs ca ce ch co cr cs cu cv cy " +
	"da de dv dz ee el en eo es et eu fa ff fi fj fo fr fy ga gd gl gn gu gv ha he hi ho hr ht hu hy hz " +
	"ia id ie ig ii ik io is it iu ja jv ka kg ki kj kk kl km kn ko kr ks ku kv kw ky la lb lg li ln lo " +
	"lt lu lv mg mh mi mk ml mn mr ms mt my na nb nd ne ng nl nn no nr nv ny oc oj om or os pa pi pl ps " +
	"pt qu rm rn ro ru rw sa sc sd se sg si sk sl sm sn so sq sr ss st su sv sw ta te tg th ti tk tl tn " +
	"to tr ts tt tw ty ug uk ur uz ve vi vo wa wo xh yi yo za zh zu"

var byISO3 map[string]string

func init() {
	codes := strings.Fields(iso6391)
	byISO3 = make(map[string]string, len(codes))
	for _, code := range codes {
		base, err := language.ParseBase(code)
		if err != nil {
			continue
		}
		iso3 := base.ISO3()
		if len(iso3) != 3 || iso3 == code {
			continue
		}
		byISO3[iso3] = code
	}
}

// ToISO2 converts a three-letter code to its two-letter form. Codes without
// an entry are returned unchanged.
func ToISO2(code string) string {
	if iso2, ok := byISO3[code]; ok {
		return iso2
	}
	return code
}

// Resolve returns the language an engine should use. An empty language
// selects fallback and three-letter codes are mapped with ToISO2.
func Resolve(lang, fallback string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return strings.ToLower(strings.TrimSpace(fallback))
	}
	if len(lang) == 3 {
		return ToISO2(lang)
	}
	return lang
}

// Known reports whether code has an entry in the table.
func Known(code string) bool {
	_, ok := byISO3[strings.ToLower(strings.TrimSpace(code))]
	return ok
}
