package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var turkishLower = cases.Lower(language.Turkish)

// NormalizeName folds a place name to a comparison key: Turkish lower-casing,
// combining marks stripped, dotless ı folded to i, everything outside [a-z0-9]
// removed. "Şanlıurfa", "SANLIURFA" and "Sanli Urfa" all map to "sanliurfa".
func NormalizeName(name string) string {
	lowered := turkishLower.String(strings.TrimSpace(name))
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, lowered)
	if err != nil {
		stripped = lowered
	}
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if r == 'ı' {
			r = 'i'
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// turkishNames restores the Turkish spelling of province names that arrive
// transliterated to ASCII.
var turkishNames = map[string]string{
	"adiyaman":      "Adıyaman",
	"agri":          "Ağrı",
	"aydin":         "Aydın",
	"balikesir":     "Balıkesir",
	"bingol":        "Bingöl",
	"canakkale":     "Çanakkale",
	"cankiri":       "Çankırı",
	"corum":         "Çorum",
	"diyarbakir":    "Diyarbakır",
	"elazig":        "Elazığ",
	"eskisehir":     "Eskişehir",
	"gumushane":     "Gümüşhane",
	"igdir":         "Iğdır",
	"istanbul":      "İstanbul",
	"izmir":         "İzmir",
	"kahramanmaras": "Kahramanmaraş",
	"karabuk":       "Karabük",
	"kirikkale":     "Kırıkkale",
	"kirklareli":    "Kırklareli",
	"kirsehir":      "Kırşehir",
	"kutahya":       "Kütahya",
	"mugla":         "Muğla",
	"mus":           "Muş",
	"nevsehir":      "Nevşehir",
	"nigde":         "Niğde",
	"sanliurfa":     "Şanlıurfa",
	"sirnak":        "Şırnak",
	"tekirdag":      "Tekirdağ",
	"usak":          "Uşak",
	"zonguldak":     "Zonguldak",
}

// LocalizeRegionName returns the Turkish spelling for a known ASCII
// transliteration, or the trimmed input unchanged.
func LocalizeRegionName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if tr, ok := turkishNames[NormalizeName(name)]; ok {
		return tr
	}
	return name
}
