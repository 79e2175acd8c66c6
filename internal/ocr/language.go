package ocr

import "strings"

// ISO 639-1 codes to tesseract traineddata names.
var tesseractLangs = map[string]string{
	"en": "eng",
	"fr": "fra",
	"de": "deu",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"nl": "nld",
	"pl": "pol",
	"ru": "rus",
	"tr": "tur",
	"sv": "swe",
	"da": "dan",
	"fi": "fin",
	"no": "nor",
	"cs": "ces",
	"ja": "jpn",
	"ko": "kor",
	"zh": "chi_sim",
	"ar": "ara",
	"hi": "hin",
}

// TesseractLanguage maps a configured language ("en", "en+fr", "eng") to tesseract's
// "+"-joined form. Unknown codes pass through unchanged.
func TesseractLanguage(lang string) string {
	parts := strings.Split(lang, "+")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if mapped, ok := tesseractLangs[p]; ok {
			p = mapped
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return "eng"
	}
	return strings.Join(out, "+")
}
