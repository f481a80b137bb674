package i18n

import "github.com/abadojack/whatlanggo"

// langCodes maps detector results onto the supported ISO 639-1 codes.
var langCodes = map[whatlanggo.Lang]string{
	whatlanggo.Eng: "en",
	whatlanggo.Spa: "es",
	whatlanggo.Fra: "fr",
	whatlanggo.Deu: "de",
	whatlanggo.Ita: "it",
	whatlanggo.Por: "pt",
}

// Detector guesses the language of an inbound message. Detection is
// best-effort: anything outside the supported set resolves to the
// configured fallback.
type Detector struct {
	fallback string
	options  whatlanggo.Options
}

// NewDetector returns a detector restricted to the supported languages.
func NewDetector(fallback string) *Detector {
	whitelist := make(map[whatlanggo.Lang]bool, len(langCodes))
	for lang := range langCodes {
		whitelist[lang] = true
	}
	return &Detector{
		fallback: fallback,
		options:  whatlanggo.Options{Whitelist: whitelist},
	}
}

// Detect returns the ISO 639-1 code for text, or the fallback when the
// detector cannot place it in a supported language.
func (d *Detector) Detect(text string) string {
	if text == "" {
		return d.fallback
	}
	info := whatlanggo.DetectWithOptions(text, d.options)
	if code, ok := langCodes[info.Lang]; ok {
		return code
	}
	return d.fallback
}
