// Package extract pulls contact fields out of free-text chat messages
// using pattern rules. Extraction is best-effort: a miss is reported as
// ok=false, never as an error.
package extract

import (
	"regexp"
	"strings"
)

// ---------- package-level compiled regexes ----------

var (
	emailRE = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// North-American grouping: optional country code, area code, exchange, line.
	phoneNARE = regexp.MustCompile(`\+?1?[\s\-.]?\(?([0-9]{3})\)?[\s\-.]?([0-9]{3})[\s\-.]?([0-9]{4})`)
	// Generic international run of digits and phone punctuation.
	phoneIntlRE = regexp.MustCompile(`\+?[\d\s\-()]{10,}`)
	nonDigitRE  = regexp.MustCompile(`[^\d]`)
	punctRE     = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spaceRE     = regexp.MustCompile(`\s+`)
)

// introPhrases are self-introduction lead-ins stripped before guessing a
// name, across the supported languages.
var introPhrases = buildIntroPatterns([]string{
	// Spanish
	"mi nombre es", "me llamo", "soy",
	// English
	"my name is", "i am", "i'm",
	// French
	"mon nom est", "je m'appelle", "je suis",
	// German
	"mein name ist", "ich heiße", "ich bin",
	// Italian
	"il mio nome è", "io sono",
	// Portuguese
	"o meu nome é", "meu nome é", "me chamo", "eu sou",
})

// bookingTerms are appointment-request keywords. A message like "Cita,
// por favor" carries intent, not a name, so these are stripped before
// the name guess.
var bookingTerms = buildWordPatterns([]string{
	"citas", "cita", "reservar", "agendar",
	"appointment", "booking", "book", "schedule", "reserve",
	"rendez-vous", "rendezvous", "réserver",
	"termin", "vereinbaren", "buchen",
	"appuntamento", "prenotare", "fissare",
	"consulta", "marcar",
})

func buildIntroPatterns(phrases []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(p)))
	}
	return patterns
}

func buildWordPatterns(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return patterns
}

// Email returns the first substring shaped like local@domain.tld.
// No validation beyond shape is attempted.
func Email(text string) (string, bool) {
	match := emailRE.FindString(text)
	return match, match != ""
}

// Phone returns the first phone number candidate as a bare digit string.
// A North-American grouped pattern is tried first; a generic international
// run of at least 10 digits is the fallback.
func Phone(text string) (string, bool) {
	if groups := phoneNARE.FindStringSubmatch(text); groups != nil {
		return groups[1] + groups[2] + groups[3], true
	}
	if run := phoneIntlRE.FindString(text); run != "" {
		digits := nonDigitRE.ReplaceAllString(run, "")
		if len(digits) >= 10 {
			return digits, true
		}
	}
	return "", false
}

// Name guesses a given name (and optional surname) from the text after
// stripping introduction phrases, booking keywords, email/phone
// substrings, and punctuation. It keeps the original casing of the
// remaining tokens. This is a heuristic, not a validity guarantee.
func Name(text string) (string, bool) {
	cleaned := text
	for _, re := range introPhrases {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	for _, re := range bookingTerms {
		cleaned = re.ReplaceAllString(cleaned, " ")
	}
	cleaned = emailRE.ReplaceAllString(cleaned, " ")
	cleaned = phoneIntlRE.ReplaceAllString(cleaned, " ")
	cleaned = punctRE.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(spaceRE.ReplaceAllString(cleaned, " "))

	words := strings.Fields(cleaned)
	switch {
	case len(words) >= 2:
		return words[0] + " " + words[1], true
	case len(words) == 1 && len([]rune(words[0])) > 2:
		return words[0], true
	}
	return "", false
}
