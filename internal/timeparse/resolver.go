// Package timeparse resolves free-text time expressions into concrete
// instants. A natural-language parser is tried first; a deterministic
// heuristic fallback guarantees the resolver is total over all input.
package timeparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// defaultHour is applied when no explicit time of day is found.
const defaultHour = 14

// sameDayCues and nextDayCues are the relative-date signal words across
// the supported languages. No cue at all defaults to the next day, the
// conservative choice for an ambiguous booking request.
var (
	sameDayCues = []string{"hoy", "today", "aujourd'hui", "oggi", "hoje", "heute"}
	nextDayCues = []string{"mañana", "tomorrow", "demain", "morgen", "domani", "amanhã"}
)

// hourRE matches hour[:minute][meridiem] with dotted abbreviations
// ("3pm", "15:30", "9 a.m.").
var hourRE = regexp.MustCompile(`(?i)(\d{1,2})\s*(?::\s*(\d{2}))?\s*(a\.m\.|p\.m\.?|am|pm)?`)

// Resolver converts natural-language time expressions into timestamps in
// a fixed IANA location.
type Resolver struct {
	parser *when.Parser
	loc    *time.Location
}

// NewResolver builds a resolver that reports results in loc.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)
	return &Resolver{parser: parser, loc: loc}
}

// Resolve returns a concrete, future-biased timestamp for the expression
// in text, relative to now. It never fails: when the natural-language
// parser finds nothing, the heuristic fallback always produces a result.
// The expression is interpreted as wall-clock time in the resolver's
// location regardless of now's zone, so "3pm" means 15:00 local on both
// the parser and fallback paths.
func (r *Resolver) Resolve(text string, now time.Time) time.Time {
	if result, err := r.parser.Parse(text, now.In(r.loc)); err == nil && result != nil && coversInput(result.Text, text) {
		parsed := result.Time.In(r.loc)
		// Prefer the future interpretation of an ambiguous expression:
		// "at 9am" sent in the afternoon means tomorrow morning.
		if parsed.Before(now) {
			parsed = parsed.Add(24 * time.Hour)
		}
		return parsed
	}
	return r.fallback(text, now)
}

// fallback applies the deterministic cue-word heuristic. The base date is
// today only when a same-day cue is present; a next-day cue or no cue at
// all advances one day.
func (r *Resolver) fallback(text string, now time.Time) time.Time {
	lower := strings.ToLower(text)

	base := now.In(r.loc)
	if !containsAny(lower, sameDayCues) {
		base = base.AddDate(0, 0, 1)
	}

	hour, minute := defaultHour, 0
	if m := hourRE.FindStringSubmatch(text); m != nil {
		hour = atoi(m[1])
		if m[2] != "" {
			minute = atoi(m[2])
		}
		switch meridiem(m[3]) {
		case "pm":
			if hour != 12 {
				// Out-of-range results (e.g. "13pm" -> 25) are not
				// clamped; time.Date normalizes them by rolling into
				// the following day.
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
	}

	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, r.loc)
}

// coversInput reports whether the parser matched enough of the input to
// trust it. The rule set is English-only, so a bare "3pm" matched inside
// a Spanish sentence must not shadow the multilingual cue-word fallback.
func coversInput(matched, input string) bool {
	return len(strings.TrimSpace(matched))*2 >= len(strings.TrimSpace(input))
}

func containsAny(text string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}

func meridiem(marker string) string {
	marker = strings.ReplaceAll(strings.ToLower(marker), ".", "")
	switch marker {
	case "pm", "p":
		return "pm"
	case "am", "a":
		return "am"
	}
	return ""
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
