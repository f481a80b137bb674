package conversation

import (
	"strings"

	"github.com/bookline-ai/intake-agent/internal/i18n"
)

// Intent is the coarse classification of an inbound message before
// stage dispatch.
type Intent string

const (
	IntentAppointment Intent = "appointment"
	IntentPricing     Intent = "pricing"
	IntentLocation    Intent = "location"
	IntentHours       Intent = "hours"
	IntentDelivery    Intent = "delivery"
	IntentHelp        Intent = "help"
	IntentNone        Intent = "none"
)

// intentRule pairs an intent with its multilingual keyword set and the
// canned reply emitted when no booking flow is active. Rules are
// evaluated in order; the first keyword hit wins. Adding a language or
// keyword means editing this table, not the control flow.
type intentRule struct {
	intent   Intent
	reply    i18n.Key
	keywords []string
}

var intentRules = []intentRule{
	{
		intent: IntentAppointment,
		reply:  i18n.KeyAppointment,
		keywords: []string{
			// Spanish
			"cita", "reservar", "agendar",
			// English
			"appointment", "book", "schedule", "reserve",
			// French
			"rendez-vous", "rendezvous", "réserver",
			// German
			"termin", "vereinbaren", "buchen",
			// Italian
			"appuntamento", "prenotare", "fissare",
			// Portuguese
			"consulta", "marcar",
		},
	},
	{
		intent:   IntentPricing,
		reply:    i18n.KeyPricing,
		keywords: []string{"precio", "price", "prix", "preis", "preise", "preço"},
	},
	{
		intent:   IntentLocation,
		reply:    i18n.KeyLocation,
		keywords: []string{"ubicación", "location", "sitio", "lugar", "standort", "posizione", "localização"},
	},
	{
		intent:   IntentHours,
		reply:    i18n.KeyHours,
		keywords: []string{"horario", "hours", "heures", "horário", "stunden", "orari"},
	},
	{
		intent:   IntentDelivery,
		reply:    i18n.KeyDelivery,
		keywords: []string{"entrega", "delivery", "livraison", "lieferung", "consegna"},
	},
	{
		intent:   IntentHelp,
		reply:    i18n.KeyHelp,
		keywords: []string{"ayuda", "help", "aide", "hilfe", "aiuto", "ajuda"},
	},
}

// classify returns the first intent whose keyword list matches text.
// Flat substring matching, no ranking.
func classify(text string) (Intent, i18n.Key) {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent, rule.reply
			}
		}
	}
	return IntentNone, i18n.KeyDefault
}
