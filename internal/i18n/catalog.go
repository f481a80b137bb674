// Package i18n provides the localized reply catalog and best-effort
// language detection for inbound messages.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Key identifies a reply template.
type Key string

const (
	KeyAppointment          Key = "appointment"
	KeyAppointmentNextStep  Key = "appointment_next_step"
	KeyAppointmentConfirmed Key = "appointment_confirmed"
	KeyAppointmentError     Key = "appointment_error"
	KeyAskName              Key = "ask_name"
	KeyAskEmail             Key = "ask_email"
	KeyAskPhone             Key = "ask_phone"
	KeyPricing              Key = "pricing"
	KeyLocation             Key = "location"
	KeyHours                Key = "hours"
	KeyDelivery             Key = "delivery"
	KeyHelp                 Key = "help"
	KeyDefault              Key = "default"
	KeyInvalid              Key = "invalid"
)

// allKeys drives the load-time completeness check.
var allKeys = []Key{
	KeyAppointment, KeyAppointmentNextStep, KeyAppointmentConfirmed,
	KeyAppointmentError, KeyAskName, KeyAskEmail, KeyAskPhone,
	KeyPricing, KeyLocation, KeyHours, KeyDelivery, KeyHelp,
	KeyDefault, KeyInvalid,
}

// SupportedLanguages are the ISO 639-1 codes with a full template table.
var SupportedLanguages = []string{"en", "es", "fr", "de", "it", "pt"}

// Catalog resolves a language code and template key to a display string.
// Unknown languages fall back to English; an unknown key is a
// programming error and panics.
type Catalog struct {
	bundle *goi18n.Bundle
}

// NewCatalog loads the embedded locale tables and verifies that every
// key exists for every supported language.
func NewCatalog() (*Catalog, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, lang := range SupportedLanguages {
		path := fmt.Sprintf("locales/active.%s.json", lang)
		raw, err := localeFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n: read locale %s: %w", lang, err)
		}
		var table map[string]string
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("i18n: parse locale %s: %w", lang, err)
		}
		for _, key := range allKeys {
			if table[string(key)] == "" {
				return nil, fmt.Errorf("i18n: locale %s is missing key %q", lang, key)
			}
		}
		if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
			return nil, fmt.Errorf("i18n: load locale %s: %w", lang, err)
		}
	}

	return &Catalog{bundle: bundle}, nil
}

// Resolve returns the template for key in lang, with data applied to any
// placeholders. An unsupported language falls back to English.
func (c *Catalog) Resolve(lang string, key Key, data map[string]any) string {
	localizer := goi18n.NewLocalizer(c.bundle, lang)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    string(key),
		TemplateData: data,
	})
	if err != nil {
		// Every key is verified against every locale at load time, so
		// this can only be a template key that was never registered.
		panic(fmt.Sprintf("i18n: unknown template key %q: %v", key, err))
	}
	return msg
}
