// Package handlers exposes the inbound WhatsApp webhook and health
// endpoints.
package handlers

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/bookline-ai/intake-agent/internal/conversation"
	"github.com/bookline-ai/intake-agent/internal/dedupe"
	"github.com/bookline-ai/intake-agent/internal/i18n"
	"github.com/bookline-ai/intake-agent/internal/observability/metrics"
	"github.com/bookline-ai/intake-agent/pkg/logging"
)

const dedupeProvider = "twilio"

// WebhookHandler receives Twilio WhatsApp message webhooks and replies
// inline with TwiML. Twilio delivers the <Message> body back to the
// sender, so no outbound API call is needed.
type WebhookHandler struct {
	controller      *conversation.Controller
	tracker         *dedupe.Tracker
	catalog         *i18n.Catalog
	metrics         *metrics.IntakeMetrics
	logger          *logging.Logger
	authToken       string
	defaultLanguage string
}

// WebhookConfig wires the webhook handler. AuthToken empty disables
// signature validation (local development only).
type WebhookConfig struct {
	Controller      *conversation.Controller
	Tracker         *dedupe.Tracker
	Catalog         *i18n.Catalog
	Metrics         *metrics.IntakeMetrics
	Logger          *logging.Logger
	AuthToken       string
	DefaultLanguage string
}

// NewWebhookHandler creates the handler. Controller and Catalog are
// required.
func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	if cfg.Controller == nil {
		panic("handlers: controller cannot be nil")
	}
	if cfg.Catalog == nil {
		panic("handlers: catalog cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	lang := cfg.DefaultLanguage
	if lang == "" {
		lang = "en"
	}
	return &WebhookHandler{
		controller:      cfg.Controller,
		tracker:         cfg.Tracker,
		catalog:         cfg.Catalog,
		metrics:         cfg.Metrics,
		logger:          logger,
		authToken:       cfg.AuthToken,
		defaultLanguage: lang,
	}
}

// WhatsAppWebhook handles POST /webhooks/twilio/whatsapp.
//
// Twilio retries on non-2xx, so malformed payloads and duplicate
// deliveries are acknowledged with 200 rather than rejected: a retry
// would produce the same result and a second reply to the user.
func (h *WebhookHandler) WhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.authToken != "" {
		if !ValidateTwilioSignature(r, h.authToken, buildAbsoluteURL(r)) {
			h.logger.Warn("invalid twilio signature", "path", r.URL.Path)
			h.observe("unauthorized", start)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		h.observe("bad_request", start)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sender := strings.TrimSpace(webhook.From)
	body := strings.TrimSpace(webhook.Body)
	if sender == "" || body == "" {
		h.logger.Warn("webhook missing sender or body", "message_sid", webhook.MessageSid)
		h.observe("invalid_message", start)
		h.writeTwiML(w, h.catalog.Resolve(h.defaultLanguage, i18n.KeyInvalid, nil))
		return
	}

	if webhook.MessageSid != "" {
		seen, err := h.tracker.AlreadyProcessed(r.Context(), dedupeProvider, webhook.MessageSid)
		if err != nil {
			h.logger.Warn("dedupe check failed, processing anyway", "error", err, "message_sid", webhook.MessageSid)
		} else if seen {
			h.logger.Info("duplicate webhook ignored", "message_sid", webhook.MessageSid)
			h.observe("duplicate", start)
			h.writeTwiML(w, "")
			return
		}
	}

	reply := h.controller.HandleMessage(r.Context(), sender, body)

	if webhook.MessageSid != "" {
		if _, err := h.tracker.MarkProcessed(r.Context(), dedupeProvider, webhook.MessageSid); err != nil {
			h.logger.Warn("failed to mark webhook processed", "error", err, "message_sid", webhook.MessageSid)
		}
	}

	h.logger.Info("webhook processed",
		"message_sid", webhook.MessageSid,
		"template", string(reply.Key),
		"language", reply.Language,
	)
	h.observe("ok", start)
	h.writeTwiML(w, reply.Text)
}

func (h *WebhookHandler) observe(status string, start time.Time) {
	h.metrics.ObserveInbound(status)
	h.metrics.ObserveWebhookLatency(status, time.Since(start).Seconds())
}

// writeTwiML answers with a TwiML document. An empty message produces
// an empty <Response/>, which acknowledges without replying.
func (h *WebhookHandler) writeTwiML(w http.ResponseWriter, message string) {
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Response>`)
	if message != "" {
		doc.WriteString("<Message>")
		_ = xml.EscapeText(&doc, []byte(message))
		doc.WriteString("</Message>")
	}
	doc.WriteString("</Response>")

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc.String()))
}

// HealthCheck returns a simple health check response.
func (h *WebhookHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
