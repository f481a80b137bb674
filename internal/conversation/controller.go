// Package conversation drives the intake state machine: it classifies
// inbound messages, collects contact fields, resolves a requested time,
// and hands completed requests to the booking gateway.
package conversation

import (
	"context"
	"time"

	"github.com/bookline-ai/intake-agent/internal/booking"
	"github.com/bookline-ai/intake-agent/internal/contacts"
	"github.com/bookline-ai/intake-agent/internal/extract"
	"github.com/bookline-ai/intake-agent/internal/i18n"
	"github.com/bookline-ai/intake-agent/internal/observability/metrics"
	"github.com/bookline-ai/intake-agent/internal/timeparse"
	"github.com/bookline-ai/intake-agent/pkg/logging"
)

// Reply is the single outbound message produced for an inbound one.
type Reply struct {
	Text     string
	Key      i18n.Key
	Language string
}

// Config wires the controller's collaborators.
type Config struct {
	Store           *contacts.Store
	Resolver        *timeparse.Resolver
	Gateway         booking.Gateway
	Catalog         *i18n.Catalog
	Detector        *i18n.Detector
	Logger          *logging.Logger
	Metrics         *metrics.IntakeMetrics
	BookingTimeout  time.Duration
	BookingDuration time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Controller orchestrates the two-stage booking conversation. It is the
// only component that mutates contact records or calls the gateway.
type Controller struct {
	store           *contacts.Store
	resolver        *timeparse.Resolver
	gateway         booking.Gateway
	catalog         *i18n.Catalog
	detector        *i18n.Detector
	logger          *logging.Logger
	metrics         *metrics.IntakeMetrics
	bookingTimeout  time.Duration
	bookingDuration time.Duration
	now             func() time.Time
}

// New creates a controller. Store, Resolver, Gateway, Catalog, and
// Detector are required.
func New(cfg Config) *Controller {
	if cfg.Store == nil || cfg.Resolver == nil || cfg.Gateway == nil || cfg.Catalog == nil || cfg.Detector == nil {
		panic("conversation: store, resolver, gateway, catalog, and detector are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.BookingTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	duration := cfg.BookingDuration
	if duration <= 0 {
		duration = 30 * time.Minute
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		store:           cfg.Store,
		resolver:        cfg.Resolver,
		gateway:         cfg.Gateway,
		catalog:         cfg.Catalog,
		detector:        cfg.Detector,
		logger:          logger,
		metrics:         cfg.Metrics,
		bookingTimeout:  timeout,
		bookingDuration: duration,
		now:             now,
	}
}

// HandleMessage processes one inbound message from a contact and
// returns the reply to deliver. The caller guarantees sender and body
// are non-empty. The whole read-merge-transition sequence runs under
// the contact's lock, so concurrent messages from one sender serialize.
func (c *Controller) HandleMessage(ctx context.Context, sender, body string) Reply {
	lang := c.detector.Detect(body)

	var reply Reply
	c.store.Update(sender, func(rec *contacts.Record) {
		reply = c.dispatch(ctx, lang, body, rec)
	})

	c.metrics.ObserveReply(string(reply.Key), lang)
	return reply
}

// dispatch routes the message by stage. The intent pre-filter sits in
// front of the state machine: an appointment keyword or an active
// intake cycle pulls the message into the extraction flow; otherwise
// the first matching FAQ rule answers. A message carrying an email or
// phone number also enters the flow, since contact details are a far
// stronger booking signal than the absence of a keyword.
func (c *Controller) dispatch(ctx context.Context, lang, body string, rec *contacts.Record) Reply {
	if rec.Stage == contacts.StageWaitingForTime {
		return c.handleTimeSelection(ctx, lang, body, rec)
	}

	intent, faqKey := classify(body)
	switch {
	case intent == IntentAppointment || rec.Engaged:
		return c.collectInfo(lang, body, rec)
	case intent != IntentNone:
		return c.reply(lang, faqKey, nil)
	default:
		if _, ok := extract.Email(body); ok {
			return c.collectInfo(lang, body, rec)
		}
		if _, ok := extract.Phone(body); ok {
			return c.collectInfo(lang, body, rec)
		}
		return c.reply(lang, faqKey, nil)
	}
}

// collectInfo merges extracted fields (first-write-wins) and either
// prompts for what is still missing or advances to time selection.
func (c *Controller) collectInfo(lang, body string, rec *contacts.Record) Reply {
	rec.Engaged = true

	name, _ := extract.Name(body)
	email, _ := extract.Email(body)
	phone, _ := extract.Phone(body)
	rec.Merge(name, email, phone)

	missing := rec.Missing()
	if len(missing) == 0 {
		rec.Stage = contacts.StageWaitingForTime
		return c.reply(lang, i18n.KeyAppointmentNextStep, nil)
	}
	if len(missing) == 3 {
		return c.reply(lang, i18n.KeyAppointment, nil)
	}
	switch missing[0] {
	case "name":
		return c.reply(lang, i18n.KeyAskName, nil)
	case "email":
		return c.reply(lang, i18n.KeyAskEmail, nil)
	default:
		return c.reply(lang, i18n.KeyAskPhone, nil)
	}
}

// handleTimeSelection resolves the requested time and attempts the
// booking. Both outcomes complete the cycle: the record resets to
// collecting with fields cleared, so a failed booking never leaves the
// contact stuck waiting.
func (c *Controller) handleTimeSelection(ctx context.Context, lang, body string, rec *contacts.Record) Reply {
	start := c.resolver.Resolve(body, c.now())

	req := booking.Request{
		Start:    start,
		Duration: c.bookingDuration,
		Name:     rec.Name,
		Email:    rec.Email,
		Phone:    rec.Phone,
		Notes:    "Booked via WhatsApp by " + rec.Name,
	}

	bookCtx, cancel := context.WithTimeout(ctx, c.bookingTimeout)
	defer cancel()
	err := c.gateway.CreateBooking(bookCtx, req)

	rec.Reset()

	if err != nil {
		c.logger.Error("booking attempt failed", "error", err, "start", start)
		c.metrics.ObserveBooking("failure")
		return c.reply(lang, i18n.KeyAppointmentError, nil)
	}

	c.logger.Info("booking created", "start", start, "email", req.Email)
	c.metrics.ObserveBooking("success")
	return c.reply(lang, i18n.KeyAppointmentConfirmed, map[string]any{
		"Date": start.Format("2006-01-02"),
		"Time": start.Format("03:04 PM"),
	})
}

func (c *Controller) reply(lang string, key i18n.Key, data map[string]any) Reply {
	return Reply{
		Text:     c.catalog.Resolve(lang, key, data),
		Key:      key,
		Language: lang,
	}
}
