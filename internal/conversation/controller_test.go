package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bookline-ai/intake-agent/internal/booking"
	"github.com/bookline-ai/intake-agent/internal/contacts"
	"github.com/bookline-ai/intake-agent/internal/i18n"
	"github.com/bookline-ai/intake-agent/internal/timeparse"
)

type stubGateway struct {
	mu       sync.Mutex
	requests []booking.Request
	err      error
}

func (g *stubGateway) CreateBooking(ctx context.Context, req booking.Request) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.err
}

func (g *stubGateway) last(t *testing.T) booking.Request {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		t.Fatalf("expected a booking request")
	}
	return g.requests[len(g.requests)-1]
}

type fixture struct {
	controller *Controller
	store      *contacts.Store
	gateway    *stubGateway
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	catalog, err := i18n.NewCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store := contacts.NewStore()
	gateway := &stubGateway{}
	controller := New(Config{
		Store:    store,
		Resolver: timeparse.NewResolver(time.UTC),
		Gateway:  gateway,
		Catalog:  catalog,
		Detector: i18n.NewDetector("en"),
		Now:      func() time.Time { return now },
	})
	return &fixture{controller: controller, store: store, gateway: gateway}
}

var testNow = time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

const sender = "whatsapp:+15551234567"

func TestFaqRepliesWithoutActiveIntake(t *testing.T) {
	f := newFixture(t, testNow)

	tests := []struct {
		body string
		want i18n.Key
	}{
		{"what is the price?", i18n.KeyPricing},
		{"where is your location?", i18n.KeyLocation},
		{"what are your hours?", i18n.KeyHours},
		{"do you offer delivery?", i18n.KeyDelivery},
		{"help please", i18n.KeyHelp},
		{"hello there", i18n.KeyDefault},
	}
	for _, tt := range tests {
		reply := f.controller.HandleMessage(context.Background(), sender, tt.body)
		if reply.Key != tt.want {
			t.Fatalf("HandleMessage(%q) key = %s, want %s", tt.body, reply.Key, tt.want)
		}
	}

	rec, ok := f.store.Get(sender)
	if !ok || rec.Engaged {
		t.Fatalf("FAQ traffic must not engage the contact, got %+v ok=%v", rec, ok)
	}
}

func TestBareAppointmentRequestGetsCombinedPrompt(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	reply := f.controller.HandleMessage(ctx, sender, "Appointment!")
	if reply.Key != i18n.KeyAppointment {
		t.Fatalf("expected combined prompt, got %s", reply.Key)
	}

	rec, _ := f.store.Get(sender)
	if !rec.Engaged || rec.Stage != contacts.StageCollectingInfo {
		t.Fatalf("expected engaged contact still collecting, got %+v", rec)
	}
	if rec.Name != "" || rec.Email != "" || rec.Phone != "" {
		t.Fatalf("expected no fields extracted from bare request, got %+v", rec)
	}

	// A follow-up with nothing recognizable repeats the combined prompt.
	reply = f.controller.HandleMessage(ctx, sender, "??")
	if reply.Key != i18n.KeyAppointment {
		t.Fatalf("expected combined prompt again, got %s", reply.Key)
	}
}

func TestContactDetailsStartIntakeWithoutKeyword(t *testing.T) {
	f := newFixture(t, testNow)

	reply := f.controller.HandleMessage(context.Background(), sender,
		"My name is Jane Doe, jane@example.com, 555-123-4567")
	if reply.Key != i18n.KeyAppointmentNextStep {
		t.Fatalf("expected time prompt, got %s", reply.Key)
	}

	rec, _ := f.store.Get(sender)
	if rec.Stage != contacts.StageWaitingForTime {
		t.Fatalf("expected waiting for time, got %s", rec.Stage)
	}
	if rec.Name != "Jane Doe" || rec.Email != "jane@example.com" || rec.Phone != "5551234567" {
		t.Fatalf("unexpected extracted fields: %+v", rec)
	}
}

func TestIncrementalIntakePromptsForNextMissingField(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	reply := f.controller.HandleMessage(ctx, sender, "Appointment!")
	if reply.Key != i18n.KeyAppointment {
		t.Fatalf("step 1: expected combined prompt, got %s", reply.Key)
	}

	reply = f.controller.HandleMessage(ctx, sender, "My name is Jane Doe")
	if reply.Key != i18n.KeyAskEmail {
		t.Fatalf("step 2: expected email prompt, got %s", reply.Key)
	}

	reply = f.controller.HandleMessage(ctx, sender, "jane@example.com")
	if reply.Key != i18n.KeyAskPhone {
		t.Fatalf("step 3: expected phone prompt, got %s", reply.Key)
	}

	reply = f.controller.HandleMessage(ctx, sender, "555-123-4567")
	if reply.Key != i18n.KeyAppointmentNextStep {
		t.Fatalf("step 4: expected time prompt, got %s", reply.Key)
	}
}

func TestFirstWriteWinsAcrossMessages(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	f.controller.HandleMessage(ctx, sender, "appointment, my name is Jane Doe")
	f.controller.HandleMessage(ctx, sender, "my name is Someone Else, jane@example.com")

	rec, _ := f.store.Get(sender)
	if rec.Name != "Jane Doe" {
		t.Fatalf("expected first-write-wins on name, got %q", rec.Name)
	}
	if rec.Email != "jane@example.com" {
		t.Fatalf("expected email merged, got %q", rec.Email)
	}
}

func TestTimeSelectionBooksAndResets(t *testing.T) {
	f := newFixture(t, testNow)
	ctx := context.Background()

	f.controller.HandleMessage(ctx, sender,
		"appointment: My name is Jane Doe, jane@example.com, 555-123-4567")
	reply := f.controller.HandleMessage(ctx, sender, "tomorrow at 3pm")

	if reply.Key != i18n.KeyAppointmentConfirmed {
		t.Fatalf("expected confirmation, got %s", reply.Key)
	}
	if !strings.Contains(reply.Text, "2024-01-11") || !strings.Contains(reply.Text, "03:00 PM") {
		t.Fatalf("confirmation missing date/time: %q", reply.Text)
	}

	req := f.gateway.last(t)
	want := time.Date(2024, 1, 11, 15, 0, 0, 0, time.UTC)
	if !req.Start.Equal(want) {
		t.Fatalf("booking start = %v, want %v", req.Start, want)
	}
	if req.Duration != 30*time.Minute {
		t.Fatalf("booking duration = %v, want 30m", req.Duration)
	}
	if req.Name != "Jane Doe" || req.Email != "jane@example.com" || req.Phone != "5551234567" {
		t.Fatalf("unexpected booking fields: %+v", req)
	}
	if req.Notes != "Booked via WhatsApp by Jane Doe" {
		t.Fatalf("unexpected notes: %q", req.Notes)
	}

	rec, _ := f.store.Get(sender)
	if rec.Stage != contacts.StageCollectingInfo || rec.Name != "" || rec.Engaged {
		t.Fatalf("expected reset after booking, got %+v", rec)
	}
}

func TestBookingFailureStillResets(t *testing.T) {
	f := newFixture(t, testNow)
	f.gateway.err = errors.New("upstream unavailable")
	ctx := context.Background()

	f.controller.HandleMessage(ctx, sender,
		"appointment: My name is Jane Doe, jane@example.com, 555-123-4567")
	reply := f.controller.HandleMessage(ctx, sender, "tomorrow at 3pm")

	if reply.Key != i18n.KeyAppointmentError {
		t.Fatalf("expected error reply, got %s", reply.Key)
	}

	rec, _ := f.store.Get(sender)
	if rec.Stage != contacts.StageCollectingInfo || rec.Name != "" {
		t.Fatalf("expected reset after failed booking, got %+v", rec)
	}
}

func TestRepliesFollowDetectedLanguage(t *testing.T) {
	f := newFixture(t, testNow)

	reply := f.controller.HandleMessage(context.Background(), sender,
		"Hola, quiero reservar una cita para un tratamiento, por favor")
	if reply.Language != "es" {
		t.Fatalf("expected Spanish detection, got %s", reply.Language)
	}
	if !strings.Contains(reply.Text, "Por favor") && !strings.Contains(reply.Text, "Perfecto") {
		t.Fatalf("expected Spanish template, got %q", reply.Text)
	}
}

func TestClassifyIntents(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"quiero una cita", IntentAppointment},
		{"je veux un rendez-vous", IntentAppointment},
		{"wie sind die Preise", IntentPricing},
		{"dove siete? posizione?", IntentLocation},
		{"horario de atención", IntentHours},
		{"fazem entrega?", IntentDelivery},
		{"Hilfe bitte", IntentHelp},
		{"buenas tardes", IntentNone},
	}
	for _, tt := range tests {
		got, _ := classify(tt.text)
		if got != tt.want {
			t.Fatalf("classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}
