// Package booking defines the gateway contract for creating calendar
// appointments from a resolved conversation.
package booking

import (
	"context"
	"time"
)

// Request carries everything the gateway needs to create an appointment.
// Start must have an explicit UTC offset attached.
type Request struct {
	Start    time.Time
	Duration time.Duration
	Name     string
	Email    string
	Phone    string
	Notes    string
}

// Gateway creates an appointment with an external scheduling service.
// Implementations perform a blocking network round-trip and must honor
// ctx cancellation; the caller imposes the timeout.
type Gateway interface {
	CreateBooking(ctx context.Context, req Request) error
}
