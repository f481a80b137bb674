// Package calcom implements the booking gateway against the Cal.com v2
// bookings API.
package calcom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bookline-ai/intake-agent/internal/booking"
)

const (
	defaultBaseURL   = "https://api.cal.com/v2"
	defaultUserAgent = "intake-agent/0.1"
)

// Config controls how the Cal.com client behaves.
type Config struct {
	BaseURL     string
	APIKey      string
	EventTypeID int
	Timezone    string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
	UserAgent   string
}

// Client wraps the Cal.com bookings endpoint.
type Client struct {
	apiKey      string
	baseURL     string
	eventTypeID int
	timezone    string
	httpClient  *http.Client
	logger      *slog.Logger
	userAgent   string
}

// New creates a configured Client with sane defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("calcom: API key is required")
	}
	if cfg.EventTypeID == 0 {
		return nil, errors.New("calcom: event type id is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	timezone := strings.TrimSpace(cfg.Timezone)
	if timezone == "" {
		timezone = "UTC"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		eventTypeID: cfg.EventTypeID,
		timezone:    timezone,
		httpClient:  httpClient,
		logger:      logger,
		userAgent:   userAgent,
	}, nil
}

type bookingPayload struct {
	EventTypeID int               `json:"eventTypeId"`
	Start       string            `json:"start"`
	End         string            `json:"end"`
	TimeZone    string            `json:"timeZone"`
	Language    string            `json:"language"`
	Metadata    map[string]string `json:"metadata"`
	Responses   bookingResponses  `json:"responses"`
}

type bookingResponses struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes,omitempty"`
}

// CreateBooking posts a single booking request. A non-2xx response is an
// error; there is no retry, the caller decides how failures surface to
// the user.
func (c *Client) CreateBooking(ctx context.Context, req booking.Request) error {
	start := req.Start
	end := start.Add(req.Duration)

	body, err := json.Marshal(bookingPayload{
		EventTypeID: c.eventTypeID,
		Start:       start.Format(time.RFC3339),
		End:         end.Format(time.RFC3339),
		TimeZone:    c.timezone,
		Language:    "en",
		Metadata:    map[string]string{},
		Responses: bookingResponses{
			Name:  req.Name,
			Email: req.Email,
			Phone: req.Phone,
			Notes: req.Notes,
		},
	})
	if err != nil {
		return fmt.Errorf("calcom: marshal booking body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bookings", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("calcom: build booking request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calcom: booking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn("cal.com booking rejected",
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(detail)),
		)
		return fmt.Errorf("calcom: booking returned status %d", resp.StatusCode)
	}
	return nil
}
