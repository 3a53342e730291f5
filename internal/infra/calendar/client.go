package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/infra/httpclient"
)

type Config struct {
	BaseURL             string
	APIKey              string
	Timeout             time.Duration
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// Client creates events in the external calendar. Calls go through a circuit
// breaker so a dead provider fails fast instead of tying up dispatch workers.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

type createEventRequest struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees"`
}

type createEventResponse struct {
	ID *string `json:"id"`
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("calendar base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := cfg.ConsecutiveFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "calendar",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		http:    httpclient.New(cfg.Timeout),
		breaker: breaker,
		logger:  logger,
	}, nil
}

// CreateEvent returns the provider's event id. An empty id with a nil error
// means the provider accepted the request without creating an event.
func (c *Client) CreateEvent(ctx context.Context, event model.CalendarEvent) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.createEvent(ctx, event)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("calendar provider unavailable: %w", err)
		}
		return "", err
	}
	id, _ := result.(string)
	return id, nil
}

func (c *Client) createEvent(ctx context.Context, event model.CalendarEvent) (string, error) {
	var headers map[string]string
	if c.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + c.apiKey}
	}
	var payload createEventResponse
	_, err := httpclient.PostJSON(ctx, c.http, c.baseURL+"/events", headers, createEventRequest{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       event.Start.UTC(),
		End:         event.End.UTC(),
		Attendees:   event.AttendeeEmails,
	}, &payload)
	if err != nil {
		return "", fmt.Errorf("calendar provider: %w", err)
	}
	if payload.ID == nil {
		return "", nil
	}
	return strings.TrimSpace(*payload.ID), nil
}

func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
