package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-web/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
	"github.com/jwalitptl/medbook-web/pkg/metrics"
)

type Config struct {
	BaseURL string                  `mapstructure:"base_url"`
	Timeout time.Duration           `mapstructure:"timeout"`
	Breaker circuitbreaker.Settings `mapstructure:"breaker"`
}

// envelope is the backend's response wrapper. error == 0 means success.
type envelope struct {
	Error        int             `json:"error"`
	Data         json.RawMessage `json:"data"`
	ErrorMessage struct {
		Message string `json:"message"`
	} `json:"errorMessage"`
}

// Client calls the booking backend. Every outcome is normalised to either a
// decoded result, an apperrors Rejected error or an apperrors Unavailable error.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
}

func NewClient(cfg Config, m *metrics.Metrics) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	settings := cfg.Breaker
	if settings.Name == "" {
		settings.Name = "booking-backend"
	}
	// A refusal from a healthy backend must not open the breaker.
	settings.IsSuccessful = func(err error) bool {
		return !apperrors.HasCode(err, apperrors.ErrUnavailable)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		cb:      circuitbreaker.NewCircuitBreaker(settings),
		metrics: m,
	}
}

// BreakerState reports the circuit breaker state for readiness checks.
func (c *Client) BreakerState() string {
	return c.cb.State()
}

type call struct {
	op     string
	method string
	path   string
	token  string
	body   interface{}
}

// do performs the call and returns the raw response body for 2xx answers.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	var raw []byte
	start := time.Now()

	err := c.cb.Execute(func() error {
		var err error
		raw, err = c.roundTrip(ctx, cl)
		return err
	})

	outcome := "ok"
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		outcome = "breaker_open"
		err = apperrors.Unavailable(err)
	case apperrors.HasCode(err, apperrors.ErrRejected):
		outcome = "rejected"
	case err != nil:
		outcome = "unavailable"
	}
	c.metrics.ObserveBackend(cl.op, outcome, time.Since(start))

	if err != nil && outcome != "rejected" {
		log.Warn().Err(err).Str("operation", cl.op).Msg("backend call failed")
	}
	return raw, err
}

func (c *Client) roundTrip(ctx context.Context, cl call) ([]byte, error) {
	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to marshal %s request: %w", cl.op, err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to build %s request: %w", cl.op, err))
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("%s request failed: %w", cl.op, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to read %s response: %w", cl.op, err))
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, apperrors.Unavailable(fmt.Errorf("%s: backend returned %d", cl.op, resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var env envelope
		if json.Unmarshal(raw, &env) != nil {
			return nil, apperrors.Unavailable(fmt.Errorf("%s: backend returned %d", cl.op, resp.StatusCode))
		}
		return nil, apperrors.Rejected(env.ErrorMessage.Message)
	}
	return raw, nil
}

// doEnvelope performs the call and returns the data of a successful envelope.
func (c *Client) doEnvelope(ctx context.Context, cl call) (json.RawMessage, error) {
	raw, err := c.do(ctx, cl)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to decode %s response: %w", cl.op, err))
	}
	if env.Error != 0 {
		return nil, apperrors.Rejected(env.ErrorMessage.Message)
	}
	return env.Data, nil
}

// hasData reports whether data is present and not a falsy JSON value.
func hasData(data json.RawMessage) bool {
	switch strings.TrimSpace(string(data)) {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}

// messageOf extracts a message from data that is either a string or an
// object with a message field.
func messageOf(data json.RawMessage) string {
	var s string
	if json.Unmarshal(data, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &obj) == nil {
		return obj.Message
	}
	return ""
}
