package retailer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopmate/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of a retailer response is read.
const maxBodyBytes = 10 << 20

// TransportConfig controls retries, timeouts and rate limiting for one retailer.
type TransportConfig struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	UserAgent    string
	// RequestsPerSecond <= 0 disables rate limiting.
	RequestsPerSecond float64
	Burst             int
}

// Request is a retailer-specific HTTP request built by an adapter.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Transport executes retailer requests with retries and a per-retailer rate limit.
type Transport struct {
	client      *retryablehttp.Client
	rateLimiter *rate.Limiter
	userAgent   string
	log         logrus.FieldLogger
}

// NewTransport creates a transport for one retailer.
func NewTransport(cfg TransportConfig, log logrus.FieldLogger) *Transport {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = cfg.Timeout
	client.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		client.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		client.RetryWaitMax = cfg.RetryWaitMax
	}
	client.Logger = leveledLogger{log: log}
	// Hand back the last response so non-2xx statuses are reported with their code.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Transport{
		client:      client,
		rateLimiter: rate.NewLimiter(limit, burst),
		userAgent:   cfg.UserAgent,
		log:         log,
	}
}

// Do waits for the rate limiter, sends the request and returns the body of a
// 2xx response. Any other outcome is an error wrapping domain.ErrRetailerFailure.
func (t *Transport) Do(ctx context.Context, r Request) ([]byte, error) {
	if err := t.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrRetailerFailure, err)
	}

	var body interface{}
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	for name, value := range r.Headers {
		req.Header.Set(name, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRetailerFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrRetailerFailure, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d", domain.ErrRetailerFailure, resp.StatusCode)
	}

	return data, nil
}

// leveledLogger bridges retryablehttp logging onto logrus.
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) with(keysAndValues []interface{}) logrus.FieldLogger {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.log.WithFields(fields)
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}
