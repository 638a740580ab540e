package firms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/domain"
	"github.com/couchcryptid/wildfire-hotspot-etl/internal/observability"
)

// ErrBodyTooLarge is wrapped by the RetrievalError for oversized feeds.
var ErrBodyTooLarge = errors.New("feed body exceeds size limit")

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 10 * time.Second
)

// Client downloads FIRMS active-fire CSV feeds.
// It implements pipeline.FeedRetriever.
type Client struct {
	httpClient     *http.Client
	maxBodyBytes   int64
	retries        int
	initialBackoff time.Duration
	metrics        *observability.Metrics
	logger         *slog.Logger
}

// NewClient creates a feed client. Each attempt is bounded by timeout and
// bodies larger than maxBodyBytes are rejected. Transport errors and 5xx
// responses are retried up to retries times with exponential backoff.
func NewClient(timeout time.Duration, maxBodyBytes int64, retries int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		maxBodyBytes:   maxBodyBytes,
		retries:        retries,
		initialBackoff: initialBackoff,
		metrics:        metrics,
		logger:         logger,
	}
}

// Fetch returns the raw CSV body of src. Every failure is a *domain.RetrievalError.
func (c *Client) Fetch(ctx context.Context, src domain.Source) ([]byte, error) {
	start := time.Now()
	defer func() {
		c.metrics.FeedDuration.WithLabelValues(src.Name).Observe(time.Since(start).Seconds())
	}()

	backoff := c.initialBackoff
	for attempt := 0; ; attempt++ {
		body, err := c.fetchOnce(ctx, src)
		if err == nil {
			c.metrics.FeedFetches.WithLabelValues(src.Name, "success").Inc()
			c.metrics.FeedBytes.WithLabelValues(src.Name).Add(float64(len(body)))
			return body, nil
		}
		if attempt >= c.retries || !retryable(ctx, err) {
			c.metrics.FeedFetches.WithLabelValues(src.Name, "error").Inc()
			return nil, err
		}

		c.logger.Warn("feed fetch failed, retrying",
			"source", src.Name,
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			c.metrics.FeedFetches.WithLabelValues(src.Name, "error").Inc()
			return nil, &domain.RetrievalError{Source: src.Name, URL: src.URL, Err: ctx.Err()}
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (c *Client) fetchOnce(ctx context.Context, src domain.Source) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, &domain.RetrievalError{Source: src.Name, URL: src.URL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.RetrievalError{Source: src.Name, URL: src.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.RetrievalError{
			Source:     src.Name,
			URL:        src.URL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	// Read one byte past the limit so an oversized body is detectable.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &domain.RetrievalError{Source: src.Name, URL: src.URL, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, &domain.RetrievalError{
			Source: src.Name,
			URL:    src.URL,
			Err:    fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, c.maxBodyBytes),
		}
	}
	return body, nil
}

// retryable reports whether a failed attempt may succeed on a second try.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var re *domain.RetrievalError
	if !errors.As(err, &re) {
		return false
	}
	if re.StatusCode == 0 {
		return !errors.Is(re.Err, ErrBodyTooLarge)
	}
	return re.StatusCode >= 500 || re.StatusCode == http.StatusTooManyRequests
}
