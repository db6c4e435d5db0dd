// Package logless fetches logs and summaries from the hosted logless service.
package logless

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/V4T54L/voicewatch/internal/domain"
)

// DefaultBaseURL is the public logless API.
const DefaultBaseURL = "https://logless.bespoken.tools/v1"

const maxErrorBody = 512

// Client implements domain.LogSource and domain.SummarySource over the logless HTTP
// API. Outgoing calls share one rate limiter.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL string
	RPS     float64
	Burst   int
	Timeout time.Duration
}

// NewClient creates a logless client.
func NewClient(opts Options, logger *slog.Logger) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.With("component", "logless_client"),
	}
}

type queryResponse struct {
	Data []domain.LogRecord `json:"data"`
}

// ListLogs calls /query for the newest logs of the window.
func (c *Client) ListLogs(ctx context.Context, q domain.LogQuery) ([]domain.LogRecord, error) {
	params := windowParams(q.Source, q.Start, q.End)
	params.Set("date_sort", "desc")
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var resp queryResponse
	if err := c.get(ctx, "/query", params, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// TimeSummary calls /timeSummary.
func (c *Client) TimeSummary(ctx context.Context, q domain.SummaryQuery) (*domain.TimeSummary, error) {
	params := summaryParams(q)
	params.Set("date_sort", "asc")

	var resp domain.TimeSummary
	if err := c.get(ctx, "/timeSummary", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IntentSummary calls /intentCount.
func (c *Client) IntentSummary(ctx context.Context, q domain.SummaryQuery) (*domain.IntentSummary, error) {
	params := summaryParams(q)
	params.Set("count_sort", "desc")

	var resp domain.IntentSummary
	if err := c.get(ctx, "/intentCount", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SourceStats calls /sourceStats.
func (c *Client) SourceStats(ctx context.Context, q domain.SummaryQuery) (*domain.SourceStats, error) {
	var resp domain.SourceStats
	if err := c.get(ctx, "/sourceStats", summaryParams(q), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func windowParams(source string, start, end time.Time) url.Values {
	params := url.Values{}
	params.Set("source", source)
	if !start.IsZero() {
		params.Set("start_time", start.UTC().Format(time.RFC3339Nano))
	}
	if !end.IsZero() {
		params.Set("end_time", end.UTC().Format(time.RFC3339Nano))
	}
	return params
}

func summaryParams(q domain.SummaryQuery) url.Values {
	params := windowParams(q.Source, q.Start, q.End)
	if q.Granularity != "" {
		params.Set("granularity", q.Granularity)
	}
	if q.FillGaps {
		params.Set("fill_gaps", "true")
	}
	return params
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", domain.ErrUpstream, err)
	}

	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		c.logger.Error("logless request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("logless request", "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, params.Get("source"))
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("logless returned an error", "path", path, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%w: %s returned %d", domain.ErrUpstream, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", domain.ErrUpstream, path, err)
	}
	return nil
}
