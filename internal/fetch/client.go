// Package fetch implements the remote course API client: parameter building,
// bounded retry with exponential backoff, rate limiting, and mapping of
// transport outcomes onto the error taxonomy.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"coursegrab/internal/core"
	"coursegrab/internal/metrics"
	"coursegrab/internal/normalize"
	"coursegrab/internal/ratelimit"
)

// DefaultBaseURL is the public course listing endpoint.
const DefaultBaseURL = "https://cdn.real.discount/api/courses"

const userAgent = "coursegrab/1.0 (Educational Use)"

// Settings enumerate the tunables the UI settings surface persists.
type Settings struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	PageSize      int
}

// DefaultSettings mirror the shipped application defaults.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:       DefaultBaseURL,
		Timeout:       10 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		PageSize:      20,
	}
}

// Client fetches course pages from the remote API. Safe for concurrent use;
// the embedded limiter serializes budget decisions.
type Client struct {
	settings Settings
	http     *resty.Client
	limiter  *ratelimit.Limiter
	logger   *slog.Logger

	// sleep is a seam so tests can observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client around the given limiter. A nil logger falls back
// to slog.Default.
func NewClient(settings Settings, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultSettings().Timeout
	}
	if settings.RetryAttempts < 1 {
		settings.RetryAttempts = 1
	}
	if settings.RetryDelay <= 0 {
		settings.RetryDelay = DefaultSettings().RetryDelay
	}
	if settings.PageSize <= 0 {
		settings.PageSize = DefaultSettings().PageSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := resty.New().
		SetTimeout(settings.Timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")

	return &Client{
		settings: settings,
		http:     httpClient,
		limiter:  limiter,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// GetCourses fetches one normalized page of courses.
//
// A limiter denial fails fast with a rate_limited error carrying the
// suggested wait; no retry loop is entered. Transport and HTTP failures are
// retried up to RetryAttempts with retry_delay * 2^attempt backoff, and the
// final attempt's error is returned unchanged.
func (c *Client) GetCourses(ctx context.Context, query core.Query) (*core.FetchResult, error) {
	query = query.Normalized()

	if !c.limiter.CanMakeRequest() {
		wait := c.limiter.WaitTime()
		metrics.RateLimited.Inc()
		return nil, core.NewRateLimitedError(wait)
	}

	params := c.buildParams(query)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt < c.settings.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.settings.RetryDelay * (1 << (attempt - 1))
			c.logger.Warn("course fetch failed, retrying",
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr,
			)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
		}

		c.limiter.RecordRequest()
		metrics.FetchAttempts.Inc()

		result, err := c.doRequest(ctx, params)
		if err != nil {
			lastErr = err
			continue
		}

		result.Metadata = core.Metadata{
			FetchedAt:  time.Now().UTC(),
			Page:       query.Page,
			Category:   query.Category,
			Sort:       query.Sort,
			Search:     query.Search,
			APIVersion: core.APIVersion,
		}
		metrics.FetchDuration.Observe(time.Since(start).Seconds())
		return result, nil
	}

	metrics.FetchErrors.WithLabelValues(string(core.AsAPIError(lastErr).Kind)).Inc()
	return nil, lastErr
}

// buildParams assembles the remote query string. "All" and unrecognized
// categories are omitted; the store and free-only filters are fixed.
func (c *Client) buildParams(query core.Query) map[string]string {
	params := map[string]string{
		"page":     strconv.Itoa(query.Page),
		"limit":    strconv.Itoa(c.settings.PageSize),
		"sortBy":   core.SortBy[query.Sort],
		"store":    "Udemy",
		"freeOnly": "true",
	}
	if query.Search != "" {
		params["search"] = query.Search
	}
	if query.Category != core.CategoryAll && core.ValidCategory(query.Category) {
		params["category"] = query.Category
	}
	return params
}

// doRequest performs one attempt and classifies the outcome.
func (c *Client) doRequest(ctx context.Context, params map[string]string) (*core.FetchResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.settings.BaseURL)
	if err != nil {
		return nil, c.classifyTransportError(err)
	}

	if resp.StatusCode() != 200 {
		return nil, core.FromStatus(resp.StatusCode(), string(resp.Body()))
	}

	body := resp.Body()
	if !gjson.ValidBytes(body) {
		return nil, core.NewInvalidResponseError("invalid JSON response", nil)
	}

	env, err := resolveEnvelope(gjson.ParseBytes(body))
	if err != nil {
		return nil, err
	}

	return &core.FetchResult{
		Items:       normalize.Items(env.items),
		TotalPages:  env.totalPages,
		CurrentPage: env.currentPage,
	}, nil
}

func (c *Client) classifyTransportError(err error) *core.APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.NewTimeoutError(c.settings.Timeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.NewTimeoutError(c.settings.Timeout, err)
	}
	return core.NewConnectionError(err)
}

// envelope is the enumerated union of response shapes the API emits:
// an object with an items array, a bare array, or a bare object. It is
// resolved once at the ingestion boundary, before normalization.
type envelope struct {
	items       []gjson.Result
	totalPages  int
	currentPage int
}

func resolveEnvelope(root gjson.Result) (envelope, error) {
	switch {
	case root.IsObject() && root.Get("items").Exists():
		env := envelope{
			items:       root.Get("items").Array(),
			totalPages:  pageCount(root.Get("totalPages")),
			currentPage: pageCount(root.Get("currentPage")),
		}
		return env, nil

	case root.IsArray():
		return envelope{items: root.Array(), totalPages: 1, currentPage: 1}, nil

	case root.IsObject():
		// A bare object is a single-item page; an empty object is an empty page.
		env := envelope{totalPages: 1, currentPage: 1}
		if len(root.Map()) > 0 {
			env.items = []gjson.Result{root}
		}
		return env, nil

	default:
		return envelope{}, core.NewInvalidResponseError("invalid response format: expected object or array", nil)
	}
}

func pageCount(v gjson.Result) int {
	if n := v.Int(); n >= 1 {
		return int(n)
	}
	return 1
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
