package fetch

import (
	"context"
	"time"
)

// connectionProbeTimeout bounds the status probe independently of the
// configured request timeout.
const connectionProbeTimeout = 5 * time.Second

// Status describes remote API reachability for the UI status bar.
type Status struct {
	Accessible         bool    `json:"accessible"`
	ResponseTimeMS     float64 `json:"response_time_ms"`
	LastError          string  `json:"last_error,omitempty"`
	RateLimitRemaining int     `json:"rate_limit_remaining"`
}

// TestConnection issues a minimal request to check the API is reachable.
// The probe bypasses the rate limiter and the retry loop.
func (c *Client) TestConnection(ctx context.Context) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, connectionProbeTimeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(probeCtx).
		SetQueryParams(map[string]string{
			"page":     "1",
			"limit":    "1",
			"sortBy":   "sale_start",
			"store":    "Udemy",
			"freeOnly": "true",
		}).
		Get(c.settings.BaseURL)
	if err != nil {
		return false, c.classifyTransportError(err)
	}
	return resp.StatusCode() == 200, nil
}

// Status probes the API and reports reachability, response time, and the
// remaining rate-limit budget.
func (c *Client) Status(ctx context.Context) Status {
	status := Status{
		RateLimitRemaining: c.limiter.Remaining(),
	}

	start := time.Now()
	accessible, err := c.TestConnection(ctx)
	status.ResponseTimeMS = float64(time.Since(start).Milliseconds())
	status.Accessible = accessible
	if err != nil {
		status.LastError = err.Error()
	}
	return status
}
