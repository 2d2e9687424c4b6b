package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// HTTPOptions configures an HTTP provider client.
type HTTPOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	// RequestsPerSecond <= 0 disables client-side limiting.
	RequestsPerSecond float64
	Burst             int
}

// HTTPDoer performs rate limited JSON GETs against one provider.
type HTTPDoer struct {
	name    string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPDoer builds a doer for the named provider.
func NewHTTPDoer(name string, opts HTTPOptions) *HTTPDoer {
	c := opts.HTTPClient
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	var lim *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return &HTTPDoer{name: name, client: c, limiter: lim}
}

// Get waits for the rate limiter, issues the request built by prepare and
// returns the body of a 2xx response.
func (d *HTTPDoer) Get(ctx context.Context, url string, prepare func(*http.Request)) ([]byte, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if prepare != nil {
		prepare(req)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Provider: d.name, StatusCode: resp.StatusCode, Body: string(b)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", d.name, err)
	}
	return body, nil
}
