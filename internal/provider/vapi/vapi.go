// Package vapi lists voice-agent call records from a VAPI-style REST API.
package vapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rzbill/commlog/internal/provider"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.vapi.ai"

// Options configure a Client.
type Options struct {
	provider.HTTPOptions
	APIKey string
}

// Client implements provider.CallLister.
type Client struct {
	base   string
	apiKey string
	doer   *provider.HTTPDoer
}

var _ provider.CallLister = (*Client)(nil)

// New builds a client. An empty BaseURL uses DefaultBaseURL.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{base: base, apiKey: opts.APIKey, doer: provider.NewHTTPDoer("vapi", opts.HTTPOptions)}
}

// ListCalls fetches up to q.Limit calls created at or before q.CreatedBefore.
func (c *Client) ListCalls(ctx context.Context, q provider.CallQuery) ([][]byte, error) {
	v := url.Values{}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if !q.CreatedBefore.IsZero() {
		v.Set("createdAtLe", q.CreatedBefore.UTC().Format(time.RFC3339Nano))
	}
	if !q.CreatedAfter.IsZero() {
		v.Set("createdAtGe", q.CreatedAfter.UTC().Format(time.RFC3339Nano))
	}
	u := c.base + "/call"
	if len(v) > 0 {
		u += "?" + v.Encode()
	}
	body, err := c.doer.Get(ctx, u, func(r *http.Request) {
		if c.apiKey != "" {
			r.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
	})
	if err != nil {
		return nil, err
	}
	return provider.SplitRecords(body, "results", "calls")
}
