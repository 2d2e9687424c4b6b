// Package twilio lists SMS records from a Twilio-style REST API.
package twilio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rzbill/commlog/internal/provider"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.twilio.com"

// maxPageSize is the provider's per-request ceiling.
const maxPageSize = 1000

// Options configure a Client.
type Options struct {
	provider.HTTPOptions
	AccountSID string
	AuthToken  string
}

// Client implements provider.MessageLister.
type Client struct {
	base  string
	sid   string
	token string
	doer  *provider.HTTPDoer
}

var _ provider.MessageLister = (*Client)(nil)

// New builds a client. An empty BaseURL uses DefaultBaseURL.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{base: base, sid: opts.AccountSID, token: opts.AuthToken, doer: provider.NewHTTPDoer("twilio", opts.HTTPOptions)}
}

// ListMessages fetches one index page. The provider pages by page number,
// so q.Offset is converted with q.Limit as the page size.
func (c *Client) ListMessages(ctx context.Context, q provider.MessageQuery) ([][]byte, error) {
	if c.sid == "" {
		return nil, fmt.Errorf("twilio: account sid is not configured")
	}
	size := q.Limit
	if size <= 0 {
		size = 50
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	v := url.Values{}
	v.Set("PageSize", strconv.Itoa(size))
	v.Set("Page", strconv.Itoa(q.Offset/size))
	if !q.DateAfter.IsZero() {
		v.Set("DateSent>", q.DateAfter.UTC().Format("2006-01-02"))
	}
	if !q.DateBefore.IsZero() {
		v.Set("DateSent<", q.DateBefore.UTC().Format("2006-01-02"))
	}
	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json?%s", c.base, url.PathEscape(c.sid), v.Encode())
	body, err := c.doer.Get(ctx, u, func(r *http.Request) {
		r.SetBasicAuth(c.sid, c.token)
	})
	if err != nil {
		return nil, err
	}
	return provider.SplitRecords(body, "messages")
}
