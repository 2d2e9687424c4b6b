package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/commlog/internal/provider"
)

func TestListMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/AC1/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC1", user)
		assert.Equal(t, "tok", pass)
		q := r.URL.Query()
		assert.Equal(t, "30", q.Get("PageSize"))
		assert.Equal(t, "2", q.Get("Page"))
		assert.Equal(t, "2024-05-01", q.Get("DateSent>"))
		assert.Empty(t, q.Get("DateSent<"))
		_, _ = w.Write([]byte(`{"messages":[{"sid":"SM1","body":"hi"}],"page":2,"page_size":30}`))
	}))
	defer srv.Close()

	c := New(Options{HTTPOptions: provider.HTTPOptions{BaseURL: srv.URL}, AccountSID: "AC1", AuthToken: "tok"})
	recs, err := c.ListMessages(context.Background(), provider.MessageQuery{
		Limit:     30,
		Offset:    60,
		DateAfter: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.JSONEq(t, `{"sid":"SM1","body":"hi"}`, string(recs[0]))
}

func TestListMessagesRequiresSID(t *testing.T) {
	c := New(Options{})
	_, err := c.ListMessages(context.Background(), provider.MessageQuery{Limit: 10})
	assert.Error(t, err)
}
