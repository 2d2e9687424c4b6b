package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRecords(t *testing.T) {
	recs, err := SplitRecords([]byte(`[{"id":"a"},{"id":"b"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.JSONEq(t, `{"id":"a"}`, string(recs[0]))

	recs, err = SplitRecords([]byte(`{"messages":[{"sid":"SM1"}],"page":0}`), "results", "messages")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.JSONEq(t, `{"sid":"SM1"}`, string(recs[0]))

	_, err = SplitRecords([]byte(`{"page":0}`), "messages")
	assert.Error(t, err)
	_, err = SplitRecords([]byte(`nope`))
	assert.Error(t, err)
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(&StatusError{StatusCode: 401}))
	assert.True(t, IsPermanent(fmt.Errorf("wrapped: %w", &StatusError{StatusCode: 404})))
	assert.False(t, IsPermanent(&StatusError{StatusCode: 429}))
	assert.False(t, IsPermanent(&StatusError{StatusCode: 503}))
	assert.True(t, IsPermanent(context.Canceled))
	assert.False(t, IsPermanent(fmt.Errorf("connection reset")))
}

func TestHTTPDoerStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	d := NewHTTPDoer("test", HTTPOptions{RequestsPerSecond: 100, Burst: 1})
	_, err := d.Get(context.Background(), srv.URL, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "maintenance", se.Body)
	assert.True(t, se.Temporary())
}
