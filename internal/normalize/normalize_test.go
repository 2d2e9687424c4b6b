package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/commlog/internal/commlog"
)

func TestNormalizeNestedCall(t *testing.T) {
	raw := []byte(`{
		"id": "call_1",
		"type": "outboundPhoneCall",
		"status": "ended",
		"endedReason": "customer-ended-call",
		"customer": {"number": "+1 (555) 123-4567"},
		"phoneNumber": {"number": "+15550001111"},
		"createdAt": "2024-05-01T12:00:00.000Z",
		"startedAt": "2024-05-01T12:00:05.000Z",
		"endedAt": "2024-05-01T12:01:05.000Z",
		"cost": 0.12,
		"artifact": {"recordingUrl": "https://rec/1.wav", "transcript": "hi"},
		"analysis": {"summary": "short call"}
	}`)
	e, err := New().Normalize(raw, commlog.KindCall)
	require.NoError(t, err)

	assert.Equal(t, "call_1", e.ID)
	assert.Equal(t, commlog.KindCall, e.Kind)
	assert.Equal(t, commlog.DirectionOutbound, e.Direction)
	assert.Equal(t, "+15551234567", e.CounterpartyNumber)
	assert.Equal(t, "+15550001111", e.OwnNumber)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), e.Timestamp)
	require.NotNil(t, e.Call)
	assert.Equal(t, 60.0, e.Call.DurationSeconds)
	assert.Equal(t, "https://rec/1.wav", e.Call.RecordingURL)
	assert.Equal(t, "hi", e.Call.Transcript)
	assert.Equal(t, "short call", e.Call.Summary)
	assert.Equal(t, commlog.UnknownCarrier, e.Call.Carrier)
	assert.Nil(t, e.Message)
}

func TestNormalizeFlatInboundCall(t *testing.T) {
	raw := []byte(`{"sid":"CA1","from":"5551234567","to":"+15550001111","direction":"inbound","duration":"42","date_created":"Wed, 18 Aug 2010 20:01:40 +0000"}`)
	e, err := New().Normalize(raw, commlog.KindCall)
	require.NoError(t, err)
	assert.Equal(t, "CA1", e.ID)
	assert.Equal(t, commlog.DirectionInbound, e.Direction)
	assert.Equal(t, "+15551234567", e.CounterpartyNumber)
	assert.Equal(t, "+15550001111", e.OwnNumber)
	assert.Equal(t, 42.0, e.Call.DurationSeconds)
	assert.Equal(t, time.Date(2010, 8, 18, 20, 1, 40, 0, time.UTC), e.Timestamp)
}

func TestNormalizeMessage(t *testing.T) {
	raw := []byte(`{"sid":"SM1","from":"+15550001111","to":"+44 20 7946 0958","direction":"outbound-api","body":"hello","status":"delivered","num_segments":"2","price":"-0.0075","error_code":null,"date_sent":"Thu, 02 May 2024 09:30:00 +0000"}`)
	e, err := New().Normalize(raw, commlog.KindMessage)
	require.NoError(t, err)
	assert.Equal(t, commlog.DirectionOutbound, e.Direction)
	assert.Equal(t, "+442079460958", e.CounterpartyNumber)
	assert.Equal(t, "+15550001111", e.OwnNumber)
	require.NotNil(t, e.Message)
	assert.Equal(t, "hello", e.Message.Body)
	assert.Equal(t, 2, e.Message.Segments)
	assert.Zero(t, e.Message.ErrorCode)
	assert.Equal(t, commlog.UnknownCarrier, e.Message.Carrier)
	assert.Equal(t, 2024, e.Timestamp.Year())
}

func TestNormalizeSentinels(t *testing.T) {
	// no direction, no dates, no carrier
	e, err := New().Normalize([]byte(`{"sid":"SM2","to":"555 000 2222"}`), commlog.KindMessage)
	require.NoError(t, err)
	assert.Equal(t, commlog.DirectionUnknown, e.Direction)
	assert.True(t, e.Timestamp.IsZero())
	assert.Equal(t, commlog.UnknownCarrier, e.Message.Carrier)
}

func TestNormalizeMissingIdentity(t *testing.T) {
	n := New()
	tests := []struct {
		name  string
		raw   string
		kind  commlog.Kind
		field string
	}{
		{"call without id", `{"customer":{"number":"+15551234567"}}`, commlog.KindCall, "id"},
		{"call without number", `{"id":"c1","type":"webCall"}`, commlog.KindCall, "counterpartyNumber"},
		{"message without id", `{"to":"+15551234567"}`, commlog.KindMessage, "id"},
		{"inbound message without from", `{"sid":"SM3","direction":"inbound","to":"+1555"}`, commlog.KindMessage, "counterpartyNumber"},
		{"malformed json", `{"id":`, commlog.KindCall, "record"},
		{"array", `[1,2]`, commlog.KindCall, "record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize([]byte(tt.raw), tt.kind)
			var ne *commlog.NormalizationError
			require.True(t, errors.As(err, &ne), "got %v", err)
			assert.Equal(t, tt.field, ne.Field)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, want, ParseTimestamp("2024-05-01T12:00:00Z"))
	assert.Equal(t, want, ParseTimestamp("2024-05-01T14:00:00+02:00"))
	assert.Equal(t, want, ParseTimestamp("Wed, 01 May 2024 12:00:00 +0000"))
	assert.Equal(t, want, ParseTimestamp("1714564800"))
	assert.Equal(t, want, ParseTimestamp("1714564800000"))
	assert.True(t, ParseTimestamp("yesterday").IsZero())
	assert.True(t, ParseTimestamp("").IsZero())
}

func TestPhoneNormalization(t *testing.T) {
	variants := []string{"+1 (555) 123-4567", "15551234567", "555-123-4567", "555 123 4567", "5551234567"}
	for _, v := range variants {
		assert.Equal(t, "5551234567", ComparableDigits(v), v)
		assert.Equal(t, "+15551234567", PhoneNumber(v), v)
		// idempotent
		assert.Equal(t, ComparableDigits(v), ComparableDigits(PhoneNumber(v)), v)
	}
	assert.Equal(t, "client:alice", PhoneNumber("client:alice"))
	assert.Equal(t, "", ComparableDigits("client:alice"))
}
