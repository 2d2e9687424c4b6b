// Package providertest provides an in-memory provider.Client for tests.
package providertest

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rzbill/commlog/internal/provider"
)

// OwnNumber is the account number used in generated records.
const OwnNumber = "+15550000000"

// Record describes a generated call or message.
type Record struct {
	ID        string
	Number    string
	Direction string // "inbound" or "outbound"
	At        time.Time
	Body      string
}

type stored struct {
	at  time.Time
	raw []byte
}

// Fake serves fixed datasets newest first with the same bound semantics as
// the real providers: call upper bounds are inclusive and messages page by
// offset.
type Fake struct {
	mu       sync.Mutex
	calls    []stored
	messages []stored

	// FailCalls, when set, may fail the n-th call request (1-based).
	FailCalls func(n int, q provider.CallQuery) error
	// FailMessages, when set, may fail the n-th message request (1-based).
	FailMessages func(n int, q provider.MessageQuery) error

	callReqs    int
	messageReqs int
}

var _ provider.Client = (*Fake)(nil)

func New() *Fake { return &Fake{} }

// AddCalls appends VAPI-shaped call records.
func (f *Fake) AddCalls(rs ...Record) {
	for _, r := range rs {
		f.AddRawCall(r.At, CallJSON(r))
	}
}

// AddMessages appends Twilio-shaped message records.
func (f *Fake) AddMessages(rs ...Record) {
	for _, r := range rs {
		f.AddRawMessage(r.At, MessageJSON(r))
	}
}

func (f *Fake) AddRawCall(at time.Time, raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = insertDesc(f.calls, stored{at: at, raw: raw})
}

func (f *Fake) AddRawMessage(at time.Time, raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = insertDesc(f.messages, stored{at: at, raw: raw})
}

func insertDesc(s []stored, r stored) []stored {
	s = append(s, r)
	sort.SliceStable(s, func(i, j int) bool { return s[i].at.After(s[j].at) })
	return s
}

// Requests reports how many call and message requests were served or failed.
func (f *Fake) Requests() (calls, messages int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callReqs, f.messageReqs
}

func (f *Fake) ListCalls(ctx context.Context, q provider.CallQuery) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callReqs++
	if f.FailCalls != nil {
		if err := f.FailCalls(f.callReqs, q); err != nil {
			return nil, err
		}
	}
	out := [][]byte{}
	for _, r := range f.calls {
		if len(out) == q.Limit {
			break
		}
		if !q.CreatedBefore.IsZero() && r.at.After(q.CreatedBefore) {
			continue
		}
		if !q.CreatedAfter.IsZero() && r.at.Before(q.CreatedAfter) {
			continue
		}
		out = append(out, r.raw)
	}
	return out, nil
}

func (f *Fake) ListMessages(ctx context.Context, q provider.MessageQuery) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageReqs++
	if f.FailMessages != nil {
		if err := f.FailMessages(f.messageReqs, q); err != nil {
			return nil, err
		}
	}
	var matched []stored
	for _, r := range f.messages {
		if !q.DateAfter.IsZero() && r.at.Before(q.DateAfter) {
			continue
		}
		if !q.DateBefore.IsZero() && r.at.After(q.DateBefore) {
			continue
		}
		matched = append(matched, r)
	}
	out := [][]byte{}
	for i := q.Offset; i < len(matched) && len(out) < q.Limit; i++ {
		out = append(out, matched[i].raw)
	}
	return out, nil
}

// CallJSON renders r in the nested VAPI call shape.
func CallJSON(r Record) []byte {
	typ := "outboundPhoneCall"
	if r.Direction == "inbound" {
		typ = "inboundPhoneCall"
	}
	b, _ := json.Marshal(map[string]any{
		"id":          r.ID,
		"type":        typ,
		"customer":    map[string]any{"number": r.Number},
		"phoneNumber": map[string]any{"number": OwnNumber},
		"createdAt":   r.At.UTC().Format(time.RFC3339Nano),
		"status":      "ended",
	})
	return b
}

// MessageJSON renders r in the Twilio message shape.
func MessageJSON(r Record) []byte {
	dir, from, to := "outbound-api", OwnNumber, r.Number
	if r.Direction == "inbound" {
		dir, from, to = "inbound", r.Number, OwnNumber
	}
	b, _ := json.Marshal(map[string]any{
		"sid":          r.ID,
		"direction":    dir,
		"from":         from,
		"to":           to,
		"body":         r.Body,
		"status":       "delivered",
		"num_segments": "1",
		"date_sent":    r.At.UTC().Format(time.RFC1123Z),
	})
	return b
}
