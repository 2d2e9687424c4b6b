package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/rzbill/commlog/internal/commlog"
)

// Normalizer is safe for concurrent use.
type Normalizer struct {
	parsers fastjson.ParserPool
}

// New returns a Normalizer.
func New() *Normalizer { return &Normalizer{} }

// Normalize converts one raw record of the given kind.
func (n *Normalizer) Normalize(raw []byte, kind commlog.Kind) (commlog.LogEntry, error) {
	p := n.parsers.Get()
	defer n.parsers.Put(p)

	v, err := p.ParseBytes(raw)
	if err != nil {
		return commlog.LogEntry{}, &commlog.NormalizationError{Kind: kind, Field: "record", Reason: err.Error()}
	}
	if v.Type() != fastjson.TypeObject {
		return commlog.LogEntry{}, &commlog.NormalizationError{Kind: kind, Field: "record", Reason: "not an object"}
	}
	switch kind {
	case commlog.KindCall:
		return normalizeCall(v)
	case commlog.KindMessage:
		return normalizeMessage(v)
	default:
		return commlog.LogEntry{}, &commlog.NormalizationError{Kind: kind, Field: "kind", Reason: "unsupported"}
	}
}

// IdentityOf extracts only the id and timestamp of a raw record. The sandbox
// store uses it to key records without building full entries.
func (n *Normalizer) IdentityOf(raw []byte, kind commlog.Kind) (string, time.Time, error) {
	e, err := n.Normalize(raw, kind)
	if err != nil {
		return "", time.Time{}, err
	}
	return e.ID, e.Timestamp, nil
}

func normalizeCall(v *fastjson.Value) (commlog.LogEntry, error) {
	id := firstString(v, []string{"id"}, []string{"sid"})
	if id == "" {
		return commlog.LogEntry{}, &commlog.NormalizationError{Kind: commlog.KindCall, Field: "id", Reason: "missing"}
	}

	dir := commlog.ParseDirection(firstString(v, []string{"direction"}, []string{"type"}))
	counterparty := str(v, "customer", "number")
	own := firstString(v, []string{"phoneNumber", "number"}, []string{"phoneNumberNumber"})
	if counterparty == "" {
		// flat from/to shape
		from, to := str(v, "from"), str(v, "to")
		if dir == commlog.DirectionInbound {
			counterparty, own = from, firstNonEmpty(own, to)
		} else {
			counterparty, own = to, firstNonEmpty(own, from)
		}
	}
	if counterparty == "" {
		return commlog.LogEntry{}, &commlog.NormalizationError{Kind: commlog.KindCall, ID: id, Field: "counterpartyNumber", Reason: "missing"}
	}

	ts := firstTime(v, []string{"createdAt"}, []string{"date_created"}, []string{"startedAt"}, []string{"start_time"})
	details := &commlog.CallDetails{
		Status:       str(v, "status"),
		EndedReason:  str(v, "endedReason"),
		Cost:         num(v, "cost"),
		RecordingURL: firstString(v, []string{"artifact", "recordingUrl"}, []string{"recordingUrl"}),
		Transcript:   firstString(v, []string{"artifact", "transcript"}, []string{"transcript"}),
		Summary:      firstString(v, []string{"analysis", "summary"}, []string{"summary"}),
		AssistantID:  str(v, "assistantId"),
		Carrier:      carrier(v),
	}
	if d := num(v, "duration"); d > 0 {
		details.DurationSeconds = d
	} else {
		start, end := firstTime(v, []string{"startedAt"}), firstTime(v, []string{"endedAt"})
		if !start.IsZero() && end.After(start) {
			details.DurationSeconds = end.Sub(start).Seconds()
		}
	}

	return commlog.LogEntry{
		ID:                 id,
		Kind:               commlog.KindCall,
		Direction:          dir,
		CounterpartyNumber: PhoneNumber(counterparty),
		OwnNumber:          PhoneNumber(own),
		Timestamp:          ts,
		Call:               details,
	}, nil
}

func normalizeMessage(v *fastjson.Value) (commlog.LogEntry, error) {
	id := firstString(v, []string{"sid"}, []string{"id"})
	if id == "" {
		return commlog.LogEntry{}, &commlog.NormalizationError{Kind: commlog.KindMessage, Field: "id", Reason: "missing"}
	}
	dir := commlog.ParseDirection(str(v, "direction"))
	from, to := str(v, "from"), str(v, "to")
	counterparty, own := to, from
	if dir == commlog.DirectionInbound {
		counterparty, own = from, to
	}
	if counterparty == "" {
		return commlog.LogEntry{}, &commlog.NormalizationError{Kind: commlog.KindMessage, ID: id, Field: "counterpartyNumber", Reason: "missing"}
	}

	return commlog.LogEntry{
		ID:                 id,
		Kind:               commlog.KindMessage,
		Direction:          dir,
		CounterpartyNumber: PhoneNumber(counterparty),
		OwnNumber:          PhoneNumber(own),
		Timestamp:          firstTime(v, []string{"date_sent"}, []string{"date_created"}, []string{"date_updated"}, []string{"createdAt"}),
		Message: &commlog.MessageDetails{
			Body:      str(v, "body"),
			Status:    str(v, "status"),
			Segments:  int(num(v, "num_segments")),
			Price:     str(v, "price"),
			ErrorCode: int(num(v, "error_code")),
			Carrier:   carrier(v),
		},
	}, nil
}

func carrier(v *fastjson.Value) string {
	if c := firstString(v, []string{"carrier"}, []string{"carrier_name"}, []string{"customer", "carrier"}); c != "" {
		return c
	}
	return commlog.UnknownCarrier
}

// str returns the string at path; numbers are rendered, null/missing is "".
func str(v *fastjson.Value, path ...string) string {
	f := v.Get(path...)
	if f == nil {
		return ""
	}
	switch f.Type() {
	case fastjson.TypeString:
		return strings.TrimSpace(string(f.GetStringBytes()))
	case fastjson.TypeNumber:
		return f.String()
	default:
		return ""
	}
}

// num accepts numbers and numeric strings ("2", "-0.0075").
func num(v *fastjson.Value, path ...string) float64 {
	f := v.Get(path...)
	if f == nil {
		return 0
	}
	switch f.Type() {
	case fastjson.TypeNumber:
		return f.GetFloat64()
	case fastjson.TypeString:
		n, err := strconv.ParseFloat(strings.TrimSpace(string(f.GetStringBytes())), 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func firstString(v *fastjson.Value, paths ...[]string) string {
	for _, p := range paths {
		if s := str(v, p...); s != "" {
			return s
		}
	}
	return ""
}

func firstTime(v *fastjson.Value, paths ...[]string) time.Time {
	for _, p := range paths {
		f := v.Get(p...)
		if f == nil {
			continue
		}
		var ts time.Time
		switch f.Type() {
		case fastjson.TypeNumber:
			ts = fromEpoch(f.GetInt64())
		case fastjson.TypeString:
			ts = ParseTimestamp(string(f.GetStringBytes()))
		}
		if !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
