package walker

import (
	"time"

	"github.com/rzbill/commlog/internal/commlog"
)

// Observer receives walk telemetry. Implementations must be safe for
// concurrent use because walks run per request.
type Observer interface {
	PageFetched(kind commlog.Kind, records int, took time.Duration)
	PageRetried(kind commlog.Kind)
	RecordDropped(kind commlog.Kind)
	WalkFinished(kind commlog.Kind, stop Stop, entries int)
}

// NoopObserver discards everything.
type NoopObserver struct{}

func (NoopObserver) PageFetched(commlog.Kind, int, time.Duration) {}
func (NoopObserver) PageRetried(commlog.Kind)                     {}
func (NoopObserver) RecordDropped(commlog.Kind)                   {}
func (NoopObserver) WalkFinished(commlog.Kind, Stop, int)         {}
