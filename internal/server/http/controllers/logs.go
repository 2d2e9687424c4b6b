package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rzbill/commlog/internal/commlog"
	"github.com/rzbill/commlog/internal/runtime"
	logsvc "github.com/rzbill/commlog/internal/services/logs"
	logpkg "github.com/rzbill/commlog/pkg/log"
)

// LogsController serves paged call and SMS history.
//
// Query parameters: page, pageSize, number, since, until, direction, filter.
type LogsController struct {
	rt     *runtime.Runtime
	svc    *logsvc.Service
	logger logpkg.Logger
}

// NewLogsController creates a new logs controller.
func NewLogsController(rt *runtime.Runtime, svc *logsvc.Service, logger logpkg.Logger) *LogsController {
	if logger == nil {
		logger = logpkg.NewNop()
	}
	return &LogsController{rt: rt, svc: svc, logger: logger}
}

// RegisterRoutes registers log routes with the given mux.
func (c *LogsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/calls", c.handleList(commlog.KindCall))
	mux.HandleFunc("/v1/messages", c.handleList(commlog.KindMessage))
}

func (c *LogsController) handleList(kind commlog.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		page, pageSize, filters, err := c.parseQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		res, err := c.svc.FetchLogs(r.Context(), kind, filters, page, pageSize)
		if err != nil {
			switch {
			case errors.Is(err, commlog.ErrInvalidPageRequest), errors.Is(err, commlog.ErrInvalidFilter):
				writeError(w, http.StatusBadRequest, err.Error())
			case logsvc.IsUpstreamError(err):
				c.logger.WithContext(r.Context()).Error("provider unavailable",
					logpkg.Str("kind", string(kind)),
					logpkg.Int("partial_entries", len(res.Entries)),
					logpkg.Err(err))
				writeError(w, http.StatusInternalServerError, "Failed to fetch "+plural(kind)+" from provider")
			default:
				c.logger.WithContext(r.Context()).Error("fetch logs failed", logpkg.Str("kind", string(kind)), logpkg.Err(err))
				writeError(w, http.StatusInternalServerError, "Failed to fetch "+plural(kind))
			}
			return
		}
		if kind == commlog.KindCall {
			writeJSON(w, callsResp{Calls: res.Entries, pageMeta: metaOf(res)})
			return
		}
		writeJSON(w, messagesResp{Messages: res.Entries, pageMeta: metaOf(res)})
	}
}

func (c *LogsController) parseQuery(r *http.Request) (int, int, commlog.Filters, error) {
	q := r.URL.Query()
	var f commlog.Filters
	page, err := parsePositive("page", q.Get("page"), 1)
	if err != nil {
		return 0, 0, f, err
	}
	pageSize, err := parsePositive("pageSize", q.Get("pageSize"), c.rt.Config().Paging.DefaultPageSize)
	if err != nil {
		return 0, 0, f, err
	}
	if f.Since, err = parseTimestamp("since", q.Get("since")); err != nil {
		return 0, 0, f, err
	}
	if f.Until, err = parseTimestamp("until", q.Get("until")); err != nil {
		return 0, 0, f, err
	}
	if !f.Since.IsZero() && !f.Until.IsZero() && f.Until.Before(f.Since) {
		return 0, 0, f, errors.New("until must not be before since")
	}
	switch d := strings.ToLower(q.Get("direction")); d {
	case "":
	case string(commlog.DirectionInbound), string(commlog.DirectionOutbound):
		f.Direction = commlog.Direction(d)
	default:
		return 0, 0, f, errors.New("direction must be inbound or outbound")
	}
	f.Number = strings.TrimSpace(q.Get("number"))
	f.Expr = q.Get("filter")
	return page, pageSize, f, nil
}

func plural(k commlog.Kind) string { return string(k) + "s" }
