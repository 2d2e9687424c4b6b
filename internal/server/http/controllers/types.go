package controllers

import "github.com/rzbill/commlog/internal/commlog"

// Common response types for HTTP controllers

// callsResp is the /v1/calls response body.
type callsResp struct {
	Calls []commlog.LogEntry `json:"calls"`
	pageMeta
}

// messagesResp is the /v1/messages response body.
type messagesResp struct {
	Messages []commlog.LogEntry `json:"messages"`
	pageMeta
}

// pageMeta carries paging fields shared by listing responses.
type pageMeta struct {
	TotalCount       int  `json:"totalCount"`
	IsEstimatedTotal bool `json:"isEstimatedTotal"`
	Page             int  `json:"page"`
	PageSize         int  `json:"pageSize"`
	HasNextPage      bool `json:"hasNextPage"`
}

func metaOf(r commlog.PageResult) pageMeta {
	return pageMeta{
		TotalCount:       r.TotalCount,
		IsEstimatedTotal: r.IsEstimatedTotal,
		Page:             r.Page,
		PageSize:         r.PageSize,
		HasNextPage:      r.HasNextPage,
	}
}
