package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rzbill/commlog/internal/commlog"
	"github.com/spf13/cobra"
)

// listResponse mirrors the /v1/calls and /v1/messages bodies.
type listResponse struct {
	Calls            []commlog.LogEntry `json:"calls,omitempty"`
	Messages         []commlog.LogEntry `json:"messages,omitempty"`
	TotalCount       int                `json:"totalCount"`
	IsEstimatedTotal bool               `json:"isEstimatedTotal"`
	Page             int                `json:"page"`
	PageSize         int                `json:"pageSize"`
	HasNextPage      bool               `json:"hasNextPage"`
}

func (r listResponse) entries() []commlog.LogEntry {
	if r.Calls != nil {
		return r.Calls
	}
	return r.Messages
}

// NewCallsCommand constructs the `calls` command group.
func NewCallsCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "calls", Short: "Voice call logs"}
	cmd.AddCommand(newListCommand(commlog.KindCall, baseURL))
	return cmd
}

// NewMessagesCommand constructs the `messages` command group.
func NewMessagesCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "messages", Aliases: []string{"sms"}, Short: "SMS message logs"}
	cmd.AddCommand(newListCommand(commlog.KindMessage, baseURL))
	return cmd
}

func newListCommand(kind commlog.Kind, baseURL BaseURLFunc) *cobra.Command {
	path := "/v1/calls"
	if kind == commlog.KindMessage {
		path = "/v1/messages"
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List one page of %s logs, newest first", kind),
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")
			number, _ := cmd.Flags().GetString("number")
			direction, _ := cmd.Flags().GetString("direction")
			since, _ := cmd.Flags().GetString("since")
			until, _ := cmd.Flags().GetString("until")
			filter, _ := cmd.Flags().GetString("filter")
			output, _ := cmd.Flags().GetString("output")

			q := url.Values{}
			if page > 0 {
				q.Set("page", strconv.Itoa(page))
			}
			if pageSize > 0 {
				q.Set("pageSize", strconv.Itoa(pageSize))
			}
			set := func(k, v string) {
				if v != "" {
					q.Set(k, v)
				}
			}
			set("number", number)
			set("direction", direction)
			set("since", since)
			set("until", until)
			set("filter", filter)

			u := strings.TrimRight(baseURL(), "/") + path
			if enc := q.Encode(); enc != "" {
				u += "?" + enc
			}
			var resp listResponse
			if err := getJSON(cmd.Context(), u, &resp); err != nil {
				return err
			}

			switch output {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			case "table", "":
				return printTable(cmd.OutOrStdout(), kind, resp)
			default:
				return fmt.Errorf("invalid --output; use table|json")
			}
		},
	}
	listCmd.Flags().Int("page", 1, "1-based page number")
	listCmd.Flags().Int("page-size", 0, "Entries per page (server default when 0)")
	listCmd.Flags().String("number", "", "Only entries with this counterparty number")
	listCmd.Flags().String("direction", "", "inbound|outbound")
	listCmd.Flags().String("since", "", "Lower time bound (RFC3339 or unix ms)")
	listCmd.Flags().String("until", "", "Upper time bound (RFC3339 or unix ms)")
	listCmd.Flags().String("filter", "", "CEL expression evaluated per entry")
	listCmd.Flags().StringP("output", "o", "table", "Output format: table|json")
	return listCmd
}

func printTable(w io.Writer, kind commlog.Kind, resp listResponse) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if kind == commlog.KindCall {
		fmt.Fprintln(tw, "TIME\tDIRECTION\tNUMBER\tSTATUS\tDURATION\tID")
	} else {
		fmt.Fprintln(tw, "TIME\tDIRECTION\tNUMBER\tSTATUS\tBODY\tID")
	}
	for _, e := range resp.entries() {
		ts := e.Timestamp.UTC().Format(time.RFC3339)
		switch {
		case e.Call != nil:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", ts, e.Direction, e.CounterpartyNumber,
				e.Call.Status, time.Duration(e.Call.DurationSeconds*float64(time.Second)).Round(time.Second), e.ID)
		case e.Message != nil:
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", ts, e.Direction, e.CounterpartyNumber,
				e.Message.Status, truncate(e.Message.Body, 40), e.ID)
		default:
			fmt.Fprintf(tw, "%s\t%s\t%s\t\t\t%s\n", ts, e.Direction, e.CounterpartyNumber, e.ID)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	total := strconv.Itoa(resp.TotalCount)
	if resp.IsEstimatedTotal {
		total = "~" + total
	}
	more := ""
	if resp.HasNextPage {
		more = ", more available"
	}
	_, err := fmt.Fprintf(w, "page %d (size %d) of %s entries%s\n", resp.Page, resp.PageSize, total, more)
	return err
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
