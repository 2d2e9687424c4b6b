// Package client contains Cobra CLI commands for commlog.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	cfgpkg "github.com/rzbill/commlog/internal/config"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// ConfigFunc resolves the effective configuration for local commands.
type ConfigFunc func() (cfgpkg.Config, error)

// getJSON issues a GET and decodes a 2xx body into out. Non-2xx replies are
// turned into errors carrying the server's {"error": ...} message if present.
func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return fmt.Errorf("http error: %s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("http error: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
