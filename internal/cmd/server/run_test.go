package serverrun

import (
	"context"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/commlog/internal/config"
	"github.com/rzbill/commlog/internal/provider/providertest"
	pebblestore "github.com/rzbill/commlog/internal/storage/pebble"
)

func TestGetenvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		def      string
		envValue string
		expected string
	}{
		{
			name:     "environment variable set",
			key:      "TEST_VAR",
			def:      "default",
			envValue: "env_value",
			expected: "env_value",
		},
		{
			name:     "environment variable not set",
			key:      "TEST_VAR_NOT_SET",
			def:      "default",
			envValue: "",
			expected: "default",
		},
		{
			name:     "environment variable empty",
			key:      "TEST_VAR_EMPTY",
			def:      "default",
			envValue: "",
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Set up environment
			if tt.envValue != "" {
				_ = os.Setenv(tt.key, tt.envValue)
			} else {
				_ = os.Unsetenv(tt.key)
			}
			t.Cleanup(func() {
				_ = os.Unsetenv(tt.key)
			})

			result := getenvDefault(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("getenvDefault(%s, %s) = %s, expected %s", tt.key, tt.def, result, tt.expected)
			}
		})
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.Provider.Mode = "carrier-pigeon"

	err := Run(context.Background(), Options{HTTPAddr: "127.0.0.1:0", Config: cfg})
	if err == nil {
		t.Fatal("expected error for unknown provider mode")
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

// TestRunServesUntilCancelled starts the server with a fake provider, waits
// for the health endpoint, and checks that cancellation shuts it down cleanly.
func TestRunServesUntilCancelled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			HTTPAddr: addr,
			Fsync:    pebblestore.FsyncModeNever,
			Config:   cfgpkg.Default(),
			Client:   providertest.New(),
		})
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/v1/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("healthz status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not come up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunSandboxMode(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := cfgpkg.Default()
	cfg.Provider.Mode = cfgpkg.ProviderModeSandbox
	cfg.DataDir = t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := Run(ctx, Options{HTTPAddr: freeAddr(t), Fsync: pebblestore.FsyncModeNever, Config: cfg})
	if err != nil && err != context.DeadlineExceeded && err != context.Canceled {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
	if _, statErr := os.Stat(cfg.DataDir); statErr != nil {
		t.Errorf("data dir missing after run: %v", statErr)
	}
}
