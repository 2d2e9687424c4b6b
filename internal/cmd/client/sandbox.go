package client

import (
	"fmt"
	"io"
	"os"

	"github.com/rzbill/commlog/internal/commlog"
	"github.com/rzbill/commlog/internal/runtime"
	logpkg "github.com/rzbill/commlog/pkg/log"
	"github.com/spf13/cobra"
)

// NewSandboxCommand constructs the `sandbox` command group, which manages the
// local Pebble store served in sandbox provider mode. The server must not be
// running against the same data directory.
func NewSandboxCommand(config ConfigFunc) *cobra.Command {
	sandboxCmd := &cobra.Command{Use: "sandbox", Short: "Manage the local sandbox store"}
	sandboxCmd.AddCommand(
		newSandboxImportCommand(config),
		newSandboxCountCommand(config),
		newSandboxResetCommand(config),
	)
	return sandboxCmd
}

func openSandbox(config ConfigFunc, readOnly bool) (*runtime.Runtime, error) {
	cfg, err := config()
	if err != nil {
		return nil, err
	}
	logger := logpkg.NewLogger(logpkg.WithLevel(logpkg.WarnLevel), logpkg.WithOutput(logpkg.NewStderrOutput()))
	return runtime.OpenStore(cfg, logger, readOnly)
}

func newSandboxImportCommand(config ConfigFunc) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import raw provider records from a JSON file (or - for stdin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kindStr, _ := cmd.Flags().GetString("kind")
			file, _ := cmd.Flags().GetString("file")
			kind, err := commlog.ParseKind(kindStr)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			rt, err := openSandbox(config, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			stats, err := rt.Store().Import(cmd.Context(), kind, r)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s records (replaced %d, skipped %d)\n",
				stats.Imported, kind, stats.Replaced, stats.Skipped)
			return err
		},
	}
	importCmd.Flags().String("kind", "call", "Record kind: call|message")
	importCmd.Flags().String("file", "-", "Path to a JSON array or provider list response")
	return importCmd
}

func newSandboxCountCommand(config ConfigFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show how many records the sandbox store holds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openSandbox(config, false)
			if err != nil {
				return err
			}
			defer rt.Close()
			for _, kind := range []commlog.Kind{commlog.KindCall, commlog.KindMessage} {
				n, err := rt.Store().Count(kind)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", kind, n); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newSandboxResetCommand(config ConfigFunc) *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all records of a kind (requires --confirm)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kindStr, _ := cmd.Flags().GetString("kind")
			confirm, _ := cmd.Flags().GetBool("confirm")
			kind, err := commlog.ParseKind(kindStr)
			if err != nil {
				return err
			}
			if !confirm {
				return fmt.Errorf("refusing to reset without --confirm")
			}
			rt, err := openSandbox(config, false)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.Store().Reset(kind); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "reset %s records\n", kind)
			return err
		},
	}
	resetCmd.Flags().String("kind", "", "Record kind: call|message")
	resetCmd.Flags().Bool("confirm", false, "Confirm deletion")
	return resetCmd
}
