package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the commlog client.
// It registers the calls, messages and sandbox command groups.
func NewRoot(baseURL BaseURLFunc, config ConfigFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "commlog",
		Short: "commlog client commands",
	}
	root.AddCommand(NewCallsCommand(baseURL))
	root.AddCommand(NewMessagesCommand(baseURL))
	root.AddCommand(NewSandboxCommand(config))
	return root
}
