package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// ServeOptions holds the parsed flags for "serve".
type ServeOptions struct {
	Port int
}

// ServeRunFunc runs the HTTP server until ctx is canceled.
type ServeRunFunc func(ctx context.Context, opts ServeOptions) error

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd(runFunc ServeRunFunc) *cobra.Command {
	var opts ServeOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve the variant search API over HTTP and websocket until interrupted.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateServeFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Listen port (overrides http.port from config)")

	return cmd
}

func validateServeFlags(opts ServeOptions) error {
	if opts.Port < 0 || opts.Port > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535, got %d", opts.Port)
	}
	return nil
}
