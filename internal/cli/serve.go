package cli

import (
	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/ttl-shortener/internal/app"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.load()
			if err != nil {
				return err
			}

			return app.Run(cmd.Context(), cfg, newLogger(cfg, cmd))
		},
	}
}
