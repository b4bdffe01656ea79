package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/ttl-shortener/internal/usecase"
)

func newSweepCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired URLs and their analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withUseCase(cmd, func(uc *usecase.URLUseCase) error {
				res, err := uc.SweepExpired(cmd.Context())
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired, %d remaining\n", res.Removed, len(res.Remaining))
				return nil
			})
		},
	}
}

func newStatsCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [code]",
		Short: "Show store counters, or the clicks of a single code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withUseCase(cmd, func(uc *usecase.URLUseCase) error {
				out := cmd.OutOrStdout()

				if len(args) == 0 {
					s, err := uc.Summary(cmd.Context())
					if err != nil {
						return err
					}

					fmt.Fprintf(out, "Total URLs:   %d\n", s.TotalURLs)
					fmt.Fprintf(out, "Active URLs:  %d\n", s.ActiveURLs)
					fmt.Fprintf(out, "Total clicks: %d\n", s.TotalClicks)
					return nil
				}

				clicks, err := uc.GetAnalytics(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%s: %d clicks\n", args[0], len(clicks))
				for _, c := range clicks {
					line := fmt.Sprintf("  %s  %s", c.Timestamp.Format(time.RFC3339), c.Referrer.Referrer)
					if c.Location != nil {
						line += fmt.Sprintf("  (%.2f, %.2f ±%dm)", c.Location.Latitude, c.Location.Longitude, c.Location.Accuracy)
					}
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}

func newClearCmd(o *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every URL and all analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the store without --yes")
			}

			return o.withUseCase(cmd, func(uc *usecase.URLUseCase) error {
				if err := uc.ClearAll(cmd.Context()); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "store cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	return cmd
}
