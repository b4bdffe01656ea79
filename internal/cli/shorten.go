package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/ttl-shortener/internal/entity"
	"github.com/vadimbarashkov/ttl-shortener/internal/usecase"
	"github.com/vadimbarashkov/ttl-shortener/internal/validate"
)

func newShortenCmd(o *rootOptions) *cobra.Command {
	var (
		validity string
		code     string
	)

	cmd := &cobra.Command{
		Use:   "shorten <url>",
		Short: "Create a short URL",
		Example: `  ttl-shortener shorten example.com/some/long/path
  ttl-shortener shorten https://example.com --validity 90 --code promo2024`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.ShortenInput{
				OriginalURL:     args[0],
				CustomShortCode: code,
			}

			if cmd.Flags().Changed("validity") {
				minutes, ok := validate.ParseValidityMinutes(validity)
				if !ok {
					return entity.NewValidationError(entity.FieldValidityMinutes, entity.ErrInvalidValidity)
				}
				in.ValidityMinutes = &minutes
			}

			return o.withUseCase(cmd, func(uc *usecase.URLUseCase) error {
				url, err := uc.ShortenURL(cmd.Context(), in)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Short URL:  %s\n", uc.ShortURL(url.ShortCode))
				fmt.Fprintf(out, "Code:       %s\n", url.ShortCode)
				fmt.Fprintf(out, "Original:   %s\n", url.OriginalURL)
				fmt.Fprintf(out, "Expires at: %s\n", url.ExpiresAt.Format(time.RFC3339))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&validity, "validity", "", "validity in minutes, 1-1440 (default from config)")
	cmd.Flags().StringVar(&code, "code", "", "custom short code, 3-20 alphanumeric characters")

	return cmd
}
