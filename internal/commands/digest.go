package commands

import (
	"fmt"
	"os"
	"time"

	"agency-portal/internal/jobs"
	"agency-portal/internal/logger"
	"agency-portal/internal/mailer"

	"github.com/spf13/cobra"
)

// newDigestCmd: ручной запуск того же дайджеста, что шлёт планировщик сервера.
func newDigestCmd() *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Email the digest of stale leads now",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sender mailer.Sender = mailer.LogSender{Log: logger.Log}
			if key := os.Getenv("RESEND_API_KEY"); key != "" {
				sender = mailer.NewResendSender(key)
			}
			m := mailer.New(sender,
				envOr("EMAIL_FROM", "Agency <hello@agency.local>"),
				envOr("EMAIL_INBOX", "team@agency.local"),
				logger.Log,
			)

			n, err := jobs.RunStaleLeadDigest(cmd.Context(), m, time.Now(), maxAge)
			m.Wait()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d stale leads\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "age", 48*time.Hour, "leads older than this are stale")
	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
