package commands

import (
	"fmt"
	"io"
	"time"

	"agency-portal/internal/database"
	"agency-portal/internal/logger"
	"agency-portal/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Inspect contact submissions",
	}
	cmd.AddCommand(newLeadsListCmd())
	return cmd
}

func newLeadsListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the latest leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := database.DB.Order("created_at desc").Limit(limit)
			if status != "" {
				if !models.LeadStatus(status).Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
				q = q.Where("status = ?", status)
			}

			var leads []models.ContactSubmission
			if err := q.Find(&leads).Error; err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(leads) == 0 {
				fmt.Fprintln(out, "no leads")
				return nil
			}
			for _, l := range leads {
				printLead(out, l)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (new, contacted, converted, archived)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of leads")
	return cmd
}

func printLead(w io.Writer, l models.ContactSubmission) {
	statusColor := color.New(color.FgWhite)
	switch l.Status {
	case models.LeadNew:
		statusColor = color.New(color.FgYellow, color.Bold)
	case models.LeadContacted:
		statusColor = color.New(color.FgCyan)
	case models.LeadConverted:
		statusColor = color.New(color.FgGreen)
	case models.LeadArchived:
		statusColor = color.New(color.FgHiBlack)
	}

	fmt.Fprintf(w, "#%-5d %s  ", l.ID, l.CreatedAt.Format(time.DateTime))
	statusColor.Fprintf(w, "%-10s", l.Status)
	fmt.Fprintf(w, " %-14s %s <%s>\n", l.Source, l.Name, logger.MaskEmail(l.Email))
}
