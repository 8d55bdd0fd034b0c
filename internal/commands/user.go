package commands

import (
	"fmt"
	"strings"

	"agency-portal/internal/database"
	"agency-portal/internal/models"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newCreateUserCmd() *cobra.Command {
	var (
		email    string
		name     string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:     "create-user",
		Short:   "Create a portal user",
		Example: `  portalctl create-user --email pm@agency.com --name "Project Manager" --password 'S3cret!pass' --role manager`,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			r := models.UserRole(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q (client, manager, admin)", role)
			}
			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}

			var count int64
			if err := database.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("user %s already exists", email)
			}

			user, err := database.CreateUser(email, strings.TrimSpace(name), password, r)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "created %s user %s (id %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleClient), "client, manager or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
