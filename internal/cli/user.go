package cli

import (
	"fmt"

	"istas_backend/internal/model"
	"istas_backend/internal/repository"
	"istas_backend/internal/service"
	"istas_backend/pkg/database"
	"istas_backend/pkg/logger"

	"github.com/spf13/cobra"
)

func newUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserCreateCommand(opts))
	return cmd
}

func newUserCreateCommand(opts *rootOptions) *cobra.Command {
	var u model.User
	var role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user able to log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch model.UserRole(role) {
			case model.Admin, model.Analyst, model.Viewer:
				u.Role = model.UserRole(role)
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			db, err := database.InitDB(&cfg.Database, logger.Log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			auth := service.NewAuthService(repository.NewUserRepository(db), cfg)
			if err := auth.CreateUser(cmd.Context(), &u); err != nil {
				return err
			}
			cmd.Printf("created %s user %s (id %d)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&u.TenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&u.Name, "name", "", "display name")
	cmd.Flags().StringVar(&u.Email, "email", "", "login email")
	cmd.Flags().StringVar(&u.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(model.Analyst), "admin, analyst or viewer")
	for _, f := range []string{"tenant", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
