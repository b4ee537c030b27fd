package main

import (
	"bms-service/internal/auth"
	"bms-service/internal/domain"
	"bms-service/internal/service"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUserAddCmd(a), newUserTokenCmd(a))

	return cmd
}

func newUserAddCmd(a *app) *cobra.Command {
	var user domain.User

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			created, err := service.NewUserService(store, a.logger).CreateUser(cmd.Context(), user)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), created.ID)

			return err
		},
	}
	cmd.Flags().StringVar(&user.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&user.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&user.LastName, "last-name", "", "last name")
	cmd.Flags().BoolVar(&user.IsSuperuser, "superuser", false, "grant system-wide superuser rights")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

// newUserTokenCmd prints a bearer token for an existing user, for operators and scripts.
func newUserTokenCmd(a *app) *cobra.Command {
	var (
		userID int64
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET must be set")
			}

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			user, err := service.NewUserService(store, a.logger).User(cmd.Context(), domain.UserID(userID))
			if err != nil {
				return err
			}

			token, err := auth.NewAuthenticator(a.cfg.JWTSecret, store.Repos().Users).Issue(user.ID, ttl)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)

			return err
		},
	}
	cmd.Flags().Int64Var(&userID, "id", 0, "user id (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTTL, "token lifetime")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
