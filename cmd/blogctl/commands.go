package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dom/bloghub/internal/service"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := opts.open()
			if err != nil {
				return err
			}
			closeDB(db)
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func newUserCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var email string
	promote := &cobra.Command{
		Use:   "promote",
		Short: "Grant the ADMIN role to a user",
		Long: `Grant the ADMIN role to an existing account. Admins may delete any post.

Examples:
  blogctl user promote --email ann@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withAuth(func(auth *service.AuthService) error {
				if err := auth.PromoteToAdmin(cmd.Context(), email); err != nil {
					if errors.Is(err, service.ErrUserNotFound) {
						return fmt.Errorf("no user with email %q", email)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", email)
				return nil
			})
		},
	}
	promote.Flags().StringVar(&email, "email", "", "email of the account to promote")
	_ = promote.MarkFlagRequired("email")

	cmd.AddCommand(promote)
	return cmd
}

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage login sessions",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete sessions that expired or were logged out",
		Long: `Delete session rows that expired or were logged out more than
--older-than ago. Active sessions are never touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan < 0 {
				return errors.New("--older-than must not be negative")
			}
			return opts.withAuth(func(auth *service.AuthService) error {
				n, err := auth.PruneSessions(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sessions\n", n)
				return nil
			})
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "retention for ended sessions")

	cmd.AddCommand(prune)
	return cmd
}
