package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dom/bloghub/internal/config"
	"github.com/dom/bloghub/internal/repository/gormrepo"
	"github.com/dom/bloghub/internal/service"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type rootOptions struct {
	driver      string
	databaseURL string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	// Same .env the server reads; missing is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: failed to load .env:", err)
	}

	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "blogctl",
		Short: "BlogHub maintenance commands",
		Long: `Maintenance commands for a BlogHub database.

Examples:
  blogctl migrate
  blogctl user promote --email ann@example.com
  blogctl sessions prune --older-than 168h`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.driver, "driver", envOr("DATABASE_DRIVER", "postgres"), "database driver (postgres or sqlite)")
	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "database connection string")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log SQL statements")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newUserCmd(opts),
		newSessionsCmd(opts),
	)
	return cmd
}

// open connects and migrates. The caller closes the returned database.
func (o *rootOptions) open() (*gorm.DB, error) {
	if o.databaseURL == "" {
		return nil, errors.New("--database-url or DATABASE_URL is required")
	}
	level := logger.Silent
	if o.verbose {
		level = logger.Info
	}
	db, err := gormrepo.Open(o.driver, o.databaseURL, level)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// withAuth runs fn with an auth service over a freshly opened database.
func (o *rootOptions) withAuth(fn func(auth *service.AuthService) error) error {
	db, err := o.open()
	if err != nil {
		return err
	}
	defer closeDB(db)

	repos := gormrepo.NewRepositories(db)
	// Maintenance never issues sessions, so the TTL is irrelevant here.
	auth := service.NewAuthService(repos.User, repos.Session, &config.Config{})
	return fn(auth)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
