// Package cli implements the blogctl operator commands.
package cli

import (
	"context"
	"fmt"
	"io"

	"lsablog/internal/config"
	"lsablog/internal/database"
	"lsablog/internal/middleware"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// RootOptions holds state shared by every subcommand.
type RootOptions struct {
	Verbose bool
	// LoadConfig is replaced in tests.
	LoadConfig func() (*config.Config, error)
}

// NewRootCommand creates the blogctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{LoadConfig: config.LoadConfig}
	return newRootCommand(opts)
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blogctl",
		Short: "Operate the LSA blog content service",
		Long: `blogctl manages the blog database and development tooling.

Configuration is read the same way the API server reads it: .env, config.yml
and environment variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log database statements and progress")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))

	return cmd
}

func (o *RootOptions) resolveConfig(w io.Writer) (*config.Config, error) {
	cfg, err := o.LoadConfig()
	if err != nil {
		return nil, err
	}
	if o.Verbose {
		middleware.Logger = middleware.NewLogger(cfg.Env, w)
	} else {
		middleware.Logger = middleware.NewLogger(cfg.Env, io.Discard)
	}
	return cfg, nil
}

// openDB connects to the configured database. The returned func closes it.
func openDB(cfg *config.Config) (*gorm.DB, func(), error) {
	if cfg.StoreBackend == config.StoreMemory {
		return nil, nil, fmt.Errorf("STORE_BACKEND=%s has no database to operate on", cfg.StoreBackend)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, closeFn, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
