package cli

import (
	"fmt"
	"strconv"

	"lsablog/internal/database"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}
	cmd.AddCommand(newMigrateUpCommand(opts))
	cmd.AddCommand(newMigrateDownCommand(opts))
	cmd.AddCommand(newMigrateStatusCommand(opts))
	return cmd
}

func newMigrateUpCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations (or auto-migrate in auto mode)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolveConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := database.ApplySchema(commandContext(cmd), db, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newMigrateDownCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "down <version>",
		Short: "Roll back one applied SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}

			cfg, err := opts.resolveConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			mode, err := database.SchemaMode(cfg)
			if err != nil {
				return err
			}
			if mode != database.SchemaModeSQL {
				return fmt.Errorf("rollback needs DB_SCHEMA_MODE=%s (current mode %s)", database.SchemaModeSQL, mode)
			}

			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			migrations, err := database.GetMigrations()
			if err != nil {
				return err
			}
			if err := database.RollbackMigration(commandContext(cmd), db, migrations, version); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back migration %d\n", version)
			return nil
		},
	}
}

func newMigrateStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolveConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			status, err := database.GetSchemaStatus(commandContext(cmd), db, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "environment: %s\n", status.Environment)
			fmt.Fprintf(out, "mode:        %s\n", status.Mode)
			if status.Mode != database.SchemaModeSQL {
				fmt.Fprintln(out, "models are auto-migrated; no versioned migrations apply")
				return nil
			}
			fmt.Fprintf(out, "applied:     %v\n", status.AppliedVersions)
			if len(status.PendingMigrations) == 0 {
				fmt.Fprintln(out, "pending:     none")
				return nil
			}
			fmt.Fprintln(out, "pending:")
			for i := range status.PendingMigrations {
				fmt.Fprintf(out, "  %s\n", status.PendingMigrations[i].String())
			}
			return nil
		},
	}
}
