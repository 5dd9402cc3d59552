package database

import (
	"context"
	"fmt"
	"log/slog"

	"lsablog/internal/config"
	"lsablog/internal/middleware"
	"lsablog/internal/models"

	"gorm.io/gorm"
)

const (
	SchemaModeSQL  = "sql"
	SchemaModeAuto = "auto"
)

// SchemaStatus describes what ApplySchema would do against a database.
type SchemaStatus struct {
	Mode              string
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
}

// PersistentModels lists the GORM models backing the blog tables.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	}
}

// SchemaMode resolves DB_SCHEMA_MODE. The SQL scripts target Postgres, so SQLite is
// always auto-migrated.
func SchemaMode(cfg *config.Config) (string, error) {
	if cfg.StoreBackend == config.StoreSQLite {
		return SchemaModeAuto, nil
	}
	switch cfg.DBSchemaMode {
	case "", SchemaModeSQL:
		return SchemaModeSQL, nil
	case SchemaModeAuto:
		if cfg.IsProduction() {
			return "", fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		return SchemaModeAuto, nil
	default:
		return "", fmt.Errorf("unsupported DB_SCHEMA_MODE %q", cfg.DBSchemaMode)
	}
}

// ApplySchema brings the database up to date using the configured schema mode.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	mode, err := SchemaMode(cfg)
	if err != nil {
		return err
	}

	if mode == SchemaModeAuto {
		middleware.Logger.InfoContext(ctx, "Running GORM AutoMigrate", slog.String("env", cfg.Env))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		return nil
	}

	migrations, err := GetMigrations()
	if err != nil {
		return err
	}
	if err := RunMigrations(ctx, db, migrations); err != nil {
		return fmt.Errorf("run sql migrations: %w", err)
	}
	return nil
}

// GetSchemaStatus reports applied and pending SQL migrations.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	mode, err := SchemaMode(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:        mode,
		Environment: cfg.Env,
	}
	if mode != SchemaModeSQL {
		return status, nil
	}

	migrations, err := GetMigrations()
	if err != nil {
		return nil, err
	}
	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	appliedSet := make(map[int]bool, len(applied))
	for _, version := range applied {
		appliedSet[version] = true
	}
	for _, m := range migrations {
		if !appliedSet[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}

	return status, nil
}
