package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"collegeconnect/internal/config"
	"collegeconnect/internal/middleware"

	"gorm.io/gorm"
)

// DB_SCHEMA_MODE values.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan is what ApplySchema will do for a given configuration.
type SchemaPlan struct {
	Mode    string
	RunSQL  bool
	RunAuto bool
}

// PlanSchema resolves DB_SCHEMA_MODE against the environment. AutoMigrate
// never runs in production or staging: hybrid quietly skips it there and
// auto is rejected.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	env := strings.ToLower(strings.TrimSpace(cfg.Env))
	deployed := env == "production" || env == "staging"

	switch plan.Mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeAuto:
		if deployed {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q; use sql or hybrid", cfg.Env)
		}
		plan.RunAuto = true
	case SchemaModeHybrid:
		plan.RunSQL = true
		plan.RunAuto = !deployed
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// AutoMigrate creates or updates every table from the GORM models and adds
// the indexes the models cannot declare. Tests call it on SQLite.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return err
	}
	for _, stmt := range postMigrateStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("post-migrate statement failed: %w", err)
		}
	}
	return nil
}

// ApplySchema runs SQL migrations and/or AutoMigrate according to the plan.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}
	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.RunAuto {
		middleware.Logger.Info("running gorm automigrate", slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// TableNames lists the tables of PersistentModels in dependency order.
func TableNames(db *gorm.DB) ([]string, error) {
	all := PersistentModels()
	names := make([]string, 0, len(all))
	for _, m := range all {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", m, err)
		}
		names = append(names, stmt.Schema.Table)
	}
	return names, nil
}

// MissingTables returns the application tables that do not exist yet.
func MissingTables(db *gorm.DB) ([]string, error) {
	names, err := TableNames(db)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, name := range names {
		if !db.Migrator().HasTable(name) {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// SchemaStatus describes the plan plus what the database already has.
type SchemaStatus struct {
	SchemaPlan
	Environment       string
	AppliedVersions   []int
	PendingMigrations []Migration
	MissingTables     []string
}

// GetSchemaStatus reports applied and pending migrations and missing tables.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan, Environment: cfg.Env}

	if status.MissingTables, err = MissingTables(db.WithContext(ctx)); err != nil {
		return nil, err
	}
	if !plan.RunSQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	for _, m := range GetMigrations() {
		if !done[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
