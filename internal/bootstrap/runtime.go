package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"collegeconnect/internal/cache"
	"collegeconnect/internal/config"
	"collegeconnect/internal/database"
	"collegeconnect/internal/models"
	"collegeconnect/internal/observability"
	"collegeconnect/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// ServiceName labels traces. Empty means "collegeconnect".
	ServiceName string
	Version     string
	// SeedPreset seeds the named preset on an empty database.
	SeedPreset  string
	PresetsPath string
}

// Runtime bundles the connections a process needs.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	shutdownTracing func(context.Context) error
}

// ShutdownTracing flushes buffered spans.
func (r *Runtime) ShutdownTracing(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

// Close flushes traces and releases the database pool.
func (r *Runtime) Close(ctx context.Context) error {
	errs := []error{r.ShutdownTracing(ctx)}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// InitRuntime starts tracing, connects to DB and Redis, and optionally seeds.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	name := opts.ServiceName
	if name == "" {
		name = "collegeconnect"
	}
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    name,
		ServiceVersion: opts.Version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}
	rt := &Runtime{shutdownTracing: shutdown}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = rt.Close(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt.DB = db

	// A nil client means Redis is unreachable; callers degrade gracefully.
	cache.InitRedis(cfg.RedisURL)
	rt.Redis = cache.GetClient()

	if err := EnsureDevAdmin(cfg, db); err != nil {
		_ = rt.Close(context.Background())
		return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	if opts.SeedPreset != "" {
		if err := seedIfEmpty(db, opts); err != nil {
			_ = rt.Close(context.Background())
			return nil, fmt.Errorf("failed to seed preset %q: %w", opts.SeedPreset, err)
		}
	}

	return rt, nil
}

func seedIfEmpty(db *gorm.DB, opts Options) error {
	var posts int64
	if err := db.Model(&models.Post{}).Count(&posts).Error; err != nil {
		return err
	}
	if posts > 0 {
		log.Printf("skipping seed: database already has %d posts", posts)
		return nil
	}
	presets, err := seed.LoadPresets(opts.PresetsPath)
	if err != nil {
		return err
	}
	_, err = seed.Run(context.Background(), db, presets, opts.SeedPreset, false, seed.Options{})
	return err
}

// EnsureDevAdmin creates or promotes the configured development admin. It is
// a no-op outside development or when DEV_BOOTSTRAP_ADMIN is off.
func EnsureDevAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapAdmin {
		return nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevAdminEmail))
	if email == "" {
		email = "admin@collegeconnect.local"
	}
	password := cfg.DevAdminPassword
	if password == "" {
		return fmt.Errorf("DEV_ADMIN_PASSWORD must be set when DEV_BOOTSTRAP_ADMIN is enabled")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var admin models.User
		findErr := tx.Where("email = ?", email).First(&admin).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}
			admin = models.User{
				Name:         "Campus Admin",
				Email:        email,
				PasswordHash: string(hashed),
				Role:         models.RoleAdmin,
				College:      "CollegeConnect",
				Skills:       []string{},
				Interests:    []string{},
				IsVerified:   true,
				IsActive:     true,
				Preferences: models.UserPreferences{
					EmailNotifications: true,
					PushNotifications:  true,
					ProfileVisibility:  models.VisibilityPublic,
				},
			}
			return tx.Create(&admin).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&models.User{}).Where("id = ?", admin.ID).Updates(map[string]any{
				"role":      models.RoleAdmin,
				"is_active": true,
			}).Error
		}
	})
	if err != nil {
		return err
	}

	log.Printf("development admin bootstrap ensured (%s)", email)
	return nil
}
