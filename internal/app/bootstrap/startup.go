// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	accountstore "github.com/dalemusser/bloodlink/internal/app/store/accounts"
	settingsstore "github.com/dalemusser/bloodlink/internal/app/store/settings"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/normalize"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// BloodLink makes sure the configured admin account exists and seeds the
// donation rules document on first boot.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail != "" {
		if err := ensureAdmin(ctx, deps, appCfg.AdminEmail, appCfg.AdminPassword, logger); err != nil {
			return err
		}
	}
	return seedDonationRules(ctx, deps, logger)
}

// ensureAdmin promotes the account with email to admin, or creates it when
// a password is configured. Promotion leaves the password untouched.
func ensureAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	email = normalize.Email(email)
	accounts := accountstore.New(deps.MongoDatabase)

	existing, err := accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == models.RoleAdmin {
			logger.Debug("admin account already present", zap.String("email", email))
			return nil
		}
		if err := accounts.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		logger.Info("promoted account to admin",
			zap.String("email", email),
			zap.String("previous_role", existing.Role))
		return nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("look up admin: %w", err)
	}

	if password == "" {
		logger.Warn("admin_email has no account and admin_password is blank; admin not created",
			zap.String("email", email))
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	created, err := accounts.Create(ctx, models.Account{
		Role:         models.RoleAdmin,
		FullName:     "Administrator",
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("created admin account",
		zap.String("email", email),
		zap.String("user_id", created.ID.Hex()))
	return nil
}

// seedDonationRules writes the default rules when none are stored.
func seedDonationRules(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	settings := settingsstore.New(deps.MongoDatabase)
	ok, err := settings.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check donation rules: %w", err)
	}
	if ok {
		return nil
	}
	if err := settings.SaveDonationRules(ctx, models.DefaultDonationRules()); err != nil {
		return fmt.Errorf("seed donation rules: %w", err)
	}
	logger.Info("seeded default donation rules")
	return nil
}
