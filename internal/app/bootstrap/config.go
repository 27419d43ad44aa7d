// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/mailer"
	"github.com/dalemusser/bloodlink/internal/app/system/news"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.uber.org/zap"
)

// devSessionKey is the shipped default. Production refuses to start with it.
const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// appConfigKeys defines the configuration keys for BloodLink.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: BLOODLINK_MONGO_URI, BLOODLINK_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "bloodlink", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "bloodlink-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session cookie lifetime (e.g., 24h, 168h)"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin account (promotes/creates on startup)"},
	{Name: "admin_password", Default: "", Desc: "Password for a newly created admin account"},

	// Notification relay
	{Name: "mail_endpoint", Default: "", Desc: "Templated email endpoint (EmailJS-compatible); blank disables email"},
	{Name: "mail_service_id", Default: "", Desc: "Email service id"},
	{Name: "mail_user_id", Default: "", Desc: "Email public user id"},
	{Name: "mail_template_request_approved", Default: mailer.DefaultRequestApprovedTemplate, Desc: "Template id for request-approved email"},
	{Name: "mail_template_donation_confirmed", Default: mailer.DefaultDonationConfirmedTemplate, Desc: "Template id for donation-confirmed email"},
	{Name: "alert_relay_url", Default: "", Desc: "Admin alert relay URL; blank disables alerts"},

	// Geocoding
	{Name: "geocode_api_key", Default: "", Desc: "Google Geocoding API key; blank places new banks at the default coordinate"},
	{Name: "geocode_endpoint", Default: "", Desc: "Geocoding endpoint override"},

	// Health news
	{Name: "news_api_key", Default: "", Desc: "NewsAPI key; blank disables /api/news"},
	{Name: "news_endpoint", Default: "", Desc: "NewsAPI endpoint override"},
	{Name: "news_cache_ttl", Default: "15m", Desc: "How long fetched news is cached"},

	// Redis
	{Name: "redis_addr", Default: "", Desc: "Redis address (host:port); blank disables the shared cache"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, BLOODLINK_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BLOODLINK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 7*24*time.Hour),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		MailEndpoint:                appValues.String("mail_endpoint"),
		MailServiceID:               appValues.String("mail_service_id"),
		MailUserID:                  appValues.String("mail_user_id"),
		MailTemplateRequestApproved: appValues.String("mail_template_request_approved"),
		MailTemplateDonationConfirm: appValues.String("mail_template_donation_confirmed"),
		AlertRelayURL:               appValues.String("alert_relay_url"),

		GeocodeAPIKey:   appValues.String("geocode_api_key"),
		GeocodeEndpoint: appValues.String("geocode_endpoint"),

		NewsAPIKey:   appValues.String("news_api_key"),
		NewsEndpoint: appValues.String("news_endpoint"),
		NewsCacheTTL: appValues.Duration("news_cache_ttl", news.DefaultCacheTTL),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked before any connection is attempted.
// Production deployments must replace the development session key.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" && (appCfg.SessionKey == "" || appCfg.SessionKey == devSessionKey) {
		return errors.New("session_key must be set to a strong random value in production")
	}

	if appCfg.AdminEmail != "" {
		if !validate.SimpleEmailValid(appCfg.AdminEmail) {
			return fmt.Errorf("admin_email %q is not a valid email address", appCfg.AdminEmail)
		}
		if appCfg.AdminPassword != "" && len(appCfg.AdminPassword) < auth.MinPasswordLength {
			return fmt.Errorf("admin_password must be at least %d characters", auth.MinPasswordLength)
		}
	}

	return nil
}
