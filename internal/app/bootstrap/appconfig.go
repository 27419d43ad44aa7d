// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits);
// everything BloodLink needs on top of that lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: bloodlink-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Admin bootstrap: created or promoted at startup when AdminEmail is set.
	AdminEmail    string
	AdminPassword string

	// Notification relay (EmailJS-compatible)
	MailEndpoint                string
	MailServiceID               string
	MailUserID                  string
	MailTemplateRequestApproved string
	MailTemplateDonationConfirm string
	AlertRelayURL               string

	// Geocoding
	GeocodeAPIKey   string
	GeocodeEndpoint string

	// Health news
	NewsAPIKey   string
	NewsEndpoint string
	NewsCacheTTL time.Duration

	// Redis backs the news cache and login throttling. Optional.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}
