// internal/app/bootstrap/routes.go
package bootstrap

import (
	"encoding/hex"
	"net/http"

	adminfeature "github.com/dalemusser/bloodlink/internal/app/features/admin"
	donorfeature "github.com/dalemusser/bloodlink/internal/app/features/donor"
	errorsfeature "github.com/dalemusser/bloodlink/internal/app/features/errors"
	healthfeature "github.com/dalemusser/bloodlink/internal/app/features/health"
	homefeature "github.com/dalemusser/bloodlink/internal/app/features/home"
	loginfeature "github.com/dalemusser/bloodlink/internal/app/features/login"
	logoutfeature "github.com/dalemusser/bloodlink/internal/app/features/logout"
	newsfeature "github.com/dalemusser/bloodlink/internal/app/features/news"
	recipientfeature "github.com/dalemusser/bloodlink/internal/app/features/recipient"
	signupfeature "github.com/dalemusser/bloodlink/internal/app/features/signup"
	accountstore "github.com/dalemusser/bloodlink/internal/app/store/accounts"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/geocode"
	"github.com/dalemusser/bloodlink/internal/app/system/mailer"
	"github.com/dalemusser/bloodlink/internal/app/system/news"
	"github.com/dalemusser/bloodlink/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodlink/internal/app/system/reconcile"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// BloodLink builds its outbound collaborators (mail relay, geocoder, news
// feed), the reconciliation workflow shared by the role dashboards, applies
// session middleware, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(sessionKey(appCfg, logger), appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Reload the account on every request so role changes take effect
	// without waiting for the cookie to expire.
	sessionMgr.SetUserFetcher(accountstore.NewFetcher(db))

	errLog := errorsfeature.NewErrorLogger(logger)

	notifier := mailer.NewClient(mailer.Config{
		EmailEndpoint: appCfg.MailEndpoint,
		ServiceID:     appCfg.MailServiceID,
		UserID:        appCfg.MailUserID,
		AlertURL:      appCfg.AlertRelayURL,
		Timeout:       timeouts.Notify(),
	}, logger)

	var geocoder geocode.Resolver
	if appCfg.GeocodeAPIKey != "" {
		geocoder = geocode.NewClient(appCfg.GeocodeEndpoint, appCfg.GeocodeAPIKey, logger)
	} else {
		logger.Info("geocoding disabled; new banks use the default coordinate")
	}

	var newsCache news.KV
	var loginCounter ratelimit.Counter = ratelimit.NewMemoryCounter()
	if deps.Redis != nil {
		newsCache = news.NewRedisKV(deps.Redis)
		loginCounter = ratelimit.NewRedisCounter(deps.Redis, "bloodlink:login:")
	}
	newsClient := news.NewClient(appCfg.NewsEndpoint, appCfg.NewsAPIKey, newsCache, appCfg.NewsCacheTTL, logger)

	wf := reconcile.New(db, reconcile.Options{
		Notifier: notifier,
		Geocoder: geocoder,
		Templates: reconcile.Templates{
			RequestApproved:   appCfg.MailTemplateRequestApproved,
			DonationConfirmed: appCfg.MailTemplateDonationConfirm,
		},
		Logger: logger,
	})

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Public pages: landing, bank map, donation rules
	homeHandler := homefeature.NewHandler(wf, errLog, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	newsHandler := newsfeature.NewHandler(newsClient, logger)
	r.Mount("/api/news", newsfeature.Routes(newsHandler))

	// Authentication
	signupHandler := signupfeature.NewHandler(db, sessionMgr, errLog, logger)
	r.Mount("/signup", signupfeature.Routes(signupHandler))

	guard := ratelimit.NewLoginGuard(loginCounter, logger)
	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, guard, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Redirect targets used by the auth middleware for browser requests
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Role dashboards
	donorHandler := donorfeature.NewHandler(db, wf, errLog, logger)
	r.Mount("/donor", donorfeature.Routes(donorHandler, sessionMgr))

	recipientHandler := recipientfeature.NewHandler(db, wf, errLog, logger)
	r.Mount("/recipient", recipientfeature.Routes(recipientHandler, sessionMgr))

	adminHandler := adminfeature.NewHandler(db, wf, errLog, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, sessionMgr))

	return r, nil
}

// sessionKey returns the configured key. A blank key outside production
// gets a random one, so sessions do not survive a restart.
func sessionKey(appCfg AppConfig, logger *zap.Logger) string {
	if appCfg.SessionKey != "" {
		return appCfg.SessionKey
	}
	logger.Warn("session_key is blank; using a random key for this process")
	return hex.EncodeToString(securecookie.GenerateRandomKey(32))
}
