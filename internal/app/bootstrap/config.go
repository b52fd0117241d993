// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minJWTSecret is the shortest HS256 secret ValidateConfig accepts.
const minJWTSecret = 32

// appConfigKeys defines the configuration keys for StudyHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: STUDYHUB_MONGO_URI, STUDYHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "study_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "studyhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: "dev-only-jwt-secret-change-me-0123456789", Desc: "HS256 signing secret for API tokens (32+ bytes)"},
	{Name: "jwt_issuer", Default: "studyhub", Desc: "Issuer claim for API tokens"},
	{Name: "jwt_ttl", Default: "12h", Desc: "API token lifetime (e.g., 12h, 30m)"},

	// Login throttling
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts per minute per client IP"},
	{Name: "login_rate_burst", Default: 5, Desc: "Login attempts allowed in a burst"},

	// Background work
	{Name: "reminder_interval", Default: "1m", Desc: "How often to scan for tasks that need a reminder"},
	{Name: "reminder_window", Default: "24h", Desc: "Remind about tasks due within this window"},
	{Name: "dashboard_idle_ttl", Default: "30m", Desc: "Drop a user's dashboard session after this much inactivity"},
	{Name: "dashboard_sweep_interval", Default: "5m", Desc: "How often to sweep idle dashboard sessions"},
	{Name: "notification_retention", Default: "720h", Desc: "Purge read notifications older than this"},

	// Timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Timeout for database pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for list queries"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for dashboard cycles and background jobs"},

	// Admin bootstrap
	{Name: "admin_email", Default: "", Desc: "Email of the admin user (promotes/creates on startup)"},
	{Name: "admin_password", Default: "", Desc: "Password for a newly created admin user"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STUDYHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STUDYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),
		JWTTTL:    appValues.Duration("jwt_ttl", 12*time.Hour),

		LoginRateLimit: float64(appValues.Int("login_rate_limit")),
		LoginRateBurst: appValues.Int("login_rate_burst"),

		ReminderInterval:       appValues.Duration("reminder_interval", time.Minute),
		ReminderWindow:         appValues.Duration("reminder_window", 24*time.Hour),
		DashboardIdleTTL:       appValues.Duration("dashboard_idle_ttl", 30*time.Minute),
		DashboardSweepInterval: appValues.Duration("dashboard_sweep_interval", 5*time.Minute),
		NotificationRetention:  appValues.Duration("notification_retention", 30*24*time.Hour),

		TimeoutPing:   appValues.Duration("timeout_ping", 2*time.Second),
		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// StudyHub validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if len(appCfg.JWTSecret) < minJWTSecret {
		return fmt.Errorf("jwt_secret must be at least %d bytes", minJWTSecret)
	}
	if appCfg.LoginRateLimit <= 0 || appCfg.LoginRateBurst <= 0 {
		return errors.New("login_rate_limit and login_rate_burst must be positive")
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"jwt_ttl", appCfg.JWTTTL},
		{"reminder_interval", appCfg.ReminderInterval},
		{"reminder_window", appCfg.ReminderWindow},
		{"dashboard_idle_ttl", appCfg.DashboardIdleTTL},
		{"dashboard_sweep_interval", appCfg.DashboardSweepInterval},
		{"notification_retention", appCfg.NotificationRetention},
		{"timeout_ping", appCfg.TimeoutPing},
		{"timeout_short", appCfg.TimeoutShort},
		{"timeout_medium", appCfg.TimeoutMedium},
		{"timeout_long", appCfg.TimeoutLong},
	}
	for _, c := range durations {
		if c.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", c.name, c.d)
		}
	}
	return nil
}
