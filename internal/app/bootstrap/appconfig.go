// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//
// AppConfig is passed to most lifecycle hooks, so any configuration needed
// during startup, request handling, or shutdown lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: studyhub-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Bearer tokens for API clients
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// Login throttling, per client IP per minute
	LoginRateLimit float64
	LoginRateBurst int

	// Due-task reminders
	ReminderInterval time.Duration
	ReminderWindow   time.Duration

	// Dashboard sessions
	DashboardIdleTTL       time.Duration
	DashboardSweepInterval time.Duration

	// Read notifications older than this are purged
	NotificationRetention time.Duration

	// Timeouts for database work (see system/timeouts)
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// Admin bootstrap: promotes or creates this account on startup
	AdminEmail    string
	AdminPassword string
}
