// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	dashboardstore "github.com/dalemusser/studyhub/internal/app/store/dashboard"
	notificationstore "github.com/dalemusser/studyhub/internal/app/store/notifications"
	taskstore "github.com/dalemusser/studyhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/dashstate"
	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/studyhub/internal/app/system/tasks"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/app/system/workers"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// services are the long-lived components built in Startup and shared by
// BuildHandler and Shutdown.
type services struct {
	sessions   *auth.SessionManager
	limiter    *ratelimit.LoginLimiter
	dashboards *dashstate.Registry
	reminder   *workers.TaskReminder
	runner     *tasks.Runner
}

var svc *services

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// timeouts, makes sure the admin account exists, and starts background work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	db := deps.StudyHubMongoDatabase

	if appCfg.AdminEmail != "" {
		actx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		err := ensureAdmin(actx, userstore.New(db), appCfg.AdminEmail, appCfg.AdminPassword, logger)
		cancel()
		if err != nil {
			return fmt.Errorf("ensure admin: %w", err)
		}
	}

	tokens, err := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTTTL)
	if err != nil {
		return err
	}
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, tokens, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return err
	}

	s := &services{
		sessions:   sessionMgr,
		limiter:    ratelimit.NewLoginLimiter(appCfg.LoginRateLimit, appCfg.LoginRateBurst),
		dashboards: dashstate.NewRegistry(dashboardSources(db, logger), logger),
	}

	notes := notificationstore.New(db)
	s.reminder = workers.NewTaskReminder(taskstore.New(db), notes, logger, appCfg.ReminderInterval, appCfg.ReminderWindow)
	s.runner = tasks.NewRunner(logger,
		tasks.DashboardEvictionJob(s.dashboards, logger, appCfg.DashboardSweepInterval, appCfg.DashboardIdleTTL),
		tasks.LoginLimiterSweepJob(s.limiter, logger, appCfg.DashboardSweepInterval),
		tasks.NotificationPurgeJob(notes, logger, appCfg.NotificationRetention),
	)
	s.reminder.Start()
	s.runner.Start()

	svc = s
	logger.Info("studyhub started",
		zap.Duration("reminder_interval", appCfg.ReminderInterval),
		zap.Duration("dashboard_idle_ttl", appCfg.DashboardIdleTTL))
	return nil
}

// dashboardSources builds a user-scoped counter repository for each
// dashboard session. Registry keys are user ObjectID hex strings; a key
// that does not parse gets a source whose every count fails.
func dashboardSources(db *mongo.Database, logger *zap.Logger) dashstate.SourceFactory {
	provider := dashboardstore.NewMongoProvider(db)
	return func(userID string) dashstate.Source {
		oid, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			logger.Error("dashboard session for malformed user id",
				zap.String("user", userID), zap.Error(err))
			return dashboardstore.NewRepository(rejectProvider{err: err}, primitive.NilObjectID)
		}
		return dashboardstore.NewRepository(provider, oid)
	}
}

// rejectProvider fails every count with err.
type rejectProvider struct{ err error }

func (p rejectProvider) Count(context.Context, string, bson.M) (int64, error) {
	return 0, p.err
}

// ensureAdmin promotes the account with email to admin, creating it when
// password is set and no such account exists.
func ensureAdmin(ctx context.Context, users *userstore.Store, email, password string, logger *zap.Logger) error {
	u, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == models.RoleAdmin {
			return nil
		}
		if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
			return err
		}
		logger.Info("promoted user to admin", zap.String("email", email), zap.String("previous_role", u.Role))
		return nil

	case errors.Is(err, userstore.ErrNotFound):
		if password == "" {
			logger.Warn("admin account not found and no admin_password set; skipping", zap.String("email", email))
			return nil
		}
		created, err := users.Create(ctx, models.User{
			FullName: "Administrator",
			Email:    email,
			Role:     models.RoleAdmin,
		}, password)
		if err != nil {
			return err
		}
		logger.Info("created admin user", zap.String("email", email), zap.String("id", created.ID.Hex()))
		return nil

	default:
		return err
	}
}
