// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	dashboardfeature "github.com/dalemusser/studyhub/internal/app/features/dashboard"
	groupsfeature "github.com/dalemusser/studyhub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/studyhub/internal/app/features/health"
	loginfeature "github.com/dalemusser/studyhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/studyhub/internal/app/features/logout"
	messagesfeature "github.com/dalemusser/studyhub/internal/app/features/messages"
	notificationsfeature "github.com/dalemusser/studyhub/internal/app/features/notifications"
	tasksfeature "github.com/dalemusser/studyhub/internal/app/features/tasks"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Startup has built the session manager,
// the login limiter and the dashboard registry; BuildHandler mounts the
// feature routers that use them.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, errors.New("bootstrap: Startup has not run")
	}
	db := deps.StudyHubMongoDatabase
	sessionMgr := svc.sessions

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context from a bearer
	// token or the session cookie.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.StudyHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(userstore.New(db), sessionMgr, svc.limiter, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, svc.dashboards, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Dashboard counters and live stream
	dashboardHandler := dashboardfeature.NewHandler(svc.dashboards, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Groups and their conversations
	messagesHandler := messagesfeature.NewHandler(db, logger)
	groupsHandler := groupsfeature.NewHandler(db, logger)
	groupsRouter := groupsfeature.Routes(groupsHandler, sessionMgr)
	groupsRouter.Mount("/{id}/messages", messagesfeature.GroupRoutes(messagesHandler, sessionMgr))
	r.Mount("/groups", groupsRouter)
	r.Mount("/messages", messagesfeature.Routes(messagesHandler, sessionMgr))

	tasksHandler := tasksfeature.NewHandler(db, logger)
	r.Mount("/tasks", tasksfeature.Routes(tasksHandler, sessionMgr))

	notificationsHandler := notificationsfeature.NewHandler(db, logger)
	r.Mount("/notifications", notificationsfeature.Routes(notificationsHandler, sessionMgr))

	return r, nil
}
