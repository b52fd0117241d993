// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work, closes dashboard streams and then
// disconnects from MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if svc != nil {
		svc.reminder.Stop()
		svc.runner.Stop()
		svc.dashboards.Close()
	}
	if deps.StudyHubMongoClient != nil {
		logger.Info("disconnecting StudyHub MongoDB client")
		if err := deps.StudyHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
