// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	StudyHubMongoClient   *mongo.Client
	StudyHubMongoDatabase *mongo.Database
}
