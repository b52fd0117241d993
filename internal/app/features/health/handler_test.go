package health_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/features/health"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Message  string `json:"message"`
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := health.NewHandler(db.Client(), zap.NewNop())

	rec := testutil.NewRecorder()
	handler.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}

	var body healthBody
	rec.DecodeJSON(t, &body)
	if body.Status != "ok" {
		t.Errorf("status: got %q, want %q", body.Status, "ok")
	}
	if body.Database != "connected" {
		t.Errorf("database: got %q, want %q", body.Database, "connected")
	}
}

func TestServe_DatabaseUnreachable(t *testing.T) {
	timeouts.Configure(timeouts.Config{Ping: 200 * time.Millisecond})
	defer timeouts.Reset()

	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(100*time.Millisecond))
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Disconnect(context.Background())

	handler := health.NewHandler(client, zap.NewNop())
	rec := testutil.NewRecorder()
	handler.Serve(rec, testutil.NewRequest("GET", "/health"))

	rec.AssertStatus(t, http.StatusServiceUnavailable)
	var body healthBody
	rec.DecodeJSON(t, &body)
	if body.Status != "error" {
		t.Errorf("status: got %q, want %q", body.Status, "error")
	}
	if body.Database != "disconnected" {
		t.Errorf("database: got %q, want %q", body.Database, "disconnected")
	}
}
