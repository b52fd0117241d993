// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	notificationstore "github.com/dalemusser/studyhub/internal/app/store/notifications"
	"github.com/dalemusser/studyhub/internal/app/system/authz"
	"github.com/dalemusser/studyhub/internal/app/system/httpjson"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const listLimit = 100

type Handler struct {
	Notes *notificationstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Notes: notificationstore.New(db), Log: logger}
}

type listResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

// ServeList handles GET /notifications?unread=true.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	unreadOnly := false
	if v := r.URL.Query().Get("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "unread must be true or false")
			return
		}
		unreadOnly = b
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	notes, err := h.Notes.ListForUser(ctx, userID, unreadOnly, listLimit)
	if err != nil {
		h.Log.Error("notifications: list", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load notifications")
		return
	}
	unread, err := h.Notes.CountUnread(ctx, userID)
	if err != nil {
		h.Log.Error("notifications: count unread", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load notifications")
		return
	}
	httpjson.Write(w, http.StatusOK, listResponse{Notifications: notes, Unread: unread})
}

// HandleMarkRead handles POST /notifications/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	switch err := h.Notes.MarkRead(ctx, id, userID); {
	case errors.Is(err, notificationstore.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "notification not found")
	case err != nil:
		h.Log.Error("notifications: mark read", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update notification")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
