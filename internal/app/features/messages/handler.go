// internal/app/features/messages/handler.go
package messages

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	membershipstore "github.com/dalemusser/studyhub/internal/app/store/memberships"
	messagestore "github.com/dalemusser/studyhub/internal/app/store/messages"
	"github.com/dalemusser/studyhub/internal/app/system/authz"
	"github.com/dalemusser/studyhub/internal/app/system/httpjson"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Handler struct {
	Messages *messagestore.Store
	Members  *membershipstore.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Messages: messagestore.New(db),
		Members:  membershipstore.New(db),
		Log:      logger,
	}
}

type postRequest struct {
	Body string `json:"body"`
}

type messagesResponse struct {
	Messages []models.Message `json:"messages"`
}

// ServeList handles GET /groups/{id}/messages?limit=N, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	groupID, _, ok := h.groupAccess(w, r)
	if !ok {
		return
	}
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpjson.Error(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = min(n, maxLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msgs, err := h.Messages.ListByGroup(ctx, groupID, int64(limit))
	if err != nil {
		h.Log.Error("messages: list", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load messages")
		return
	}
	httpjson.Write(w, http.StatusOK, messagesResponse{Messages: msgs})
}

// HandlePost handles POST /groups/{id}/messages.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := h.groupAccess(w, r)
	if !ok {
		return
	}
	var req postRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msg, err := h.Messages.Post(ctx, groupID, userID, req.Body)
	if errors.Is(err, messagestore.ErrEmptyBody) {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Log.Error("messages: post", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not post message")
		return
	}
	httpjson.Write(w, http.StatusCreated, msg)
}

// HandleMarkRead handles POST /messages/{id}/read. Only recipients can
// mark a message read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid message id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	switch err := h.Messages.MarkRead(ctx, id, userID); {
	case errors.Is(err, messagestore.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "message not found")
	case err != nil:
		h.Log.Error("messages: mark read", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update message")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// groupAccess resolves the {id} group and checks the caller belongs to it.
// It writes the error response itself when ok is false.
func (h *Handler) groupAccess(w http.ResponseWriter, r *http.Request) (groupID, userID primitive.ObjectID, ok bool) {
	_, _, userID, ok = authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return groupID, userID, false
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid group id")
		return groupID, userID, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	member, err := h.Members.IsMember(ctx, groupID, userID)
	if err != nil {
		h.Log.Error("messages: check membership", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load group")
		return groupID, userID, false
	}
	if !member {
		httpjson.Error(w, http.StatusForbidden, "not a member of this group")
		return groupID, userID, false
	}
	return groupID, userID, true
}
