// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	groupstore "github.com/dalemusser/studyhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/studyhub/internal/app/store/memberships"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	"github.com/dalemusser/studyhub/internal/app/system/authz"
	"github.com/dalemusser/studyhub/internal/app/system/httpjson"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Groups  *groupstore.Store
	Members *membershipstore.Store
	Users   *userstore.Store
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Groups:  groupstore.New(db),
		Members: membershipstore.New(db),
		Users:   userstore.New(db),
		Log:     logger,
	}
}

type createGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type addMemberRequest struct {
	Email string `json:"email"`
}

type groupsResponse struct {
	Groups []models.Group `json:"groups"`
}

// ServeList handles GET /groups: every group the user belongs to.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ids, err := h.Members.GroupIDs(ctx, userID)
	if err != nil {
		h.Log.Error("groups: list memberships", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load groups")
		return
	}
	groups, err := h.Groups.ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("groups: list", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load groups")
		return
	}
	httpjson.Write(w, http.StatusOK, groupsResponse{Groups: groups})
}

// HandleCreate handles POST /groups. The caller becomes the owner.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	var req createGroupRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httpjson.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.Create(ctx, models.Group{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     userID,
	})
	if err != nil {
		h.Log.Error("groups: create", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create group")
		return
	}
	h.Log.Info("group created", zap.String("group", g.ID.Hex()), zap.String("owner", userID.Hex()))
	httpjson.Write(w, http.StatusCreated, g)
}

// HandleAddMember handles POST /groups/{id}/members. Only the owner or an
// admin may add members.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid group id")
		return
	}
	var req addMemberRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	g, err := h.Groups.GetByID(ctx, groupID)
	if errors.Is(err, groupstore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "group not found")
		return
	}
	if err != nil {
		h.Log.Error("groups: load group", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not add member")
		return
	}
	if g.OwnerID != userID && !authz.IsAdmin(r) {
		httpjson.Error(w, http.StatusForbidden, "only the group owner can add members")
		return
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		httpjson.Error(w, http.StatusNotFound, "no user with that email")
		return
	}
	if err != nil {
		h.Log.Error("groups: load user", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not add member")
		return
	}

	if err := h.Members.Add(ctx, groupID, u.ID, models.MembershipMember); err != nil {
		if errors.Is(err, membershipstore.ErrDuplicateMembership) {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("groups: add member", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not add member")
		return
	}
	httpjson.Write(w, http.StatusCreated, models.GroupMembership{GroupID: groupID, UserID: u.ID, Role: models.MembershipMember})
}
