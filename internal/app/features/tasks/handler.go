// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	groupstore "github.com/dalemusser/studyhub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/studyhub/internal/app/store/memberships"
	taskstore "github.com/dalemusser/studyhub/internal/app/store/tasks"
	"github.com/dalemusser/studyhub/internal/app/system/authz"
	"github.com/dalemusser/studyhub/internal/app/system/httpjson"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Tasks   *taskstore.Store
	Groups  *groupstore.Store
	Members *membershipstore.Store
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks:   taskstore.New(db),
		Groups:  groupstore.New(db),
		Members: membershipstore.New(db),
		Log:     logger,
	}
}

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	GroupID     string     `json:"group_id,omitempty"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
}

type tasksResponse struct {
	Tasks []models.Task `json:"tasks"`
}

// ServeList handles GET /tasks?status=open|completed.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	status := normalize.Status(r.URL.Query().Get("status"))
	if status != "" && status != models.TaskOpen && status != models.TaskCompleted {
		httpjson.Error(w, http.StatusBadRequest, `status must be "open" or "completed"`)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	tasks, err := h.Tasks.ListForAssignee(ctx, userID, status)
	if err != nil {
		h.Log.Error("tasks: list", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load tasks")
		return
	}
	httpjson.Write(w, http.StatusOK, tasksResponse{Tasks: tasks})
}

// HandleCreate handles POST /tasks. Without assignee_id the task is the
// caller's own. Assigning to someone else needs group_id: the caller must
// own the group (or be an admin) and the assignee must be a member.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	var req createTaskRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httpjson.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	t := models.Task{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		DueAt:       req.DueAt,
		AssigneeID:  userID,
		AssignedBy:  userID,
	}
	if req.AssigneeID != "" {
		id, err := primitive.ObjectIDFromHex(req.AssigneeID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid assignee_id")
			return
		}
		t.AssigneeID = id
	}
	if req.GroupID != "" {
		id, err := primitive.ObjectIDFromHex(req.GroupID)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid group_id")
			return
		}
		t.GroupID = &id
	}
	if t.AssigneeID != userID && t.GroupID == nil {
		httpjson.Error(w, http.StatusBadRequest, "group_id is required to assign a task to someone else")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if t.GroupID != nil {
		if status, msg := h.checkGroup(ctx, r, *t.GroupID, userID, t.AssigneeID); status != 0 {
			httpjson.Error(w, status, msg)
			return
		}
	}

	created, err := h.Tasks.Create(ctx, t)
	if err != nil {
		h.Log.Error("tasks: create", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create task")
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

// checkGroup returns a non-zero status when the caller may not create a
// task in groupID for assigneeID.
func (h *Handler) checkGroup(ctx context.Context, r *http.Request, groupID, callerID, assigneeID primitive.ObjectID) (int, string) {
	g, err := h.Groups.GetByID(ctx, groupID)
	if errors.Is(err, groupstore.ErrNotFound) {
		return http.StatusNotFound, "group not found"
	}
	if err != nil {
		h.Log.Error("tasks: load group", zap.Error(err))
		return http.StatusInternalServerError, "could not create task"
	}

	if assigneeID != callerID && g.OwnerID != callerID && !authz.IsAdmin(r) {
		return http.StatusForbidden, "only the group owner can assign tasks"
	}
	member, err := h.Members.IsMember(ctx, groupID, assigneeID)
	if err != nil {
		h.Log.Error("tasks: check membership", zap.Error(err))
		return http.StatusInternalServerError, "could not create task"
	}
	if !member {
		return http.StatusBadRequest, "assignee is not a member of the group"
	}
	return 0, ""
}

// HandleComplete handles POST /tasks/{id}/complete.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid task id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tasks.Complete(ctx, id, userID)
	switch {
	case errors.Is(err, taskstore.ErrNotFound):
		httpjson.Error(w, http.StatusNotFound, "task not found")
	case errors.Is(err, taskstore.ErrAlreadyCompleted):
		httpjson.Error(w, http.StatusConflict, err.Error())
	case err != nil:
		h.Log.Error("tasks: complete", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not complete task")
	default:
		httpjson.Write(w, http.StatusOK, t)
	}
}
