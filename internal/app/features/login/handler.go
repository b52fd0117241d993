// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/httpjson"
	"github.com/dalemusser/studyhub/internal/app/system/inputval"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.uber.org/zap"
)

// Accounts is the slice of the user store login needs.
type Accounts interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Create(ctx context.Context, u models.User, password string) (models.User, error)
}

type Handler struct {
	Users      Accounts
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(users Accounts, sm *auth.SessionManager, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{Users: users, SessionMgr: sm, Limiter: limiter, Log: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      auth.SessionUser `json:"user"`
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		httpjson.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Email); !ok {
			h.Log.Info("login throttled",
				zap.String("ip", ratelimit.ClientIP(r)),
				zap.String("email", req.Email))
			w.Header().Set("Retry-After", "60")
			httpjson.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrBadCredentials) {
			httpjson.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login: authenticate", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "login failed")
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(req.Email)
	}
	h.signIn(w, r, u, http.StatusOK)
}

// HandleRegister handles POST /login/register. Anyone may create a student
// or teacher account; admins are provisioned out of band.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpjson.Decode(w, r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	role := normalize.Role(req.Role)
	if role == "" {
		role = models.RoleStudent
	}
	if role != models.RoleStudent && role != models.RoleTeacher {
		httpjson.Error(w, http.StatusBadRequest, `role must be "student" or "teacher"`)
		return
	}
	if len(req.Password) < userstore.MinPasswordLength {
		httpjson.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if strings.TrimSpace(req.FullName) == "" || strings.TrimSpace(req.Email) == "" {
		httpjson.Error(w, http.StatusBadRequest, "full_name and email are required")
		return
	}
	if !inputval.IsValidEmail(strings.TrimSpace(req.Email)) {
		httpjson.Error(w, http.StatusBadRequest, userstore.ErrInvalidEmail.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{FullName: req.FullName, Email: req.Email, Role: role}, req.Password)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("register: create user", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}
	h.Log.Info("user registered", zap.String("user", u.ID.Hex()), zap.String("role", u.Role))
	h.signIn(w, r, &u, http.StatusCreated)
}

// signIn issues a token, sets the session cookie and writes the response.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, u *models.User, status int) {
	su := auth.SessionUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email, Role: u.Role}

	token, exp, err := h.SessionMgr.Tokens().Issue(su)
	if err != nil {
		h.Log.Error("login: issue token", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		// The token alone is enough for API clients.
		h.Log.Warn("login: save session cookie", zap.Error(err))
	}
	httpjson.Write(w, status, loginResponse{Token: token, ExpiresAt: exp, User: su})
}
