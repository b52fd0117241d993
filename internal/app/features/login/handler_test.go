package login_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/features/login"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeAccounts struct {
	user    models.User
	pass    string
	created []models.User
}

func (f *fakeAccounts) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if email != f.user.Email || password != f.pass {
		return nil, userstore.ErrBadCredentials
	}
	u := f.user
	return &u, nil
}

func (f *fakeAccounts) Create(_ context.Context, u models.User, _ string) (models.User, error) {
	if u.Email == f.user.Email {
		return models.User{}, userstore.ErrDuplicateEmail
	}
	u.ID = primitive.NewObjectID()
	f.created = append(f.created, u)
	return u, nil
}

func newHandler(t *testing.T, limiter *ratelimit.LoginLimiter) (*login.Handler, *fakeAccounts) {
	t.Helper()
	tokens, err := auth.NewTokenIssuer("login-test-secret-at-least-32-characters", "studyhub-test", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	sm, err := auth.NewSessionManager("login-test-session-key-32-chars-long!", "studyhub-test", "", false, tokens, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	accounts := &fakeAccounts{
		user: models.User{ID: primitive.NewObjectID(), FullName: "Ada", Email: "ada@example.com", Role: models.RoleStudent},
		pass: "analytical",
	}
	return login.NewHandler(accounts, sm, limiter, zap.NewNop()), accounts
}

type loginBody struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      auth.SessionUser `json:"user"`
}

func TestHandleLogin_Success(t *testing.T) {
	h, accounts := newHandler(t, nil)

	req := testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"email": "ada@example.com", "password": "analytical"})
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	var body loginBody
	rec.DecodeJSON(t, &body)
	if body.Token == "" {
		t.Fatal("expected a token")
	}
	if body.User.ID != accounts.user.ID.Hex() {
		t.Errorf("user id: got %q, want %q", body.User.ID, accounts.user.ID.Hex())
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie")
	}

	u, err := h.SessionMgr.Tokens().Verify(body.Token)
	if err != nil {
		t.Fatalf("Verify issued token: %v", err)
	}
	if u.Role != models.RoleStudent {
		t.Errorf("role: got %q, want %q", u.Role, models.RoleStudent)
	}
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	h, _ := newHandler(t, nil)

	req := testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"email": "ada@example.com", "password": "nope"})
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleLogin_BadBody(t *testing.T) {
	h, _ := newHandler(t, nil)

	req := testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"user": "ada"})
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleLogin_Throttled(t *testing.T) {
	h, _ := newHandler(t, ratelimit.NewLoginLimiter(1, 2))

	var last *testutil.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := testutil.NewJSONRequest(t, "POST", "/login", map[string]string{"email": "ada@example.com", "password": "wrong"})
		req.RemoteAddr = "198.51.100.7:4000"
		last = testutil.NewRecorder()
		h.HandleLogin(last, req)
	}

	last.AssertStatus(t, http.StatusTooManyRequests)
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestHandleRegister(t *testing.T) {
	h, accounts := newHandler(t, nil)

	req := testutil.NewJSONRequest(t, "POST", "/login/register", map[string]string{
		"full_name": "Grace Hopper",
		"email":     "grace@example.com",
		"password":  "cobol1959",
		"role":      "Teacher",
	})
	rec := testutil.NewRecorder()
	h.HandleRegister(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	if len(accounts.created) != 1 || accounts.created[0].Role != models.RoleTeacher {
		t.Errorf("created: got %+v, want one teacher", accounts.created)
	}
}

func TestHandleRegister_Rejects(t *testing.T) {
	h, _ := newHandler(t, nil)

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"admin role", map[string]string{"full_name": "X", "email": "x@example.com", "password": "longenough", "role": "admin"}, http.StatusBadRequest},
		{"short password", map[string]string{"full_name": "X", "email": "x@example.com", "password": "short"}, http.StatusBadRequest},
		{"bad email", map[string]string{"full_name": "X", "email": "x..y@example.com", "password": "longenough"}, http.StatusBadRequest},
		{"duplicate", map[string]string{"full_name": "Ada", "email": "ada@example.com", "password": "longenough"}, http.StatusConflict},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleRegister(rec, testutil.NewJSONRequest(t, "POST", "/login/register", c.body))
			rec.AssertStatus(t, c.want)
		})
	}
}
