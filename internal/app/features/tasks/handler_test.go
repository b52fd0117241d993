package tasks_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/features/tasks"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestHandleCreate_Personal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := tasks.NewHandler(db, zap.NewNop())
	user := testutil.StudentUser()

	due := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/tasks", map[string]any{"title": "Revise", "due_at": due}), user)
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	var got models.Task
	rec.DecodeJSON(t, &got)
	if got.AssigneeID != user.ObjectID() || got.Assignment {
		t.Errorf("got assignee %v assignment %v, want own personal task", got.AssigneeID, got.Assignment)
	}
	if got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Errorf("due_at: got %v, want %v", got.DueAt, due)
	}
}

func TestHandleCreate_AssignInGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	h := tasks.NewHandler(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teacher := fixtures.CreateUser(ctx, "Teacher", "t@example.com", models.RoleTeacher)
	student := fixtures.CreateStudent(ctx, "Student", "s@example.com")
	stranger := fixtures.CreateStudent(ctx, "Stranger", "x@example.com")
	group := fixtures.CreateGroup(ctx, "Physics", teacher.ID)
	fixtures.AddMember(ctx, group.ID, student.ID, models.MembershipMember)

	create := func(as models.User, assignee primitive.ObjectID) *testutil.ResponseRecorder {
		body := map[string]string{"title": "Lab report", "group_id": group.ID.Hex(), "assignee_id": assignee.Hex()}
		req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/tasks", body), testutil.AsTestUser(as))
		rec := testutil.NewRecorder()
		h.HandleCreate(rec, req)
		return rec
	}

	rec := create(teacher, student.ID)
	rec.AssertStatus(t, http.StatusCreated)
	var got models.Task
	rec.DecodeJSON(t, &got)
	if !got.Assignment {
		t.Error("expected an assignment")
	}

	create(student, teacher.ID).AssertStatus(t, http.StatusForbidden)
	create(teacher, stranger.ID).AssertStatus(t, http.StatusBadRequest)
}

func TestHandleCreate_AssignWithoutGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := tasks.NewHandler(db, zap.NewNop())

	body := map[string]string{"title": "x", "assignee_id": primitive.NewObjectID().Hex()}
	req := testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/tasks", body), testutil.TeacherUser())
	rec := testutil.NewRecorder()
	h.HandleCreate(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleComplete_AndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	h := tasks.NewHandler(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.StudentUser()
	task := fixtures.CreateTask(ctx, "Essay", user.ObjectID(), testutil.TaskOpts{})
	fixtures.CreateTask(ctx, "Reading", user.ObjectID(), testutil.TaskOpts{})

	complete := func() *testutil.ResponseRecorder {
		req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest("POST", "/tasks/"+task.ID.Hex()+"/complete", user), "id", task.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleComplete(rec, req)
		return rec
	}
	complete().AssertStatus(t, http.StatusOK)
	complete().AssertStatus(t, http.StatusConflict)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/tasks?status=open", user))
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Tasks []models.Task `json:"tasks"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Tasks) != 1 || body.Tasks[0].Title != "Reading" {
		t.Errorf("open tasks: got %+v, want [Reading]", body.Tasks)
	}
}

func TestServeList_BadStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := tasks.NewHandler(db, zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest("GET", "/tasks?status=late", testutil.StudentUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}
