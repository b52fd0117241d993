package messagestore_test

import (
	"errors"
	"strings"
	"testing"

	messagestore "github.com/dalemusser/studyhub/internal/app/store/messages"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Post_RecipientsAndSanitize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com", models.RoleTeacher)
	s1 := fixtures.CreateStudent(ctx, "S1", "s1@example.com")
	s2 := fixtures.CreateStudent(ctx, "S2", "s2@example.com")
	group := fixtures.CreateGroup(ctx, "Physics", owner.ID)
	fixtures.AddMember(ctx, group.ID, s1.ID, models.MembershipMember)
	fixtures.AddMember(ctx, group.ID, s2.ID, models.MembershipMember)

	msg, err := store.Post(ctx, group.ID, s1.ID, `<b>Quiz</b> tomorrow<script>alert(1)</script>`)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if strings.Contains(msg.Body, "script") {
		t.Errorf("body not sanitized: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "<b>Quiz</b>") {
		t.Errorf("expected formatting kept, got %q", msg.Body)
	}
	if len(msg.RecipientIDs) != 2 {
		t.Fatalf("recipients: got %d, want 2", len(msg.RecipientIDs))
	}
	for _, id := range msg.RecipientIDs {
		if id == s1.ID {
			t.Error("sender must not be a recipient")
		}
	}

	n, err := store.CountUnread(ctx, s2.ID)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountUnread(s2): got %d, want 1", n)
	}
	n, _ = store.CountUnread(ctx, s1.ID)
	if n != 0 {
		t.Errorf("CountUnread(sender): got %d, want 0", n)
	}
}

func TestStore_Post_EmptyAfterSanitize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Post(ctx, primitive.NewObjectID(), primitive.NewObjectID(), "<script>x</script>  ")
	if !errors.Is(err, messagestore.ErrEmptyBody) {
		t.Errorf("got %v, want ErrEmptyBody", err)
	}
}

func TestStore_MarkRead(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sender := primitive.NewObjectID()
	reader := primitive.NewObjectID()
	msg := fixtures.CreateMessage(ctx, primitive.NewObjectID(), sender, []primitive.ObjectID{reader}, nil)

	if err := store.MarkRead(ctx, msg.ID, reader); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if err := store.MarkRead(ctx, msg.ID, reader); err != nil {
		t.Fatalf("second MarkRead failed: %v", err)
	}
	n, err := store.CountUnread(ctx, reader)
	if err != nil {
		t.Fatalf("CountUnread failed: %v", err)
	}
	if n != 0 {
		t.Errorf("CountUnread: got %d, want 0", n)
	}

	if err := store.MarkRead(ctx, msg.ID, primitive.NewObjectID()); !errors.Is(err, messagestore.ErrNotFound) {
		t.Errorf("non-recipient: got %v, want ErrNotFound", err)
	}
}

func TestStore_ListByGroup_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := messagestore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	group := primitive.NewObjectID()
	sender := primitive.NewObjectID()
	first := fixtures.CreateMessage(ctx, group, sender, nil, nil)
	second := fixtures.CreateMessage(ctx, group, sender, nil, nil)
	fixtures.CreateMessage(ctx, primitive.NewObjectID(), sender, nil, nil)

	msgs, err := store.ListByGroup(ctx, group, 10)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != second.ID || msgs[1].ID != first.ID {
		t.Errorf("order: got %v, %v, want %v, %v", msgs[0].ID, msgs[1].ID, second.ID, first.ID)
	}
}
