package groupstore_test

import (
	"errors"
	"testing"

	groupstore "github.com/dalemusser/studyhub/internal/app/store/groups"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/studyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_AddsOwnerMembership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Teach Er", "teacher@example.com", models.RoleTeacher)

	created, err := store.Create(ctx, models.Group{Name: "  Algebra I ", OwnerID: owner.ID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Name != "Algebra I" {
		t.Errorf("Name: got %q, want %q", created.Name, "Algebra I")
	}
	if created.NameCI != "algebra i" {
		t.Errorf("NameCI: got %q, want %q", created.NameCI, "algebra i")
	}

	var m models.GroupMembership
	err = db.Collection("group_memberships").FindOne(ctx, bson.M{"group_id": created.ID, "user_id": owner.ID}).Decode(&m)
	if err != nil {
		t.Fatalf("owner membership not found: %v", err)
	}
	if m.Role != models.MembershipOwner {
		t.Errorf("Role: got %q, want %q", m.Role, models.MembershipOwner)
	}
}

func TestStore_Create_EmptyName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Group{Name: "   ", OwnerID: primitive.NewObjectID()}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestStore_ListForOwner_CountOwned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := fixtures.CreateUser(ctx, "Owner", "owner@example.com", models.RoleTeacher)
	other := fixtures.CreateUser(ctx, "Other", "other@example.com", models.RoleTeacher)
	fixtures.CreateGroup(ctx, "Zoology", owner.ID)
	fixtures.CreateGroup(ctx, "Biology", owner.ID)
	fixtures.CreateGroup(ctx, "Chemistry", other.ID)

	groups, err := store.ListForOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListForOwner failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Name != "Biology" {
		t.Errorf("first group: got %q, want %q", groups[0].Name, "Biology")
	}

	n, err := store.CountOwned(ctx, owner.ID)
	if err != nil {
		t.Fatalf("CountOwned failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountOwned: got %d, want 2", n)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, groupstore.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStore_ListByIDs_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := groupstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	groups, err := store.ListByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("got %d groups, want 0", len(groups))
	}
}
