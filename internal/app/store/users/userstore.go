// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/inputval"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c    *mongo.Collection
	cost int
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users"), cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Store) WithCost(cost int) *Store {
	s.cost = cost
	return s
}

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrInvalidEmail is returned by Create for a malformed address.
	ErrInvalidEmail = errors.New("email address is not valid")
	// ErrBadCredentials is returned by Authenticate for an unknown email or wrong password.
	ErrBadCredentials = errors.New("invalid email or password")

	errBadRole     = errors.New(`role must be "admin"|"teacher"|"student"`)
	errEmptyName   = errors.New("full name is required")
	errEmptyEmail  = errors.New("email is required")
	errShortPasswd = errors.New("password must be at least 8 characters")
)

// MinPasswordLength is the shortest password Create accepts.
const MinPasswordLength = 8

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(strings.TrimSpace(email))}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create validates and inserts a new user with a bcrypt hash of password.
// Role defaults to student.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.FullName = normalize.Name(u.FullName)
	u.Email = strings.TrimSpace(u.Email)
	if u.FullName == "" {
		return models.User{}, errEmptyName
	}
	if u.Email == "" {
		return models.User{}, errEmptyEmail
	}
	if !inputval.IsValidEmail(u.Email) {
		return models.User{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return models.User{}, errShortPasswd
	}
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	switch u.Role {
	case models.RoleAdmin, models.RoleTeacher, models.RoleStudent:
	default:
		return models.User{}, errBadRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, err
	}

	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.FullNameCI = text.Fold(u.FullName)
	u.EmailCI = text.Fold(u.Email)
	u.PasswordHash = string(hash)
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate returns the active user matching email and password.
// Unknown emails and wrong passwords both yield ErrBadCredentials.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if u.Status != models.StatusActive {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// SetRole changes a user's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	switch role {
	case models.RoleAdmin, models.RoleTeacher, models.RoleStudent:
	default:
		return errBadRole
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
