package user

import (
	"context"
	"errors"
	"strings"

	"github.com/wichananm65/shopper-backend/internal/docstore"
	"github.com/wichananm65/shopper-backend/internal/identity"
)

const Collection = "users"

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already exists")
)

type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// Save writes the whole profile, creating it when missing.
	Save(ctx context.Context, u User) error
}

type DocRepository struct {
	store docstore.Store
}

func NewDocRepository(store docstore.Store) *DocRepository {
	return &DocRepository{store: store}
}

func (r *DocRepository) List(ctx context.Context) ([]User, error) {
	docs, err := r.store.Query(ctx, Collection)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(docs))
	for _, d := range docs {
		users = append(users, decode(d))
	}
	return users, nil
}

func (r *DocRepository) GetByID(ctx context.Context, id string) (User, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return decode(doc), nil
}

func (r *DocRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	docs, err := r.store.Query(ctx, Collection, docstore.Eq("email", normalizeEmail(email)))
	if err != nil {
		return User{}, err
	}
	if len(docs) == 0 {
		return User{}, ErrNotFound
	}
	return decode(docs[0]), nil
}

func (r *DocRepository) Save(ctx context.Context, u User) error {
	return r.store.Set(ctx, Collection, u.ID, encode(u))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func encode(u User) map[string]any {
	return map[string]any{
		"email":        normalizeEmail(u.Email),
		"passwordHash": u.Password,
		"name":         u.DisplayName,
		"firstName":    u.FirstName,
		"lastName":     u.LastName,
		"phone":        u.Phone,
		"gender":       u.Gender,
		"role":         string(u.Role),
		"createdAt":    u.CreatedAt.UnixMilli(),
		"updatedAt":    u.UpdatedAt.UnixMilli(),
	}
}

func decode(doc docstore.Document) User {
	d := doc.Data
	u := User{ID: doc.ID}
	u.Email, _ = docstore.String(d, "email")
	u.Password, _ = docstore.String(d, "passwordHash")
	u.DisplayName, _ = docstore.String(d, "name")
	u.FirstName, _ = docstore.String(d, "firstName")
	u.LastName, _ = docstore.String(d, "lastName")
	u.Phone, _ = docstore.String(d, "phone")
	u.Gender, _ = docstore.String(d, "gender")
	role, _ := docstore.String(d, "role")
	u.Role = identity.ParseRole(role)
	u.CreatedAt, _ = docstore.Time(d, "createdAt")
	u.UpdatedAt, _ = docstore.Time(d, "updatedAt")
	return u
}
