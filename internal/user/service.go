package user

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/shopper-backend/internal/identity"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// Register creates a local account. New accounts are always regular users.
func (s *Service) Register(ctx context.Context, u User) (User, error) {
	if _, err := s.repo.GetByEmail(ctx, u.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	now := s.now().UTC()
	u.ID = uuid.NewString()
	u.Email = normalizeEmail(u.Email)
	u.Password = string(hashed)
	u.Role = identity.RoleUser
	u.CreatedAt, u.UpdatedAt = now, now
	if err := s.repo.Save(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil || u.Password == "" {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// ProfileUpdate carries the fields a user may change; nil means unchanged.
type ProfileUpdate struct {
	DisplayName *string
	FirstName   *string
	LastName    *string
	Phone       *string
	Gender      *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.DisplayName, p.DisplayName)
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Phone, p.Phone)
	set(&u.Gender, p.Gender)
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) SetRole(ctx context.Context, id string, role identity.Role) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Role = role
	u.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, u); err != nil {
		return User{}, err
	}
	log.Printf("[user] role of %s set to %s", id, role)
	return u, nil
}

// Resolve loads the stored profile of a verified caller so the role comes
// from the users collection, never from the token. A first-time caller gets
// a profile created from the token's claims.
func (s *Service) Resolve(ctx context.Context, id identity.Identity) (identity.Identity, error) {
	u, err := s.repo.GetByID(ctx, id.ID)
	if errors.Is(err, ErrNotFound) {
		now := s.now().UTC()
		u = User{
			ID:          id.ID,
			Email:       id.Email,
			DisplayName: id.DisplayName,
			Role:        identity.RoleUser,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Save(ctx, u); err != nil {
			return identity.Identity{}, err
		}
		log.Printf("[user] created profile for %s", id.ID)
	} else if err != nil {
		return identity.Identity{}, err
	}

	out := u.Identity()
	if out.Email == "" {
		out.Email = id.Email
	}
	if out.DisplayName == "" {
		out.DisplayName = id.DisplayName
	}
	return out, nil
}
