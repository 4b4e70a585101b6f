package user

import (
	"strings"
	"time"

	"github.com/wichananm65/shopper-backend/internal/identity"
)

// User is the profile stored under users/{id}. Password holds a bcrypt
// hash and is empty for accounts that sign in through Firebase.
type User struct {
	ID          string        `json:"userId"`
	Email       string        `json:"email"`
	Password    string        `json:"password,omitempty"`
	DisplayName string        `json:"displayName"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Phone       string        `json:"phone"`
	Gender      string        `json:"gender"`
	Role        identity.Role `json:"role"`
	CreatedAt   time.Time     `json:"createAt"`
	UpdatedAt   time.Time     `json:"updateAt"`
}

// Name prefers the display name and falls back to first + last name.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) Identity() identity.Identity {
	return identity.Identity{ID: u.ID, DisplayName: u.Name(), Email: u.Email, Role: u.Role}
}

func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
