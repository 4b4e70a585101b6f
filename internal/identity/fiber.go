package identity

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

const localsKey = "identity"

// FromFiber returns the caller attached to the request. It prefers an
// identity set by one of the middlewares below and falls back to the raw
// jwt.Token that jwtware stores under "user".
func FromFiber(c *fiber.Ctx) *Identity {
	if id, ok := c.Locals(localsKey).(*Identity); ok && id != nil && id.ID != "" {
		return id
	}
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	return FromJWTClaims(claims)
}

// FromJWTClaims reads user_id, email, name and role claims. user_id may be
// a string or a number depending on who issued the token.
func FromJWTClaims(claims jwt.MapClaims) *Identity {
	raw, ok := claims["user_id"]
	if !ok {
		return nil
	}
	var id string
	switch v := raw.(type) {
	case string:
		id = strings.TrimSpace(v)
	case float64:
		id = strconv.FormatInt(int64(v), 10)
	case int:
		id = strconv.Itoa(v)
	case int64:
		id = strconv.FormatInt(v, 10)
	}
	if id == "" {
		return nil
	}
	out := &Identity{ID: id, Role: RoleUser}
	if s, ok := claims["email"].(string); ok {
		out.Email = s
	}
	if s, ok := claims["name"].(string); ok {
		out.DisplayName = s
	}
	if s, ok := claims["role"].(string); ok {
		out.Role = ParseRole(s)
	}
	return out
}

// JWTGuard rejects requests without a valid HS256 bearer token.
func JWTGuard(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	})
}

// Attach resolves the caller found by FromFiber against the profile store
// and stores the result for downstream handlers. Requests without a caller
// pass through untouched.
func Attach(resolver Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := FromFiber(c)
		if id == nil {
			return c.Next()
		}
		if resolver != nil {
			resolved, err := resolver.Resolve(c.UserContext(), *id)
			if err != nil {
				log.Printf("[identity] WARN: resolve %s: %v", id.ID, err)
			} else {
				id = &resolved
			}
		}
		c.Locals(localsKey, id)
		c.SetUserContext(WithIdentity(c.UserContext(), id))
		return c.Next()
	}
}

// RequireAdmin answers 403 unless the caller is an administrator.
func RequireAdmin(c *fiber.Ctx) error {
	id := FromFiber(c)
	if id == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
	}
	if !id.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "admin only"})
	}
	return c.Next()
}

// IssueToken signs an HS256 token carrying the caller's profile claims.
func IssueToken(secret string, id Identity, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("identity: empty signing secret")
	}
	claims := jwt.MapClaims{
		"user_id": id.ID,
		"email":   id.Email,
		"name":    id.DisplayName,
		"role":    string(id.Role),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
