package identity

import (
	"context"
	"fmt"
	"log"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/api/option"
)

// TokenVerifier is the part of the Firebase Auth client the middleware uses.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// NewFirebaseAuth builds a Firebase Auth client. An empty credentialsFile
// uses Application Default Credentials.
func NewFirebaseAuth(ctx context.Context, projectID, credentialsFile string) (*fbauth.Client, error) {
	cfg := &firebase.Config{ProjectID: projectID}
	var (
		app *firebase.App
		err error
	)
	if strings.TrimSpace(credentialsFile) != "" {
		app, err = firebase.NewApp(ctx, cfg, option.WithCredentialsFile(credentialsFile))
	} else {
		app, err = firebase.NewApp(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("identity: firebase app init: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity: firebase auth init: %w", err)
	}
	log.Printf("[identity] Firebase Auth initialized project=%s", projectID)
	return client, nil
}

// FirebaseGuard verifies the bearer ID token, resolves the profile and
// attaches the caller. Missing or invalid tokens get a 401.
func FirebaseGuard(verifier TokenVerifier, resolver Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if verifier == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "auth not initialized"})
		}
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized: missing bearer token"})
		}
		idToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if idToken == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized: empty bearer token"})
		}

		token, err := verifier.VerifyIDToken(c.UserContext(), idToken)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid token"})
		}
		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid uid in token"})
		}

		id := Identity{ID: uid, Role: RoleUser}
		if s, ok := token.Claims["email"].(string); ok {
			id.Email = strings.TrimSpace(s)
		}
		if s, ok := token.Claims["name"].(string); ok {
			id.DisplayName = strings.TrimSpace(s)
		}
		if resolver != nil {
			resolved, err := resolver.Resolve(c.UserContext(), id)
			if err != nil {
				log.Printf("[identity] WARN: resolve %s: %v", uid, err)
			} else {
				id = resolved
			}
		}

		c.Locals(localsKey, &id)
		c.SetUserContext(WithIdentity(c.UserContext(), &id))
		return c.Next()
	}
}
