package address

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/shopper-backend/internal/docstore"
)

func makeAppWithAddressHandler(a *Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			claims := jwt.MapClaims{"user_id": v}
			c.Locals("user", &jwt.Token{Claims: claims})
		}
		return c.Next()
	})
	a.RegisterProtectedRoutes(app)
	return app
}

type addressResponse struct {
	Address
	FullAddress string `json:"fullAddress"`
}

func call(t *testing.T, app *fiber.App, method, path, body, user string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

func TestFullAddress(t *testing.T) {
	a := Address{StreetAddress: "12 Le Loi", Ward: "Ben Nghe", District: "District 1", City: "HCMC"}
	assert.Equal(t, "12 Le Loi, Ben Nghe, District 1, HCMC", a.FullAddress())
	assert.Equal(t, "12 Le Loi, HCMC", Address{StreetAddress: "12 Le Loi", City: "HCMC"}.FullAddress())
}

func TestAddressRoute(t *testing.T) {
	svc := NewService(NewDocRepository(docstore.NewMemoryStore()))
	app := makeAppWithAddressHandler(NewHandler(svc))

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Path] = true
		}
	}
	require.True(t, routes["/api/v1/address"], "expected /api/v1/address registered")

	code, _ := call(t, app, "GET", "/api/v1/address", "", "")
	require.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = call(t, app, "POST", "/api/v1/address", `{"receiverName":"Home"}`, "42")
	require.Equal(t, fiber.StatusBadRequest, code)

	code, body := call(t, app, "POST", "/api/v1/address",
		`{"receiverName":"Home","phoneNumber":"555-1234","streetAddress":"123 Main","city":"HCMC"}`, "42")
	require.Equal(t, fiber.StatusCreated, code, string(body))
	var home addressResponse
	require.NoError(t, json.Unmarshal(body, &home))
	assert.True(t, home.IsDefault, "first address becomes the default")
	assert.Equal(t, "123 Main, HCMC", home.FullAddress)

	code, body = call(t, app, "POST", "/api/v1/address",
		`{"receiverName":"Work","phoneNumber":"555-9","streetAddress":"9 Office Rd","isDefault":true}`, "42")
	require.Equal(t, fiber.StatusCreated, code)
	var work addressResponse
	require.NoError(t, json.Unmarshal(body, &work))
	assert.True(t, work.IsDefault)

	code, body = call(t, app, "GET", "/api/v1/address", "", "42")
	require.Equal(t, fiber.StatusOK, code)
	var list []addressResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, work.ID, list[0].ID, "default listed first")
	assert.False(t, list[1].IsDefault, "only one default")

	code, _ = call(t, app, "PATCH", "/api/v1/address/"+home.ID,
		`{"receiverName":"Home","phoneNumber":"555-0000","streetAddress":"1 New St","isDefault":true}`, "42")
	require.Equal(t, fiber.StatusOK, code)
	def, err := svc.GetDefault(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, work.ID, def.ID, "update must not move the default")

	code, _ = call(t, app, "POST", "/api/v1/address/"+home.ID+"/default", "", "42")
	require.Equal(t, fiber.StatusOK, code)
	code, body = call(t, app, "GET", "/api/v1/address/default", "", "42")
	require.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(body), "1 New St")

	code, _ = call(t, app, "DELETE", "/api/v1/address/"+home.ID, "", "42")
	require.Equal(t, fiber.StatusNoContent, code)
	def, err = svc.GetDefault(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, work.ID, def.ID, "deleting the default promotes the remaining address")

	code, _ = call(t, app, "DELETE", "/api/v1/address/"+home.ID, "", "42")
	assert.Equal(t, fiber.StatusNotFound, code)

	// other users see nothing
	code, body = call(t, app, "GET", "/api/v1/address", "", "7")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "[]", string(body))
	code, _ = call(t, app, "GET", "/api/v1/address/default", "", "7")
	assert.Equal(t, fiber.StatusNotFound, code)
}
