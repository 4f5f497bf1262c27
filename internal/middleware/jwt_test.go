package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func jwtApp(seen *fiber.Map) *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/", func(c *fiber.Ctx) error {
		*seen = fiber.Map{
			"id":      c.Locals("user_id"),
			"role":    c.Locals("user_role"),
			"faculty": c.Locals("user_faculty"),
			"email":   c.Locals("user_email"),
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestJWTProtectedReadsBearerClaims(t *testing.T) {
	var seen fiber.Map
	app := jwtApp(&seen)

	token := signToken(t, jwt.MapClaims{
		"sub":     "12",
		"role":    "DEAN",
		"faculty": "Faculty of Engineering",
		"email":   "Dean@Eng.pdn.ac.lk",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, uint(12), seen["id"])
	require.Equal(t, "dean", seen["role"])
	require.Equal(t, "Faculty of Engineering", seen["faculty"])
	require.Equal(t, "dean@eng.pdn.ac.lk", seen["email"])
}

func TestJWTProtectedFallsBackToCookie(t *testing.T) {
	var seen fiber.Map
	app := jwtApp(&seen)

	token := signToken(t, jwt.MapClaims{"sub": float64(3), "roles": []interface{}{"ROLE_VICE_CHANCELLOR"}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookie, Value: token})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, "vice_chancellor", seen["role"])
}

func TestJWTProtectedRejects(t *testing.T) {
	var seen fiber.Map
	app := jwtApp(&seen)

	expired := signToken(t, jwt.MapClaims{"sub": "1", "role": "dean", "exp": time.Now().Add(-time.Hour).Unix()})
	unknownRole := signToken(t, jwt.MapClaims{"sub": "1", "role": "student"})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", status: fiber.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: fiber.StatusUnauthorized},
		{name: "garbage", header: "Bearer abc", status: fiber.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, status: fiber.StatusUnauthorized},
		{name: "unknown role", header: "Bearer " + unknownRole, status: fiber.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, tc.status, resp.StatusCode, tc.name)
	}
}
