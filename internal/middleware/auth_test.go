package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/AbdRaqeeb/fastfood-api/internal/config"
	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/utils"
)

func newTestApp(cfg *config.Config, roles ...models.Role) *fiber.App {
	app := fiber.New()
	app.Get("/", AuthMiddleware(cfg), Authorize(roles...), func(c *fiber.Ctx) error {
		p, _ := GetPrincipal(c)
		return c.SendString(p.Email)
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret"}
	app := newTestApp(cfg, models.RoleAdmin, models.RoleCook)

	cookToken, err := utils.GenerateToken(cfg.JWTSecret, utils.Principal{ID: 1, Email: "cook@example.com", Role: models.RoleCook}, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	userToken, _ := utils.GenerateToken(cfg.JWTSecret, utils.Principal{ID: 2, Email: "user@example.com", Role: models.RoleUser}, time.Hour)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer nope", fiber.StatusUnauthorized},
		{"role not allowed", "Bearer " + userToken, fiber.StatusForbidden},
		{"allowed", "Bearer " + cookToken, fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}
