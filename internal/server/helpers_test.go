package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- humanizeParam (pure function, no HTTP) ---

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"requestId", "request ID"},
		{"friendRequestId", "friend request ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

// --- parseID ---

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/users/:userId", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "userId")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"valid", "/users/42", http.StatusOK},
		{"zero", "/users/0", http.StatusBadRequest},
		{"negative", "/users/-3", http.StatusBadRequest},
		{"not a number", "/users/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestParseIDErrorBody(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/friends/requests/abc", 1, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	e := decode[errorJSON](t, body)
	assert.Equal(t, "Invalid request ID", e.Error)
	assert.Equal(t, "VALIDATION_ERROR", e.Code)
}

func TestCurrentUserIDWithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": currentUserID(c)})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
