package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"socialgraph/internal/cache"
	"socialgraph/internal/config"
	"socialgraph/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// newTestEnv wires a Server over sqlite and miniredis.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{Env: "test", JWTSecret: testJWTSecret}
	srv, err := NewServerWithDeps(cfg, db, client)
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.App(), db: db, mr: mr}
}

func signToken(t *testing.T, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

// do sends a request as userID (0 sends no token) and returns status and body.
func (e *testEnv) do(t *testing.T, method, path string, userID uint, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+signToken(t, userID))
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

type requestJSON struct {
	ID       uint       `json:"id"`
	FromUser uint       `json:"from_user"`
	ToUser   uint       `json:"to_user"`
	Message  string     `json:"message"`
	Created  time.Time  `json:"created"`
	Rejected *time.Time `json:"rejected"`
	Viewed   *time.Time `json:"viewed"`
}

type errorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// sendRequest posts a friend request and fails the test unless it is created.
func (e *testEnv) sendRequest(t *testing.T, from, to uint, message string) requestJSON {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/friends/requests", from, fiber.Map{
		"to_user": to,
		"message": message,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	return decode[requestJSON](t, body)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
