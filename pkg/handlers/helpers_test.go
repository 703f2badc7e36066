package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"org-task-backend/pkg/config"
	"org-task-backend/pkg/database"
	"org-task-backend/pkg/server"
)

// testEnv wires a router against a fresh local database
type testEnv struct {
	t      *testing.T
	cfg    *config.Config
	db     database.DatabaseInterface
	router *chi.Mux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Environment:      "test",
		Port:             "0",
		UseLocalDB:       true,
		JWTSecret:        "test-secret",
		TokenExpiryHours: 24,
		AllowedOrigins:   []string{"*"},
	}

	db := database.NewLocalDatabase(t.TempDir())
	router := server.New(cfg, db)

	return &testEnv{t: t, cfg: cfg, db: db, router: router}
}

// request performs an HTTP request against the router
func (e *testEnv) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON body into v
func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// signup registers a user and asserts success
func (e *testEnv) signup(email, password string) {
	e.t.Helper()
	rec := e.request(http.MethodPost, "/signup", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
}

// signin logs a user in and returns the bearer token
func (e *testEnv) signin(email, password string) string {
	e.t.Helper()
	rec := e.request(http.MethodPost, "/signin", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decode(e.t, rec, &resp)
	require.NotEmpty(e.t, resp.AccessToken)
	return resp.AccessToken
}

// register is signup followed by signin
func (e *testEnv) register(email, password string) string {
	e.t.Helper()
	e.signup(email, password)
	return e.signin(email, password)
}
