package middleware_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Totarae/shortlinks/internal/auth"
	"github.com/Totarae/shortlinks/internal/middleware"
	"github.com/Totarae/shortlinks/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type usersStub map[string]*model.User

func (u usersStub) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if id == "broken" {
		return nil, errors.New("db down")
	}
	user, ok := u[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return user, nil
}

func callerEcho(w http.ResponseWriter, r *http.Request) {
	c, ok := auth.CallerFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	_, _ = io.WriteString(w, c.ID+":"+c.Role.String())
}

func TestAuthenticate(t *testing.T) {
	a := auth.New("secret", time.Hour)
	users := usersStub{
		"u1":   {ID: "u1", Role: model.RoleUser},
		"root": {ID: "root", Role: model.RoleAdmin},
	}
	h := middleware.Authenticate(a, users, zap.NewNop())(http.HandlerFunc(callerEcho))

	token := func(id string) string {
		tok, err := a.Issue(id)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"no token", "", http.StatusUnauthorized, "No token is there!"},
		{"garbage", "Bearer garbage", http.StatusUnauthorized, "Issues with Token"},
		{"unknown user", "Bearer " + token("ghost"), http.StatusUnauthorized, "User not found"},
		{"storage failure", "Bearer " + token("broken"), http.StatusInternalServerError, "Server error"},
		{"user", "Bearer " + token("u1"), http.StatusOK, "u1:user"},
		{"admin", "Bearer " + token("root"), http.StatusOK, "root:admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/url", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	h := middleware.RequireAdmin(http.HandlerFunc(callerEcho))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for role, want := range map[model.Role]int{
		model.RoleUser:      http.StatusForbidden,
		model.RoleVolunteer: http.StatusForbidden,
		model.RoleAuthority: http.StatusForbidden,
		model.RoleAdmin:     http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithCaller(req.Context(), model.Caller{ID: "x", Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role.String())
	}
}

func TestCORS(t *testing.T) {
	h := middleware.CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/url", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/url", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGzipRequestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`{"longUrl":"https://yandex.ru"}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var got string
	h := middleware.GzipRequestMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	}))

	req := httptest.NewRequest(http.MethodPost, "/url", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, `{"longUrl":"https://yandex.ru"}`, got)

	req = httptest.NewRequest(http.MethodPost, "/url", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := middleware.LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
		_, _ = w.Write([]byte("abc"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/url/abc1234", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/url/abc1234", fields["uri"])
	assert.EqualValues(t, http.StatusFound, fields["status"])
	assert.EqualValues(t, 3, fields["size"])
}
