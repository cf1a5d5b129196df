package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Totarae/shortlinks/internal/auth"
	"github.com/Totarae/shortlinks/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	a := auth.New("test-secret", time.Hour)
	token, err := a.Issue("user123")
	require.NoError(t, err)

	id, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user123", id)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := auth.New("one", time.Hour).Issue("user123")
	require.NoError(t, err)

	_, err = auth.New("two", time.Hour).Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParse_Expired(t *testing.T) {
	a := auth.New("test-secret", time.Minute)
	a.Now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := a.Issue("user123")
	require.NoError(t, err)

	a.Now = time.Now
	_, err = a.Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	claims := auth.Claims{ID: "user123", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.New("test-secret", time.Hour).Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParse_Empty(t *testing.T) {
	_, err := auth.New("s", 0).Parse("")
	assert.ErrorIs(t, err, auth.ErrNoToken)
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, auth.TokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", auth.TokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", auth.TokenFromRequest(req))
}

func TestSetAndClearCookie(t *testing.T) {
	a := auth.New("s", 24*time.Hour)

	rec := httptest.NewRecorder()
	a.SetCookie(rec, "tok")
	resp := rec.Result()
	defer resp.Body.Close()
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 86400, cookies[0].MaxAge)
	assert.False(t, cookies[0].Secure)

	a.Secure = true
	rec = httptest.NewRecorder()
	a.SetCookie(rec, "tok")
	secure := rec.Result()
	defer secure.Body.Close()
	require.Len(t, secure.Cookies(), 1)
	assert.True(t, secure.Cookies()[0].Secure)

	rec = httptest.NewRecorder()
	a.ClearCookie(rec)
	resp2 := rec.Result()
	defer resp2.Body.Close()
	require.Len(t, resp2.Cookies(), 1)
	assert.Equal(t, -1, resp2.Cookies()[0].MaxAge)
}

func TestCallerContext(t *testing.T) {
	_, ok := auth.CallerFromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithCaller(context.Background(), model.Caller{ID: "u1", Role: model.RoleAdmin})
	c, ok := auth.CallerFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", c.ID)
	assert.Equal(t, model.RoleAdmin, c.Role)
}
