package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Totarae/shortlinks/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName кука, в которой фронтенд хранит токен.
	CookieName = "token"
	// DefaultTTL срок жизни токена по умолчанию.
	DefaultTTL = 7 * 24 * time.Hour
)

var (
	// ErrNoToken запрос без токена.
	ErrNoToken = errors.New("no token")
	// ErrInvalidToken токен не прошёл проверку.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims полезная нагрузка токена.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Auth выпускает и проверяет токены доступа.
type Auth struct {
	SecretKey []byte
	TTL       time.Duration
	Now       func() time.Time
	// Secure выставляет флаг Secure у куки, когда сервер работает по HTTPS.
	Secure bool
}

func New(secret string, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Auth{SecretKey: []byte(secret), TTL: ttl, Now: time.Now}
}

// Issue подписывает токен HS256 для пользователя userID.
func (a *Auth) Issue(userID string) (string, error) {
	now := a.Now()
	claims := Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.SecretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия, возвращает id пользователя.
func (a *Auth) Parse(token string) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.SecretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return "", fmt.Errorf("%w: empty id", ErrInvalidToken)
	}
	return claims.ID, nil
}

// TokenFromRequest достаёт токен из заголовка Authorization: Bearer или из куки.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer") {
		if _, tok, ok := strings.Cut(h, " "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie кладёт токен в httpOnly куку на срок жизни токена.
func (a *Auth) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.TTL / time.Second),
	})
}

// ClearCookie удаляет куку с токеном.
func (a *Auth) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Secure,
		MaxAge:   -1,
	})
}

type callerKey struct{}

// WithCaller кладёт идентичность вызывающего в контекст.
func WithCaller(ctx context.Context, c model.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext достаёт идентичность вызывающего.
func CallerFromContext(ctx context.Context) (model.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(model.Caller)
	return c, ok
}
