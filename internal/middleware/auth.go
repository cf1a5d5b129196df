package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Totarae/shortlinks/internal/auth"
	"github.com/Totarae/shortlinks/internal/model"
	"go.uber.org/zap"
)

// TokenParser проверяет токен и возвращает id пользователя.
type TokenParser interface {
	Parse(token string) (string, error)
}

// UserLookup загружает пользователя по id.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

// Authenticate проверяет токен, загружает пользователя и кладёт model.Caller в контекст.
// Роль берётся из хранилища, а не из токена, поэтому смена роли действует сразу.
func Authenticate(tokens TokenParser, users UserLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := auth.TokenFromRequest(r)
			if tok == "" {
				writeMessage(w, http.StatusUnauthorized, "No token is there!")
				return
			}

			userID, err := tokens.Parse(tok)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "Issues with Token")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if errors.Is(err, model.ErrNotFound) {
				writeMessage(w, http.StatusUnauthorized, "User not found")
				return
			}
			if err != nil {
				logger.Error("load caller", zap.String("user_id", userID), zap.Error(err))
				writeMessage(w, http.StatusInternalServerError, "Server error")
				return
			}

			ctx := auth.WithCaller(r.Context(), model.Caller{ID: user.ID, Role: user.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пропускает только роли, управляющие пользователями.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.CallerFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !caller.Role.ManagesUsers() {
			writeMessage(w, http.StatusForbidden, "Access denied. Admin only.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
