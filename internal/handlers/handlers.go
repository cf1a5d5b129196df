package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/Totarae/shortlinks/internal/auth"
	"github.com/Totarae/shortlinks/internal/model"
	"github.com/Totarae/shortlinks/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler HTTP-обработчики сервиса коротких ссылок.
type Handler struct {
	Links    *service.ShortenerService
	Users    *service.UserService
	Auth     *auth.Auth
	Logger   *zap.Logger
	Now      func() time.Time
	validate *validator.Validate
}

// NewHandler создаёт обработчики поверх сервисов.
func NewHandler(links *service.ShortenerService, users *service.UserService, a *auth.Auth, logger *zap.Logger) *Handler {
	return &Handler{
		Links:    links,
		Users:    users,
		Auth:     a,
		Logger:   logger,
		Now:      time.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail переводит ошибку сервиса в HTTP-ответ. Детали внутренних ошибок
// клиенту не отдаются.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, "Access denied")
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// validationMessage текст после префикса model.ErrValidation.
func validationMessage(err error) string {
	msg := err.Error()
	prefix := model.ErrValidation.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

// decode читает JSON-тело и проверяет его тегами validate.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (model.Caller, bool) {
	c, ok := auth.CallerFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Authentication required"})
	}
	return c, ok
}

// shortIDParam достаёт код из пути. chi сопоставляет маршрут по RawPath,
// поэтому закодированные $ и @ (%24, %40) нужно раскодировать.
func shortIDParam(r *http.Request) (string, bool) {
	code, err := url.PathUnescape(chi.URLParam(r, "shortId"))
	if err != nil || code == "" {
		return "", false
	}
	return code, true
}

// Root приветствие для проверки, что сервер жив.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "hello from simple server :)"})
}

// Ping проверяет доступность хранилища.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.Links.Ping(r.Context()); err != nil {
		h.Logger.Error("storage ping failed", zap.Error(err))
		http.Error(w, "storage unavailable", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ReceiveShorten POST /url: возвращает существующую ссылку вызывающего на этот URL
// или создаёт новую (201).
func (h *Handler) ReceiveShorten(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req model.ShortenRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "provide url")
		return
	}

	link, created, err := h.Links.Shorten(r.Context(), req.LongURL, caller.ID)
	if err != nil {
		h.fail(w, r, err, "Not found")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, link)
}

// GetUserURLs GET /url: ссылки вызывающего, для администратора все.
func (h *Handler) GetUserURLs(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	links, err := h.Links.ListLinks(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// Analytics GET /url/analytics/{shortId}.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	shortID, ok := shortIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Invalid short URL")
		return
	}

	stats, err := h.Links.Analytics(r.Context(), caller, shortID)
	if err != nil {
		h.fail(w, r, err, "Invalid short URL")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// DeleteURL DELETE /url/{id}.
func (h *Handler) DeleteURL(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.Links.DeleteLink(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "URL not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "URL deleted successfully"})
}

// ResponseURL GET /url/{shortId}: фиксирует переход и перенаправляет на оригинальный URL.
func (h *Handler) ResponseURL(w http.ResponseWriter, r *http.Request) {
	shortID, ok := shortIDParam(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Invalid short URL")
		return
	}

	dest, err := h.Links.Resolve(r.Context(), shortID, h.Now())
	if err != nil {
		h.fail(w, r, err, "Invalid short URL")
		return
	}

	http.Redirect(w, r, dest, http.StatusFound)
}
