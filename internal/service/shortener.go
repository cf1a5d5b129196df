package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Totarae/shortlinks/internal/model"
	"github.com/Totarae/shortlinks/internal/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -destination mocks/mock_repository.go -package mocks . LinkRepository,UserRepository,TokenIssuer

// maxCodeAttempts сколько раз генерировать новый идентификатор при коллизии.
const maxCodeAttempts = 5

// LinkRepository хранилище коротких ссылок.
// Отсутствие записи сообщается ошибкой model.ErrNotFound.
type LinkRepository interface {
	FindByLongURL(ctx context.Context, longURL, ownerID string) (*model.ShortLink, error)
	Create(ctx context.Context, link *model.ShortLink) error
	FindByCode(ctx context.Context, shortID string) (*model.ShortLink, error)
	FindByID(ctx context.Context, id string) (*model.ShortLink, error)
	AppendVisit(ctx context.Context, shortID string, at time.Time) (*model.ShortLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.ShortLink, error)
	ListAll(ctx context.Context) ([]*model.ShortLink, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}

type ShortenerService struct {
	Repo         LinkRepository
	Logger       *zap.Logger
	GenerateCode func() string
	NewID        func() string
	Now          func() time.Time
}

func NewShortenerService(repo LinkRepository, logger *zap.Logger) *ShortenerService {
	return &ShortenerService{
		Repo:         repo,
		Logger:       logger,
		GenerateCode: util.GenerateShortID,
		NewID:        uuid.NewString,
		Now:          time.Now,
	}
}

// Shorten возвращает ссылку на longURL для владельца ownerID, создавая её при отсутствии.
// created сообщает, была ли ссылка создана этим вызовом.
//
// Проверка и создание не атомарны: два одновременных запроса на один и тот же
// URL могут создать две ссылки с разными идентификаторами.
func (s *ShortenerService) Shorten(ctx context.Context, longURL, ownerID string) (link *model.ShortLink, created bool, err error) {
	if strings.TrimSpace(longURL) == "" {
		return nil, false, fmt.Errorf("%w: provide url", model.ErrValidation)
	}

	existing, err := s.Repo.FindByLongURL(ctx, longURL, ownerID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, model.ErrNotFound):
		return nil, false, err
	}

	link, err = s.createLink(ctx, longURL, ownerID)
	if err != nil {
		return nil, false, err
	}
	return link, true, nil
}

// createLink выделяет новый идентификатор и сохраняет ссылку с пустой историей.
// При коллизии идентификатора генерирует новый, не более maxCodeAttempts раз.
func (s *ShortenerService) createLink(ctx context.Context, longURL, ownerID string) (*model.ShortLink, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		now := s.Now()
		link := &model.ShortLink{
			ID:           s.NewID(),
			ShortID:      s.GenerateCode(),
			LongURL:      longURL,
			CreatedBy:    ownerID,
			VisitHistory: []model.Visit{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		err := s.Repo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, model.ErrCodeTaken) {
			return nil, err
		}
		s.Logger.Warn("short id collision",
			zap.String("short_id", link.ShortID),
			zap.Int("attempt", attempt),
		)
	}
	return nil, fmt.Errorf("no free short id after %d attempts: %w", maxCodeAttempts, model.ErrCodeTaken)
}

// Resolve фиксирует переход по коду и возвращает адрес для редиректа.
// Неизвестный код даёт model.ErrNotFound без изменений в хранилище.
func (s *ShortenerService) Resolve(ctx context.Context, shortID string, now time.Time) (string, error) {
	link, err := s.Repo.AppendVisit(ctx, shortID, now)
	if err != nil {
		return "", err
	}
	return util.NormalizeDestination(link.LongURL), nil
}

// ListLinks ссылки вызывающего, либо все ссылки, если роль это позволяет.
func (s *ShortenerService) ListLinks(ctx context.Context, caller model.Caller) ([]*model.ShortLink, error) {
	if caller.Role.SeesAllLinks() {
		return s.Repo.ListAll(ctx)
	}
	return s.Repo.ListByOwner(ctx, caller.ID)
}

// DeleteLink удаляет ссылку по id. Чужую ссылку может удалить только роль,
// управляющая ссылками.
func (s *ShortenerService) DeleteLink(ctx context.Context, caller model.Caller, id string) error {
	link, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !link.OwnedBy(caller.ID) && !caller.Role.ManagesLinks() {
		return model.ErrForbidden
	}

	deleted, err := s.Repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("link %s: %w", id, model.ErrNotFound)
	}
	s.Logger.Info("link deleted",
		zap.String("id", id),
		zap.String("short_id", link.ShortID),
		zap.String("by", caller.ID),
	)
	return nil
}

// Analytics статистика переходов по коду. Переход при этом не фиксируется.
func (s *ShortenerService) Analytics(ctx context.Context, caller model.Caller, shortID string) (*model.AnalyticsResponse, error) {
	link, err := s.Repo.FindByCode(ctx, shortID)
	if err != nil {
		return nil, err
	}
	if !link.OwnedBy(caller.ID) && !caller.Role.ManagesLinks() {
		return nil, model.ErrForbidden
	}
	return &model.AnalyticsResponse{ReqURL: link, TotalClicks: link.TotalClicks()}, nil
}

func (s *ShortenerService) Ping(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}
