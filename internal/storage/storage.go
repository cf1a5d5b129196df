// Package storage содержит хранилище ссылок и пользователей в памяти процесса
// с необязательным журналом в файле.
package storage

import (
	"context"
	"time"

	"github.com/Totarae/shortlinks/internal/model"
)

// Storage определяет интерфейс хранилища ссылок и пользователей.
// Его реализуют MemoryStore, а также репозитории PostgreSQL и MongoDB.
type Storage interface {
	FindByLongURL(ctx context.Context, longURL, ownerID string) (*model.ShortLink, error)
	Create(ctx context.Context, link *model.ShortLink) error
	FindByCode(ctx context.Context, shortID string) (*model.ShortLink, error)
	FindByID(ctx context.Context, id string) (*model.ShortLink, error)
	AppendVisit(ctx context.Context, shortID string, at time.Time) (*model.ShortLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.ShortLink, error)
	ListAll(ctx context.Context) ([]*model.ShortLink, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)

	Close() error
}
