package repositories

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Totarae/shortlinks/internal/database"
	"github.com/Totarae/shortlinks/internal/model"
	"github.com/Totarae/shortlinks/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Интеграционные тесты запускаются только при заданных TEST_DATABASE_DSN / TEST_MONGO_URI.

func newPG(t *testing.T) storage.Storage {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}
	logger := zap.NewNop()
	require.NoError(t, database.Migrate(dsn, "", logger))
	db, err := database.NewDB(context.Background(), dsn, logger)
	require.NoError(t, err)
	_, err = db.Pool.Exec(context.Background(), `TRUNCATE short_links, users`)
	require.NoError(t, err)
	repo := NewPGRepository(db.Pool, db.Close)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newMongo(t *testing.T) storage.Storage {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI is not set")
	}
	ctx := context.Background()
	conn, err := database.NewMongo(ctx, uri, "shortlinks_test_"+uuid.NewString()[:8], zap.NewNop())
	require.NoError(t, err)
	repo, err := NewMongoRepository(ctx, conn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.DB.Drop(context.Background())
		_ = repo.Close()
	})
	return repo
}

func backends() map[string]func(t *testing.T) storage.Storage {
	return map[string]func(t *testing.T) storage.Storage{
		"postgres": newPG,
		"mongo":    newMongo,
	}
}

func link(code, longURL, owner string) *model.ShortLink {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.ShortLink{
		ID:        uuid.NewString(),
		ShortID:   code,
		LongURL:   longURL,
		CreatedBy: owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepository_LinkLifecycle(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)

			l := link("abc1234", "example.com/x", "owner-1")
			require.NoError(t, repo.Create(ctx, l))
			assert.ErrorIs(t, repo.Create(ctx, link("abc1234", "other.com", "owner-1")), model.ErrCodeTaken)

			got, err := repo.FindByLongURL(ctx, "example.com/x", "owner-1")
			require.NoError(t, err)
			assert.Equal(t, l.ID, got.ID)
			assert.Empty(t, got.VisitHistory)

			_, err = repo.FindByLongURL(ctx, "example.com/x", "owner-2")
			assert.ErrorIs(t, err, model.ErrNotFound)

			got, err = repo.AppendVisit(ctx, "abc1234", time.UnixMilli(1000))
			require.NoError(t, err)
			assert.Equal(t, []model.Visit{{Timestamp: 1000}}, got.VisitHistory)

			_, err = repo.AppendVisit(ctx, "missing", time.Now())
			assert.ErrorIs(t, err, model.ErrNotFound)

			require.NoError(t, repo.Create(ctx, link("zzz9999", "b.com", "owner-2")))
			mine, err := repo.ListByOwner(ctx, "owner-1")
			require.NoError(t, err)
			require.Len(t, mine, 1)
			all, err := repo.ListAll(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 2)

			ok, err := repo.DeleteByID(ctx, l.ID)
			require.NoError(t, err)
			assert.True(t, ok)
			_, err = repo.FindByCode(ctx, "abc1234")
			assert.ErrorIs(t, err, model.ErrNotFound)
			ok, err = repo.DeleteByID(ctx, l.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRepository_ConcurrentVisits(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)
			require.NoError(t, repo.Create(ctx, link("abc1234", "a.com", "o")))

			const callers, each = 2, 25
			var wg sync.WaitGroup
			for c := 0; c < callers; c++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < each; i++ {
						_, err := repo.AppendVisit(ctx, "abc1234", time.Now())
						assert.NoError(t, err)
					}
				}()
			}
			wg.Wait()

			got, err := repo.FindByCode(ctx, "abc1234")
			require.NoError(t, err)
			assert.Equal(t, callers*each, got.TotalClicks())
		})
	}
}

func TestRepository_Users(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := open(t)

			now := time.Now().UTC().Truncate(time.Millisecond)
			u := &model.User{ID: uuid.NewString(), Email: "Ivan@Mail.ru", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
			require.NoError(t, repo.CreateUser(ctx, u))
			dup := &model.User{ID: uuid.NewString(), Email: "ivan@mail.ru", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}
			assert.ErrorIs(t, repo.CreateUser(ctx, dup), model.ErrUserExists)

			got, err := repo.GetUserByEmail(ctx, "ivan@mail.ru")
			require.NoError(t, err)
			assert.Equal(t, u.ID, got.ID)

			got.Role = model.RoleAuthority
			got.Profile.FirstName = "Иван"
			require.NoError(t, repo.UpdateUser(ctx, got))
			got, err = repo.GetUserByID(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, model.RoleAuthority, got.Role)
			assert.Equal(t, "Иван", got.Profile.FirstName)

			users, err := repo.ListUsers(ctx)
			require.NoError(t, err)
			assert.Len(t, users, 1)

			ok, err := repo.DeleteUser(ctx, u.ID)
			require.NoError(t, err)
			assert.True(t, ok)
			_, err = repo.GetUserByID(ctx, u.ID)
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("x"))
	assert.Equal(t, "x", *nullable("x"))
}
