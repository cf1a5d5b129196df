package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Totarae/shortlinks/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLink(id, code, longURL, owner string, created time.Time) *model.ShortLink {
	return &model.ShortLink{
		ID:           id,
		ShortID:      code,
		LongURL:      longURL,
		CreatedBy:    owner,
		VisitHistory: []model.Visit{},
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore("", zap.NewNop())
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, s.Create(ctx, newLink("1", "abc1234", "https://yandex.ru", "u1", now)))

	got, err := s.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "https://yandex.ru", got.LongURL)
	assert.Empty(t, got.VisitHistory)

	got, err = s.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "abc1234", got.ShortID)

	got, err = s.FindByLongURL(ctx, "https://yandex.ru", "u1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	_, err = s.FindByLongURL(ctx, "https://yandex.ru", "u2")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.FindByCode(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryStore_CreateDuplicateCode(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore("", zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Create(ctx, newLink("1", "abc1234", "https://a.ru", "u1", time.Now())))
	err = s.Create(ctx, newLink("2", "abc1234", "https://b.ru", "u1", time.Now()))
	assert.ErrorIs(t, err, model.ErrCodeTaken)
}

func TestMemoryStore_AppendVisitOrder(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore("", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, newLink("1", "abc1234", "https://a.ru", "u1", time.Now())))

	base := time.UnixMilli(1_700_000_000_000)
	for i := 0; i < 5; i++ {
		_, err := s.AppendVisit(ctx, "abc1234", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	got, err := s.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	require.Len(t, got.VisitHistory, 5)
	for i, v := range got.VisitHistory {
		assert.Equal(t, base.Add(time.Duration(i)*time.Second).UnixMilli(), v.Timestamp)
	}
}

func TestMemoryStore_AppendVisitUnknown(t *testing.T) {
	s, err := NewMemoryStore("", zap.NewNop())
	require.NoError(t, err)

	got, err := s.AppendVisit(context.Background(), "nope", time.Now())
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Nil(t, got)

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemoryStore_AppendVisitConcurrent(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore("", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, newLink("1", "abc1234", "https://a.ru", "u1", time.Now())))

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := s.AppendVisit(ctx, "abc1234", time.Now())
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	got, err := s.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, workers*perWorker, got.TotalClicks())
}

func TestMemoryStore_ReturnedLinkIsCopy(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore("", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, newLink("1", "abc1234", "https://a.ru", "u1", time.Now())))

	got, err := s.AppendVisit(ctx, "abc1234", time.Now())
	require.NoError(t, err)
	got.VisitHistory = got.VisitHistory[:0]

	again, err := s.FindByCode(ctx, "abc1234")
	require.NoError(t, err)
	assert.Len(t, again.VisitHistory, 1)
}

func TestMemoryStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore("", zap.NewNop())
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, s.Create(ctx, newLink("1", "aaaaaaa", "https://a.ru", "u1", now)))
	require.NoError(t, s.Create(ctx, newLink("2", "bbbbbbb", "https://b.ru", "u2", now.Add(time.Second))))
	require.NoError(t, s.Create(ctx, newLink("3", "ccccccc", "https://c.ru", "u1", now.Add(2*time.Second))))

	mine, err := s.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, l := range mine {
		assert.Equal(t, "u1", l.CreatedBy)
	}
	assert.Equal(t, "1", mine[0].ID)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ok, err := s.DeleteByID(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DeleteByID(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.FindByCode(ctx, "aaaaaaa")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore("", zap.NewNop())
	require.NoError(t, err)

	now := time.Now()
	u1 := &model.User{ID: "u1", Email: "a@b.ru", CreatedAt: now}
	u2 := &model.User{ID: "u2", Email: "c@d.ru", CreatedAt: now.Add(time.Minute)}
	require.NoError(t, s.CreateUser(ctx, u1))
	require.NoError(t, s.CreateUser(ctx, u2))
	assert.ErrorIs(t, s.CreateUser(ctx, &model.User{ID: "u3", Email: "A@B.ru"}), model.ErrUserExists)

	got, err := s.GetUserByEmail(ctx, "a@b.ru")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got.Role = model.RoleAdmin
	require.NoError(t, s.UpdateUser(ctx, got))
	got, err = s.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u2", users[0].ID)

	ok, err := s.DeleteUser(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = s.GetUserByID(ctx, "u2")
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.ErrorIs(t, s.UpdateUser(ctx, &model.User{ID: "ghost"}), model.ErrNotFound)
}

func TestMemoryStore_SameCreatedAtOrder(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore("", zap.NewNop())
	require.NoError(t, err)

	now := time.Now()
	for _, code := range []string{"ccc", "aaa", "bbb"} {
		require.NoError(t, s.Create(ctx, newLink("id-"+code, code, "https://ya.ru", "u1", now)))
	}
	for _, id := range []string{"u3", "u1", "u2"} {
		require.NoError(t, s.CreateUser(ctx, &model.User{ID: id, Email: id + "@x.ru", CreatedAt: now}))
	}

	for i := 0; i < 10; i++ {
		found, err := s.FindByLongURL(ctx, "https://ya.ru", "u1")
		require.NoError(t, err)
		assert.Equal(t, "aaa", found.ShortID)

		all, err := s.ListAll(ctx)
		require.NoError(t, err)
		codes := make([]string, 0, len(all))
		for _, l := range all {
			codes = append(codes, l.ShortID)
		}
		assert.Equal(t, []string{"aaa", "bbb", "ccc"}, codes)

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		assert.Equal(t, []string{"u1", "u2", "u3"}, ids)
	}
}

// Тест восстановления данных из журнала
func TestMemoryStore_JournalReplay(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.json")

	s, err := NewMemoryStore(path, zap.NewNop())
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, s.Create(ctx, newLink("1", "aaaaaaa", "https://a.ru", "u1", now)))
	require.NoError(t, s.Create(ctx, newLink("2", "bbbbbbb", "https://b.ru", "u1", now)))
	_, err = s.AppendVisit(ctx, "aaaaaaa", now)
	require.NoError(t, err)
	_, err = s.AppendVisit(ctx, "aaaaaaa", now.Add(time.Second))
	require.NoError(t, err)
	_, err = s.DeleteByID(ctx, "2")
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(ctx, &model.User{ID: "u1", Email: "a@b.ru", Role: model.RoleAdmin, PasswordHash: "hash"}))
	require.NoError(t, s.Close())

	restored, err := NewMemoryStore(path, zap.NewNop())
	require.NoError(t, err)
	defer restored.Close()

	got, err := restored.FindByCode(ctx, "aaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalClicks())

	_, err = restored.FindByCode(ctx, "bbbbbbb")
	assert.ErrorIs(t, err, model.ErrNotFound)

	user, err := restored.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Equal(t, "hash", user.PasswordHash)
}
