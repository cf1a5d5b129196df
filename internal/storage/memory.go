package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Totarae/shortlinks/internal/model"
	"go.uber.org/zap"
)

// MemoryStore потокобезопасное хранилище в памяти.
// Если задан файл, каждая мутация дописывается в него строкой JSON,
// а при старте журнал проигрывается заново.
type MemoryStore struct {
	mutex  sync.RWMutex
	links  map[string]*model.ShortLink // по shortId
	byID   map[string]string           // id -> shortId
	users  map[string]*model.User
	file   *os.File
	logger *zap.Logger
}

// NewMemoryStore создаёт хранилище; path может быть пустым.
func NewMemoryStore(path string, logger *zap.Logger) (*MemoryStore, error) {
	s := &MemoryStore{
		links:  make(map[string]*model.ShortLink),
		byID:   make(map[string]string),
		users:  make(map[string]*model.User),
		logger: logger,
	}
	if path == "" {
		return s, nil
	}

	if err := s.loadFromFile(path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	s.file = f
	return s, nil
}

// loadFromFile проигрывает журнал при старте
func (s *MemoryStore) loadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Файл ещё не создан, это не ошибка
		}
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var applied int
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry model.Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			s.logger.Warn("skipping broken journal line", zap.Error(err))
			continue
		}
		s.apply(entry)
		applied++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	s.logger.Info("journal loaded",
		zap.String("path", path),
		zap.Int("entries", applied),
		zap.Int("links", len(s.links)),
		zap.Int("users", len(s.users)),
	)
	return nil
}

func (s *MemoryStore) apply(e model.Entry) {
	switch e.Op {
	case model.OpCreateLink:
		if e.Link != nil {
			s.links[e.Link.ShortID] = e.Link
			s.byID[e.Link.ID] = e.Link.ShortID
		}
	case model.OpVisit:
		if l, ok := s.links[e.ShortID]; ok {
			l.VisitHistory = append(l.VisitHistory, model.Visit{Timestamp: e.Timestamp})
			l.UpdatedAt = time.UnixMilli(e.Timestamp)
		}
	case model.OpDeleteLink:
		if code, ok := s.byID[e.ID]; ok {
			delete(s.links, code)
			delete(s.byID, e.ID)
		}
	case model.OpSaveUser:
		if e.User != nil {
			e.User.PasswordHash = e.Password
			s.users[e.User.ID] = e.User
		}
	case model.OpDeleteUser:
		delete(s.users, e.ID)
	}
}

// appendToFile добавляет запись в журнал, вызывается под блокировкой
func (s *MemoryStore) appendToFile(entry model.Entry) error {
	if s.file == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = s.file.Write(append(data, '\n'))
	return err
}

// FindByLongURL ищет ссылку на longURL, созданную ownerID.
func (s *MemoryStore) FindByLongURL(_ context.Context, longURL, ownerID string) (*model.ShortLink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var found *model.ShortLink
	for _, l := range s.links {
		if l.LongURL != longURL || l.CreatedBy != ownerID {
			continue
		}
		if found == nil || linkBefore(l, found) {
			found = l
		}
	}
	if found == nil {
		return nil, model.ErrNotFound
	}
	return found.Clone(), nil
}

// linkBefore порядок ссылок по времени создания, при равенстве по коду.
func linkBefore(a, b *model.ShortLink) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ShortID < b.ShortID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Create сохраняет новую ссылку.
func (s *MemoryStore) Create(_ context.Context, link *model.ShortLink) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.links[link.ShortID]; ok {
		return model.ErrCodeTaken
	}
	stored := link.Clone()
	if err := s.appendToFile(model.Entry{Op: model.OpCreateLink, Link: stored}); err != nil {
		return fmt.Errorf("journal write: %w", err)
	}
	s.links[stored.ShortID] = stored
	s.byID[stored.ID] = stored.ShortID
	return nil
}

// FindByCode возвращает ссылку по короткому идентификатору.
func (s *MemoryStore) FindByCode(_ context.Context, shortID string) (*model.ShortLink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	l, ok := s.links[shortID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return l.Clone(), nil
}

// FindByID возвращает ссылку по её id.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*model.ShortLink, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	code, ok := s.byID[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return s.links[code].Clone(), nil
}

// AppendVisit дописывает переход в конец истории и возвращает обновлённую ссылку.
func (s *MemoryStore) AppendVisit(_ context.Context, shortID string, at time.Time) (*model.ShortLink, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	l, ok := s.links[shortID]
	if !ok {
		return nil, model.ErrNotFound
	}
	visit := model.NewVisit(at)
	if err := s.appendToFile(model.Entry{Op: model.OpVisit, ShortID: shortID, Timestamp: visit.Timestamp}); err != nil {
		return nil, fmt.Errorf("journal write: %w", err)
	}
	l.VisitHistory = append(l.VisitHistory, visit)
	l.UpdatedAt = at
	return l.Clone(), nil
}

// ListByOwner возвращает ссылки пользователя в порядке создания.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID string) ([]*model.ShortLink, error) {
	return s.list(func(l *model.ShortLink) bool { return l.CreatedBy == ownerID }), nil
}

// ListAll возвращает все ссылки.
func (s *MemoryStore) ListAll(_ context.Context) ([]*model.ShortLink, error) {
	return s.list(func(*model.ShortLink) bool { return true }), nil
}

func (s *MemoryStore) list(keep func(*model.ShortLink) bool) []*model.ShortLink {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]*model.ShortLink, 0)
	for _, l := range s.links {
		if keep(l) {
			result = append(result, l.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return linkBefore(result[i], result[j])
	})
	return result
}

// DeleteByID удаляет ссылку, false если её не было.
func (s *MemoryStore) DeleteByID(_ context.Context, id string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	code, ok := s.byID[id]
	if !ok {
		return false, nil
	}
	if err := s.appendToFile(model.Entry{Op: model.OpDeleteLink, ID: id}); err != nil {
		return false, fmt.Errorf("journal write: %w", err)
	}
	delete(s.links, code)
	delete(s.byID, id)
	return true, nil
}

// Ping всегда успешен для хранилища в памяти.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// CreateUser сохраняет нового пользователя, email уникален.
func (s *MemoryStore) CreateUser(_ context.Context, user *model.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return model.ErrUserExists
		}
	}
	return s.saveUser(user)
}

func (s *MemoryStore) saveUser(user *model.User) error {
	stored := *user
	if err := s.appendToFile(model.Entry{Op: model.OpSaveUser, User: &stored, Password: stored.PasswordHash}); err != nil {
		return fmt.Errorf("journal write: %w", err)
	}
	s.users[stored.ID] = &stored
	return nil
}

// GetUserByID возвращает пользователя по id.
func (s *MemoryStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *u
	return &c, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, model.ErrNotFound
}

// UpdateUser перезаписывает существующего пользователя.
func (s *MemoryStore) UpdateUser(_ context.Context, user *model.User) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return model.ErrNotFound
	}
	return s.saveUser(user)
}

// ListUsers возвращает пользователей, новые первыми.
func (s *MemoryStore) ListUsers(_ context.Context) ([]*model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		c := *u
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return result, nil
}

// DeleteUser удаляет пользователя, false если его не было.
func (s *MemoryStore) DeleteUser(_ context.Context, id string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	if err := s.appendToFile(model.Entry{Op: model.OpDeleteUser, ID: id}); err != nil {
		return false, fmt.Errorf("journal write: %w", err)
	}
	delete(s.users, id)
	return true, nil
}

// Close закрывает файл журнала.
func (s *MemoryStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
