package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Totarae/shortlinks/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository хранилище учётных записей.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	ListUsers(ctx context.Context) ([]*model.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}

// TokenIssuer выпускает токен доступа для пользователя.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type UserService struct {
	Repo   UserRepository
	Tokens TokenIssuer
	Logger *zap.Logger
	// AdminEmail пользователь с этим email при регистрации получает роль admin.
	AdminEmail string
	// BcryptCost стоимость хеширования пароля.
	BcryptCost int
	NewID      func() string
	Now        func() time.Time
}

func NewUserService(repo UserRepository, tokens TokenIssuer, logger *zap.Logger, adminEmail string) *UserService {
	return &UserService{
		Repo:       repo,
		Tokens:     tokens,
		Logger:     logger,
		AdminEmail: adminEmail,
		BcryptCost: bcrypt.DefaultCost,
		NewID:      uuid.NewString,
		Now:        time.Now,
	}
}

// Register создаёт пользователя с ролью user и выпускает токен.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, string, error) {
	if _, err := s.Repo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, "", model.ErrUserExists
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.BcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	first, last := model.SplitName(req.Name)
	now := s.Now()
	user := &model.User{
		ID:           s.NewID(),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		Profile:      model.Profile{FirstName: first, LastName: last},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if s.AdminEmail != "" && strings.EqualFold(req.Email, s.AdminEmail) {
		user.Role = model.RoleAdmin
	}

	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}
	s.Logger.Info("new user created", zap.String("id", user.ID), zap.Stringer("role", user.Role))

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Login проверяет пароль и выпускает токен.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, "", model.ErrBadCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", model.ErrBadCredentials
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// Get возвращает пользователя по id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.Repo.GetUserByID(ctx, id)
}

// UpdateProfile меняет только непустые поля профиля и телефон.
func (s *UserService) UpdateProfile(ctx context.Context, id string, upd model.ProfileUpdate) (*model.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p := upd.Profile; p != nil {
		setIfNotEmpty(&user.Profile.FirstName, p.FirstName)
		setIfNotEmpty(&user.Profile.LastName, p.LastName)
		setIfNotEmpty(&user.Profile.Address, p.Address)
		setIfNotEmpty(&user.Profile.State, p.State)
		setIfNotEmpty(&user.Profile.ZipCode, p.ZipCode)
	}
	setIfNotEmpty(&user.Phone, upd.Phone)
	user.UpdatedAt = s.Now()

	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ListUsers все пользователи, новые первыми.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.Repo.ListUsers(ctx)
}

// UpdateRole назначает пользователю роль.
func (s *UserService) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	user.UpdatedAt = s.Now()
	if err := s.Repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.Logger.Info("user role updated", zap.String("id", id), zap.Stringer("role", role))
	return user, nil
}

// DeleteUser удаляет пользователя; удалить самого себя нельзя.
func (s *UserService) DeleteUser(ctx context.Context, caller model.Caller, id string) error {
	if id == caller.ID {
		return fmt.Errorf("%w: cannot delete your own account", model.ErrValidation)
	}
	deleted, err := s.Repo.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	return nil
}
