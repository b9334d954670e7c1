package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"breadit/logger"
	"breadit/models"
	"breadit/repository"
	"breadit/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService 注册与登录，签发会话令牌
type AuthService struct {
	users  UserStore
	secret string
	ttl    time.Duration
	log    *zap.Logger
}

func NewAuthService(users UserStore, secret string, ttl time.Duration, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, secret: secret, ttl: ttl, log: log}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 6 {
		return "", fmt.Errorf("%w: username and a password of at least 6 characters are required", ErrValidation)
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %v", ErrInternal, err)
	}

	user := &models.User{ID: uuid.NewString(), Username: username, Password: hashed}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrConflict
		}
		logger.WithContext(ctx, s.log).Error("create user failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if !utils.CheckPassword(password, user.Password) {
		return "", ErrInvalidCredentials
	}
	return s.issue(user)
}

// Authenticate 解析令牌得到用户 ID
func (s *AuthService) Authenticate(token string) (string, error) {
	claims, err := utils.ParseJWT(s.secret, token)
	if err != nil {
		return "", ErrUnauthenticated
	}
	return claims.UserID, nil
}

func (s *AuthService) issue(user *models.User) (string, error) {
	token, err := utils.GenerateJWT(s.secret, user.ID, user.Username, s.ttl)
	if err != nil {
		return "", fmt.Errorf("%w: sign token: %v", ErrInternal, err)
	}
	return token, nil
}
