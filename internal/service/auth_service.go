package service

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/util"
	"aiedu_backend/pkg/logger"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
)

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"displayName"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// GoogleTokenVerifier 校验 Google ID token，测试中可替换
type GoogleTokenVerifier func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type AuthService struct {
	UserRepo    *repository.UserRepository
	Cfg         *config.Config
	VerifyToken GoogleTokenVerifier

	mu sync.RWMutex
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:    userRepo,
		Cfg:         cfg,
		VerifyToken: idtoken.Validate,
	}
}

func (s *AuthService) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Cfg
}

// UpdateConfig 配置热更新后替换管理员白名单和 JWT 设置
func (s *AuthService) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	s.Cfg = cfg
	s.mu.Unlock()
}

// roleForEmail 管理员白名单中的邮箱注册即为管理员
func (s *AuthService) roleForEmail(email string) model.UserRole {
	if s.config().IsAdminEmail(email) {
		return model.Admin
	}
	return model.Student
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	cfg := s.config()
	token, err := util.GenerateJWT(user, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	_, err := s.UserRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, util.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = strings.Split(email, "@")[0]
	}
	user := &model.User{
		Email:       email,
		Password:    string(hashedPassword),
		Provider:    model.ProviderPassword,
		DisplayName: displayName,
		Role:        s.roleForEmail(email),
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.Log.Info("User registered", zap.String("uid", user.ID), zap.String("role", string(user.Role)))
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			return nil, util.ErrInvalidCredential
		}
		return nil, err
	}
	if user.Disabled || user.Password == "" {
		return nil, util.ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredential
	}

	s.afterLogin(ctx, user)
	return s.issue(user)
}

// GoogleLogin 校验 ID token，首次登录时创建用户
func (s *AuthService) GoogleLogin(ctx context.Context, rawToken string) (*AuthResult, error) {
	payload, err := s.VerifyToken(ctx, rawToken, s.config().Auth.GoogleClientID)
	if err != nil {
		logger.Log.Debug("Google token rejected", zap.Error(err))
		return nil, util.ErrInvalidCredential
	}

	email, _ := payload.Claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, util.ErrInvalidCredential
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, util.ErrInvalidCredential
	}

	user, err := s.UserRepo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, util.ErrUserNotFound):
		name, _ := payload.Claims["name"].(string)
		picture, _ := payload.Claims["picture"].(string)
		user = &model.User{
			Email:       email,
			Provider:    model.ProviderGoogle,
			DisplayName: name,
			PhotoURL:    picture,
			Role:        s.roleForEmail(email),
		}
		if err := s.UserRepo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		logger.Log.Info("User registered via google", zap.String("uid", user.ID))
	case err != nil:
		return nil, err
	case user.Disabled:
		return nil, util.ErrInvalidCredential
	}

	s.afterLogin(ctx, user)
	return s.issue(user)
}

func (s *AuthService) afterLogin(ctx context.Context, user *model.User) {
	if err := s.UserRepo.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Log.Warn("Failed to update last login", zap.String("uid", user.ID), zap.Error(err))
	}
	// 白名单新增的管理员在下次登录时提升权限
	if !user.IsAdmin() && s.config().IsAdminEmail(user.Email) {
		if err := s.UserRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"role": model.Admin}); err == nil {
			user.Role = model.Admin
		}
	}
}
