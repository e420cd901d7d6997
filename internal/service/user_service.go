package service

import (
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/util"
	"aiedu_backend/pkg/logger"
	"context"

	"go.uber.org/zap"
)

type ProfileUpdateRequest struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
	Bio         *string `json:"bio"`
}

// UserService 处理用户资料与角色
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

func (s *UserService) GetProfile(ctx context.Context, uid string) (*model.User, error) {
	return s.UserRepo.FindByID(ctx, uid)
}

func (s *UserService) UpdateProfile(ctx context.Context, uid string, req ProfileUpdateRequest) (*model.User, error) {
	fields := make(map[string]interface{})
	if req.DisplayName != nil {
		fields["display_name"] = *req.DisplayName
	}
	if req.PhotoURL != nil {
		fields["photo_url"] = *req.PhotoURL
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if len(fields) > 0 {
		if err := s.UserRepo.UpdateFields(ctx, uid, fields); err != nil {
			return nil, err
		}
	}
	return s.UserRepo.FindByID(ctx, uid)
}

// SetUserRole 修改用户角色，新角色在用户重新登录后写入 token
func (s *UserService) SetUserRole(ctx context.Context, uid string, role model.UserRole) (*model.User, error) {
	if !role.Valid() {
		return nil, util.ErrInvalidRole
	}
	if err := s.UserRepo.UpdateFields(ctx, uid, map[string]interface{}{"role": role}); err != nil {
		return nil, err
	}
	logger.Log.Info("User role changed", zap.String("uid", uid), zap.String("role", string(role)))
	return s.UserRepo.FindByID(ctx, uid)
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int, role string) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.UserRepo.List(ctx, page, limit, role)
}

func (s *UserService) SetDisabled(ctx context.Context, uid string, disabled bool) error {
	return s.UserRepo.UpdateFields(ctx, uid, map[string]interface{}{"disabled": disabled})
}

// IsDisabled 每个鉴权请求都会调用
func (s *UserService) IsDisabled(ctx context.Context, uid string) (bool, error) {
	user, err := s.UserRepo.FindByID(ctx, uid)
	if err != nil {
		return false, err
	}
	return user.Disabled, nil
}
