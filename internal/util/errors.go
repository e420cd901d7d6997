package util

import "errors"

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrEmailRegistered   = errors.New("该邮箱已被注册")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidRole       = errors.New("invalid role")
	ErrPathNotFound      = errors.New("learning path not found")
	ErrModuleNotFound    = errors.New("module not found")
	ErrLessonNotFound    = errors.New("lesson not found")
	ErrDraftNotFound     = errors.New("draft not found")
	ErrVersionConflict   = errors.New("draft was modified by another editor")
	ErrStagedMediaGone   = errors.New("staged media not found or expired")
	ErrStagedMediaOwner  = errors.New("staged media belongs to another draft")
	ErrMediaTooLarge     = errors.New("media file too large")
	ErrArticleNotFound   = errors.New("news article not found")
	ErrTooManyRequests   = errors.New("too many requests")
	ErrInvalidProgress   = errors.New("progress must be between 0 and 100")
	ErrUnsupportedMedia  = errors.New("unsupported media type")
)
