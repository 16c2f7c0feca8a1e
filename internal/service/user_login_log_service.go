package service

import (
	"errors"
	"strings"
	"time"

	"github.com/ecommapi/internal/constants"
	"github.com/ecommapi/internal/logger"
	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"
)

// UserLoginLogService 用户登录日志服务
type UserLoginLogService struct {
	repo     repository.UserLoginLogRepository
	userRepo repository.UserRepository
}

// NewUserLoginLogService 创建用户登录日志服务
func NewUserLoginLogService(repo repository.UserLoginLogRepository, userRepo repository.UserRepository) *UserLoginLogService {
	return &UserLoginLogService{repo: repo, userRepo: userRepo}
}

// LoginAttempt 一次登录尝试
type LoginAttempt struct {
	Username  string
	ClientIP  string
	UserAgent string
	RequestID string
}

// Record 根据登录结果写入日志；写入失败只记录告警，不影响登录
func (s *UserLoginLogService) Record(attempt LoginAttempt, result *LoginResult, loginErr error) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.UserLoginLog{
		Username:  strings.TrimSpace(attempt.Username),
		Status:    constants.LoginLogStatusSuccess,
		ClientIP:  strings.TrimSpace(attempt.ClientIP),
		UserAgent: strings.TrimSpace(attempt.UserAgent),
		RequestID: strings.TrimSpace(attempt.RequestID),
		CreatedAt: time.Now(),
	}
	if result != nil && result.User != nil {
		entry.UserID = result.User.ID
	}
	if loginErr != nil {
		entry.Status = constants.LoginLogStatusFailed
		entry.FailReason = loginFailReason(loginErr)
		if s.userRepo != nil && entry.Username != "" {
			if user, err := s.userRepo.GetByUsername(entry.Username); err == nil && user != nil {
				entry.UserID = user.ID
			}
		}
	}
	if err := s.repo.Create(entry); err != nil {
		logger.Warnw("user_login_log_record_failed", "username", entry.Username, "error", err)
	}
}

// ListMine 当前用户的登录记录
func (s *UserLoginLogService) ListMine(actor Actor, page, pageSize int) ([]models.UserLoginLog, int64, error) {
	return s.repo.ListByUser(actor.UserID, page, pageSize)
}

func loginFailReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return constants.LoginLogFailReasonBadCredentials
	case errors.Is(err, ErrUserDisabled):
		return constants.LoginLogFailReasonDisabled
	default:
		return constants.LoginLogFailReasonInternalError
	}
}
