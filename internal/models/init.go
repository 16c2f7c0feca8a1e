package models

import (
	"strings"

	"github.com/ecommapi/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultSuperuser 初始化默认超级用户
// 已存在任意超级用户时跳过；未提供密码时不创建
func InitDefaultSuperuser(username, email, password string) error {
	var count int64
	if err := DB.Model(&User{}).Where("is_superuser = ?", true).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if strings.TrimSpace(password) == "" {
		logger.Warnw("default_superuser_skipped", "reason", "password_missing")
		return nil
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := DB.Create(&user).Error; err != nil {
		return err
	}
	logger.Warnw("default_superuser_created", "username", username)
	return nil
}
