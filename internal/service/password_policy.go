package service

import (
	"fmt"
	"unicode"

	"github.com/ecommapi/internal/config"
)

// validatePassword 按配置的密码策略校验，返回 password 字段错误
func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength > 0 && len([]rune(password)) < policy.MinLength {
		return validationError("password", fmt.Sprintf("password must be at least %d characters", policy.MinLength))
	}

	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
	}

	if policy.RequireUpper && !hasUpper {
		return validationError("password", "password must contain an uppercase letter")
	}
	if policy.RequireLower && !hasLower {
		return validationError("password", "password must contain a lowercase letter")
	}
	if policy.RequireNumber && !hasNumber {
		return validationError("password", "password must contain a number")
	}
	return nil
}
