package models

import "time"

// UserLoginLog 用户登录日志，成功与失败都会记录
type UserLoginLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     uint      `gorm:"index" json:"user_id"` // 用户不存在时为 0
	Username   string    `gorm:"size:150;index;not null" json:"username"`
	Status     string    `gorm:"size:16;index;not null" json:"status"`
	FailReason string    `gorm:"size:32" json:"fail_reason,omitempty"`
	ClientIP   string    `gorm:"size:64;index" json:"client_ip"`
	UserAgent  string    `gorm:"type:text" json:"user_agent"`
	RequestID  string    `gorm:"size:64" json:"request_id"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (UserLoginLog) TableName() string {
	return "user_login_logs"
}
