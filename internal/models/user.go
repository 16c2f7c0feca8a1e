package models

import (
	"time"
)

// User 用户表
type User struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	Username     string       `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email        string       `gorm:"index;size:254" json:"email"`
	FirstName    string       `gorm:"size:150" json:"first_name"`
	LastName     string       `gorm:"size:150" json:"last_name"`
	PasswordHash string       `gorm:"not null" json:"-"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	IsStaff      bool         `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser  bool         `gorm:"not null;default:false" json:"is_superuser"`
	TokenVersion uint64       `gorm:"not null;default:0" json:"-"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Profile      *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsPrivileged 是否具备员工或超级用户权限
func (u *User) IsPrivileged() bool {
	return u != nil && (u.IsStaff || u.IsSuperuser)
}

// UserProfile 用户资料表
type UserProfile struct {
	ID          uint          `gorm:"primarykey" json:"id"`
	UserID      uint          `gorm:"uniqueIndex;not null" json:"user_id"`
	PhoneNumber string        `gorm:"size:32" json:"phone_number"`
	Birthday    *time.Time    `json:"birthday,omitempty"`
	Addresses   []UserAddress `gorm:"many2many:user_profile_addresses;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName 指定表名
func (UserProfile) TableName() string {
	return "user_profiles"
}

// UserAddress 用户地址表
type UserAddress struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Address1   string    `gorm:"column:address_1;size:150" json:"address_1"`
	Address2   string    `gorm:"column:address_2;size:150" json:"address_2"`
	Country    string    `gorm:"size:2;not null" json:"country"`
	State      string    `gorm:"size:50" json:"state"`
	City       string    `gorm:"size:150;not null" json:"city"`
	PostalCode string    `gorm:"size:16;not null" json:"postalcode"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 指定表名
func (UserAddress) TableName() string {
	return "user_addresses"
}

// SameLocation 判断两个地址字段是否一致
func (a UserAddress) SameLocation(other UserAddress) bool {
	return a.Address1 == other.Address1 &&
		a.Address2 == other.Address2 &&
		a.Country == other.Country &&
		a.State == other.State &&
		a.City == other.City &&
		a.PostalCode == other.PostalCode
}
