package repository

import (
	"errors"
	"strings"

	"github.com/ecommapi/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByIDWithProfile(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	List(filter UserListFilter) ([]models.User, int64, error)
	GetProfile(userID uint) (*models.UserProfile, error)
	CreateProfile(profile *models.UserProfile) error
	UpdateProfile(profile *models.UserProfile) error
	ReplaceProfileAddresses(profile *models.UserProfile, addresses []models.UserAddress) error
	WithTx(tx *gorm.DB) *GormUserRepository
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) *GormUserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDWithProfile 获取用户及资料、地址
func (r *GormUserRepository) GetByIDWithProfile(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Profile.Addresses").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (r *GormUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail 根据邮箱获取用户（忽略大小写）
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Omit("Profile").Create(user).Error
}

// Update 更新用户基础字段
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Omit("Profile").Save(user).Error
}

// List 用户列表
func (r *GormUserRepository) List(filter UserListFilter) ([]models.User, int64, error) {
	query := r.db.Model(&models.User{})
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		like := containsPattern(keyword)
		op := likeOperator(r.db)
		query = query.Where("username "+op+" ? OR email "+op+" ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Profile.Addresses").Order("id asc").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetProfile 获取用户资料
func (r *GormUserRepository) GetProfile(userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.Preload("Addresses").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// CreateProfile 创建用户资料（含地址关联）
func (r *GormUserRepository) CreateProfile(profile *models.UserProfile) error {
	return r.db.Create(profile).Error
}

// UpdateProfile 更新资料字段（不含地址关联）
func (r *GormUserRepository) UpdateProfile(profile *models.UserProfile) error {
	return r.db.Model(profile).Select("phone_number", "birthday", "updated_at").Updates(profile).Error
}

// ReplaceProfileAddresses 整体替换资料关联的地址
func (r *GormUserRepository) ReplaceProfileAddresses(profile *models.UserProfile, addresses []models.UserAddress) error {
	if err := r.db.Model(profile).Association("Addresses").Replace(addresses); err != nil {
		return err
	}
	profile.Addresses = addresses
	return nil
}
