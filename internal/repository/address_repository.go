package repository

import (
	"errors"

	"github.com/ecommapi/internal/models"

	"gorm.io/gorm"
)

const profileAddressTable = "user_profile_addresses"

// AddressRepository 用户地址数据访问接口
type AddressRepository interface {
	GetByID(id uint) (*models.UserAddress, error)
	GetOwnedByUser(id, userID uint) (*models.UserAddress, error)
	ListByUser(userID uint) ([]models.UserAddress, error)
	ListAll() ([]models.UserAddress, error)
	FindOrCreate(address *models.UserAddress) error
	Save(address *models.UserAddress) error
	DeleteOrphans() (int64, error)
	WithTx(tx *gorm.DB) *GormAddressRepository
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAddressRepository) WithTx(tx *gorm.DB) *GormAddressRepository {
	if tx == nil {
		return r
	}
	return &GormAddressRepository{db: tx}
}

// GetByID 根据 ID 获取地址
func (r *GormAddressRepository) GetByID(id uint) (*models.UserAddress, error) {
	var address models.UserAddress
	if err := r.db.First(&address, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// GetOwnedByUser 获取属于用户资料的地址，不属于时返回 nil
func (r *GormAddressRepository) GetOwnedByUser(id, userID uint) (*models.UserAddress, error) {
	var address models.UserAddress
	err := r.db.
		Joins("JOIN "+profileAddressTable+" upa ON upa.user_address_id = user_addresses.id").
		Joins("JOIN user_profiles up ON up.id = upa.user_profile_id").
		Where("user_addresses.id = ? AND up.user_id = ?", id, userID).
		First(&address).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// ListByUser 获取用户资料关联的全部地址
func (r *GormAddressRepository) ListByUser(userID uint) ([]models.UserAddress, error) {
	var addresses []models.UserAddress
	err := r.db.
		Joins("JOIN "+profileAddressTable+" upa ON upa.user_address_id = user_addresses.id").
		Joins("JOIN user_profiles up ON up.id = upa.user_profile_id").
		Where("up.user_id = ?", userID).
		Order("user_addresses.id asc").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// ListAll 获取全部地址
func (r *GormAddressRepository) ListAll() ([]models.UserAddress, error) {
	var addresses []models.UserAddress
	if err := r.db.Order("id asc").Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// FindOrCreate 按地址字段查找，不存在则创建
func (r *GormAddressRepository) FindOrCreate(address *models.UserAddress) error {
	// map 条件保留空字符串字段
	return r.db.Where(map[string]interface{}{
		"address_1":   address.Address1,
		"address_2":   address.Address2,
		"country":     address.Country,
		"state":       address.State,
		"city":        address.City,
		"postal_code": address.PostalCode,
	}).FirstOrCreate(address).Error
}

// Save 保存地址
func (r *GormAddressRepository) Save(address *models.UserAddress) error {
	return r.db.Save(address).Error
}

// DeleteOrphans 删除不再被任何资料引用的地址，引用它们的订单地址置空
func (r *GormAddressRepository) DeleteOrphans() (int64, error) {
	linked := r.db.Session(&gorm.Session{NewDB: true}).Table(profileAddressTable).Select("user_address_id")

	var orphanIDs []uint
	if err := r.db.Model(&models.UserAddress{}).Where("id NOT IN (?)", linked).Pluck("id", &orphanIDs).Error; err != nil {
		return 0, err
	}
	if len(orphanIDs) == 0 {
		return 0, nil
	}
	if err := r.db.Model(&models.Order{}).Where("address_id IN ?", orphanIDs).Update("address_id", nil).Error; err != nil {
		return 0, err
	}
	result := r.db.Where("id IN ?", orphanIDs).Delete(&models.UserAddress{})
	return result.RowsAffected, result.Error
}
