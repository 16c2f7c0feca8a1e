package service

import (
	"github.com/ecommapi/internal/repository"

	"gorm.io/gorm"
)

// InventoryLedger 库存账本
// quantity 为未被订单占用的数量，sold 只在支付确认时增加
type InventoryLedger struct {
	repo repository.InventoryRepository
}

// NewInventoryLedger 创建库存账本
func NewInventoryLedger(repo repository.InventoryRepository) *InventoryLedger {
	return &InventoryLedger{repo: repo}
}

// WithTx 绑定事务
func (l *InventoryLedger) WithTx(tx *gorm.DB) *InventoryLedger {
	if tx == nil {
		return l
	}
	return &InventoryLedger{repo: l.repo.WithTx(tx)}
}

// Reserve 校验可用库存是否足够，不修改数据
func (l *InventoryLedger) Reserve(inventoryID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	inventory, err := l.repo.GetByID(inventoryID)
	if err != nil {
		return err
	}
	if inventory == nil {
		return ErrProductNotFound
	}
	if quantity > inventory.Quantity {
		return ErrInsufficientStock
	}
	return nil
}

// Decrement 条件扣减可用库存，校验与扣减在同一条 UPDATE 内完成
func (l *InventoryLedger) Decrement(inventoryID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	ok, err := l.repo.Decrement(inventoryID, quantity)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientStock
	}
	return nil
}

// Restock 回补可用库存
func (l *InventoryLedger) Restock(inventoryID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return l.repo.Restock(inventoryID, quantity)
}

// FinalizeSale 支付确认后累加已售数量
func (l *InventoryLedger) FinalizeSale(inventoryID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	return l.repo.FinalizeSale(inventoryID, quantity)
}
