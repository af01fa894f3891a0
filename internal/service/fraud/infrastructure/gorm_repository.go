package infrastructure

import (
	"context"
	"time"

	"fraudguard/internal/service/fraud/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormOrderRepository 是 port.OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// AutoMigrate 创建或更新本服务用到的表
func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&SalesOrderModel{}, &OrderStatusHistoryModel{})
}

// UpdateStatus 在一个事务内更新订单状态并写入状态历史。
// 订单已处于目标状态、被并发修改、或历史记录重复时返回 Conflict 结果。
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, orderID string, state domain.State, comment string) (domain.StatusUpdateResult, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 带条件的更新：目标状态已存在时不会命中任何行
		res := tx.Model(&SalesOrderModel{}).
			Where("entity_id = ? AND state <> ?", orderID, string(state)).
			Updates(map[string]interface{}{
				"state":      string(state),
				"status":     string(state),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&SalesOrderModel{}).Where("entity_id = ?", orderID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.ErrOrderNotFound
			}
			return domain.ErrStatusUpdateConflict
		}

		return tx.Create(&OrderStatusHistoryModel{
			ParentID: orderID,
			Status:   string(state),
			Comment:  comment,
		}).Error
	})

	switch {
	case err == nil:
		return domain.StatusApplied(), nil
	case errors.Is(err, domain.ErrStatusUpdateConflict):
		return domain.StatusConflict("order " + orderID + " is already " + string(state)), nil
	case isDuplicateEntry(err):
		return domain.StatusConflict("status history for order " + orderID + " already contains " + string(state)), nil
	default:
		return domain.StatusUpdateResult{}, errors.Wrapf(err, "failed to update status of order %s", orderID)
	}
}

// FindByID 读取订单的当前状态
func (r *GormOrderRepository) FindByID(ctx context.Context, orderID string) (*SalesOrderModel, error) {
	var model SalesOrderModel
	err := r.db.WithContext(ctx).Where("entity_id = ?", orderID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &model, nil
}
