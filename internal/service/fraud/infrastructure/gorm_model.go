package infrastructure

import "time"

// SalesOrderModel 对应 sales_order 表中与状态相关的列
type SalesOrderModel struct {
	EntityID    string `gorm:"column:entity_id;primaryKey;size:64"`
	IncrementID string `gorm:"column:increment_id;size:50"`
	StoreID     string `gorm:"column:store_id;size:32"`
	State       string `gorm:"column:state;size:32;index"`
	Status      string `gorm:"column:status;size:32"`
	UpdatedAt   time.Time
}

// TableName 指定 GORM 应该使用的表名
func (SalesOrderModel) TableName() string {
	return "sales_order"
}

// OrderStatusHistoryModel 记录每一次状态变更，(parent_id, status) 唯一
type OrderStatusHistoryModel struct {
	ID        uint   `gorm:"primaryKey"`
	ParentID  string `gorm:"column:parent_id;size:64;uniqueIndex:uniq_order_status"`
	Status    string `gorm:"column:status;size:32;uniqueIndex:uniq_order_status"`
	Comment   string `gorm:"column:comment;type:text"`
	CreatedAt time.Time
}

func (OrderStatusHistoryModel) TableName() string {
	return "sales_order_status_history"
}
