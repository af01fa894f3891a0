package domain

import "errors"

var (
	// ErrStatusUpdateConflict 表示订单已处于目标状态，或已被并发修改
	ErrStatusUpdateConflict = errors.New("order status update conflict")
	ErrOrderNotFound        = errors.New("order not found")
)
