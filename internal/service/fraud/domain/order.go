package domain

import "time"

// Payment 描述订单使用的支付方式
type Payment struct {
	Method  string
	Offline bool // 线下支付 (货到付款、银行转账等)
}

// OrderSnapshot 是下单事件发生时捕获的、与欺诈评估相关的订单数据子集。
// 评估期间视为只读。
type OrderSnapshot struct {
	ID          string // 为空表示订单尚未持久化，评估直接跳过
	IncrementID string
	StoreID     string
	State       State
	Status      State
	Payment     Payment

	DiscountPercent float64
	// CouponCodes 保留原始的逗号分隔形式
	CouponCodes string

	CustomerEmail string
	GrandTotal    float64
	Currency      string
	PlacedAt      time.Time
}

// HasID 判断快照是否携带订单标识
func (s OrderSnapshot) HasID() bool {
	return s.ID != ""
}

// Exempt 判断订单是否豁免评估：无 ID、线下支付、或者仍在等待支付。
func (s OrderSnapshot) Exempt() bool {
	return !s.HasID() || s.Payment.Offline || s.State == StatePendingPayment
}
