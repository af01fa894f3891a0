package domain

import "time"

// OrderPlaced 是订单提交后由商城侧发布的事件
type OrderPlaced struct {
	EventID         string    `json:"eventId"`
	TraceID         string    `json:"traceId,omitempty"`
	OrderID         string    `json:"orderId,omitempty"`
	IncrementID     string    `json:"incrementId,omitempty"`
	StoreID         string    `json:"storeId"`
	State           string    `json:"state"`
	Status          string    `json:"status,omitempty"`
	PaymentMethod   string    `json:"paymentMethod"`
	PaymentOffline  bool      `json:"paymentOffline"`
	DiscountPercent float64   `json:"discountPercent,omitempty"`
	CouponCode      string    `json:"couponCode,omitempty"`
	CustomerEmail   string    `json:"customerEmail,omitempty"`
	GrandTotal      float64   `json:"grandTotal,omitempty"`
	Currency        string    `json:"currency,omitempty"`
	PlacedAt        time.Time `json:"placedAt"`
}

// Snapshot 将事件转换为评估所用的订单快照
func (e *OrderPlaced) Snapshot() OrderSnapshot {
	status := e.Status
	if status == "" {
		status = e.State
	}
	return OrderSnapshot{
		ID:              e.OrderID,
		IncrementID:     e.IncrementID,
		StoreID:         e.StoreID,
		State:           State(e.State),
		Status:          State(status),
		Payment:         Payment{Method: e.PaymentMethod, Offline: e.PaymentOffline},
		DiscountPercent: e.DiscountPercent,
		CouponCodes:     e.CouponCode,
		CustomerEmail:   e.CustomerEmail,
		GrandTotal:      e.GrandTotal,
		Currency:        e.Currency,
		PlacedAt:        e.PlacedAt,
	}
}

// IdempotencyKey 返回用于去重的键，事件 ID 缺失时退化为订单 ID
func (e *OrderPlaced) IdempotencyKey() string {
	if e.EventID != "" {
		return "event:" + e.EventID
	}
	if e.OrderID != "" {
		return "order:" + e.OrderID
	}
	return ""
}

// OrderHeld 是订单因疑似欺诈被暂停后发布的事件
type OrderHeld struct {
	EventID        string     `json:"eventId"`
	OrderID        string     `json:"orderId"`
	IncrementID    string     `json:"incrementId,omitempty"`
	StoreID        string     `json:"storeId"`
	TriggeredRules []RuleName `json:"triggeredRules"`
	HeldAt         time.Time  `json:"heldAt"`
}

// FraudAlert 是发给通知端口的内容：收件人、店铺上下文和订单快照
type FraudAlert struct {
	Order       OrderSnapshot
	Result      EvaluationResult
	Recipients  []string
	SenderName  string
	SenderEmail string
	StoreID     string
	StoreName   string
}
