package application

import (
	"time"

	"fraudguard/internal/service/fraud/domain"
)

// EvaluateRequest 是预览接口的输入
type EvaluateRequest struct {
	OrderID         string    `json:"orderId"`
	IncrementID     string    `json:"incrementId"`
	StoreID         string    `json:"storeId"`
	State           string    `json:"state"`
	PaymentMethod   string    `json:"paymentMethod"`
	PaymentOffline  bool      `json:"paymentOffline"`
	DiscountPercent float64   `json:"discountPercent"`
	CouponCode      string    `json:"couponCode"`
	CustomerEmail   string    `json:"customerEmail"`
	GrandTotal      float64   `json:"grandTotal"`
	Currency        string    `json:"currency"`
	PlacedAt        time.Time `json:"placedAt"`
}

// EvaluateResponse 是预览接口的输出
type EvaluateResponse struct {
	OrderID        string            `json:"orderId"`
	IsFraudSuspect bool              `json:"isFraudSuspect"`
	TriggeredRules []domain.RuleName `json:"triggeredRules"`
	WouldHold      bool              `json:"wouldHold"`
}

// ToSnapshot 复用事件的转换逻辑
func (r *EvaluateRequest) ToSnapshot() domain.OrderSnapshot {
	event := domain.OrderPlaced{
		OrderID:         r.OrderID,
		IncrementID:     r.IncrementID,
		StoreID:         r.StoreID,
		State:           r.State,
		PaymentMethod:   r.PaymentMethod,
		PaymentOffline:  r.PaymentOffline,
		DiscountPercent: r.DiscountPercent,
		CouponCode:      r.CouponCode,
		CustomerEmail:   r.CustomerEmail,
		GrandTotal:      r.GrandTotal,
		Currency:        r.Currency,
		PlacedAt:        r.PlacedAt,
	}
	return event.Snapshot()
}

// NewEvaluateResponse 从评估结果构造响应
func NewEvaluateResponse(orderID string, result domain.EvaluationResult) *EvaluateResponse {
	return &EvaluateResponse{
		OrderID:        orderID,
		IsFraudSuspect: result.IsFraudSuspect(),
		TriggeredRules: result.TriggeredRules(),
		WouldHold:      result.IsFraudSuspect(),
	}
}
