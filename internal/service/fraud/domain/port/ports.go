package port

import (
	"context"
	"fraudguard/internal/service/fraud/domain"
)

// OrderRepository 是订单持久化的出站端口。
type OrderRepository interface {
	// UpdateStatus 将订单的 state/status 更新为目标值。
	// 订单已是目标状态或被并发修改时返回 Conflict 结果，而不是 error。
	UpdateStatus(ctx context.Context, orderID string, state domain.State, comment string) (domain.StatusUpdateResult, error)
}

// FraudNotifier 是欺诈通知的出站端口。
type FraudNotifier interface {
	SendFraudAlert(ctx context.Context, alert *domain.FraudAlert) error
}

// OrderHeldPublisher 发布订单被暂停的领域事件。
type OrderHeldPublisher interface {
	PublishOrderHeld(ctx context.Context, event *domain.OrderHeld) error
}

// IdempotencyStore 保证同一事件只被评估一次。
type IdempotencyStore interface {
	// Claim 返回 false 表示该键已被处理过
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// SettingsProvider 按店铺作用域提供欺诈防控配置。
type SettingsProvider interface {
	ForStore(storeID string) domain.Settings
}
