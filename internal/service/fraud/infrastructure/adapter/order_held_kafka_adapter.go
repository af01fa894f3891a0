package adapter

import (
	"context"
	"encoding/json"

	"fraudguard/internal/pkg/mq"
	"fraudguard/internal/service/fraud/domain"

	"github.com/pkg/errors"
)

// OrderHeldKafkaAdapter 实现了 port.OrderHeldPublisher 接口。
type OrderHeldKafkaAdapter struct {
	writer mq.MessageWriter
}

// NewOrderHeldKafkaAdapter 创建一个新的订单暂停事件生产者。
func NewOrderHeldKafkaAdapter(writer mq.MessageWriter) *OrderHeldKafkaAdapter {
	return &OrderHeldKafkaAdapter{writer: writer}
}

// PublishOrderHeld 以订单 ID 作为 key 发布事件，保证同一订单的事件有序
func (a *OrderHeldKafkaAdapter) PublishOrderHeld(ctx context.Context, event *domain.OrderHeld) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal order held event")
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(event.OrderID), eventBytes)
}
