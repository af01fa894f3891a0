package interfaces

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"fraudguard/internal/pkg/logger"
	"fraudguard/internal/pkg/mq"
	"fraudguard/internal/service/fraud/domain"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "fraud-prevention-service"

// MessageReader 是 *kafka.Reader 中消费者用到的部分
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// OrderPlacedHandler 由应用服务实现
type OrderPlacedHandler interface {
	HandleOrderPlaced(ctx context.Context, event *domain.OrderPlaced) error
}

// DeadLetterSink 接收处理失败的消息，返回错误表示消息没有被接收
type DeadLetterSink interface {
	Handle(ctx context.Context, msg kafka.Message, cause error) error
}

// OrderPlacedConsumerAdapter 是一个驱动适配器，它监听下单事件并驱动应用服务。
type OrderPlacedConsumerAdapter struct {
	reader         MessageReader
	handler        OrderPlacedHandler
	failureHandler DeadLetterSink
	retryInterval  time.Duration

	wg      sync.WaitGroup
	stopped atomic.Bool
}

func NewOrderPlacedConsumerAdapter(reader MessageReader, handler OrderPlacedHandler, failureHandler DeadLetterSink) *OrderPlacedConsumerAdapter {
	return &OrderPlacedConsumerAdapter{
		reader:         reader,
		handler:        handler,
		failureHandler: failureHandler,
		retryInterval:  time.Second,
	}
}

// Start 开始监听 Kafka 主题，消费循环在后台 goroutine 中运行。
func (a *OrderPlacedConsumerAdapter) Start(ctx context.Context) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		topic := a.reader.Config().Topic
		logger.Ctx(ctx).Info().Str("topic", topic).Msg("✅ Order placed consumer started.")
		for !a.stopped.Load() {
			// 使用 FetchMessage 手动提交，处理完成后才推进 offset
			msg, err := a.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || a.stopped.Load() {
					logger.Ctx(ctx).Info().Str("topic", topic).Msg("🛑 Order placed consumer shutting down.")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("Could not fetch message, retrying")
				time.Sleep(a.retryInterval)
				continue
			}

			a.consume(ctx, msg)
		}
	}()
	return nil
}

// consume 处理单条消息：失败的消息移交 DLT，之后无论成功与否都提交 offset
func (a *OrderPlacedConsumerAdapter) consume(ctx context.Context, msg kafka.Message) {
	msgCtx := mq.ExtractTraceContext(ctx, msg.Headers)
	msgCtx, span := otel.Tracer(serviceName).Start(msgCtx, "kafka.consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		))
	defer span.End()

	if err := a.processMessage(msgCtx, msg); err != nil {
		span.RecordError(err)
		if !a.forwardToDLT(ctx, msgCtx, msg, err) {
			// DLT 不可用且消费者正在退出：不提交，重启后重新投递
			logger.Ctx(msgCtx).Error().Int64("offset", msg.Offset).Msg("Message left uncommitted, DLT unavailable")
			return
		}
	}

	if err := a.reader.CommitMessages(ctx, msg); err != nil {
		logger.Ctx(msgCtx).Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit messages")
	}
}

// forwardToDLT 重试转发直到成功，DLT 是失败消息唯一的恢复途径。
// 消费者停止或 ctx 结束时返回 false。
func (a *OrderPlacedConsumerAdapter) forwardToDLT(ctx, msgCtx context.Context, msg kafka.Message, cause error) bool {
	for {
		if err := a.failureHandler.Handle(msgCtx, msg, cause); err == nil {
			return true
		}
		if ctx.Err() != nil || a.stopped.Load() {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(a.retryInterval):
		}
	}
}

// processMessage 反序列化消息并调用应用服务。
func (a *OrderPlacedConsumerAdapter) processMessage(ctx context.Context, msg kafka.Message) error {
	var event domain.OrderPlaced
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return errors.Wrap(err, "failed to decode order placed event")
	}
	return a.handler.HandleOrderPlaced(ctx, &event)
}

// Stop 优雅地停止消费者。
func (a *OrderPlacedConsumerAdapter) Stop(ctx context.Context) {
	a.stopped.Store(true)
	if err := a.reader.Close(); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Failed to close kafka reader")
	}
	a.wg.Wait()
	logger.Ctx(ctx).Info().Str("topic", a.reader.Config().Topic).Msg("✅ Order placed consumer stopped.")
}
