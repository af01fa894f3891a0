package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"fraudguard/internal/pkg/logger"
	"fraudguard/internal/pkg/metrics"
	"fraudguard/internal/service/fraud/domain"
	"fraudguard/internal/service/fraud/domain/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const releaseTimeout = 3 * time.Second

// FraudPreventionService 编排一次下单事件的欺诈检查：评估、暂停订单、通知。
type FraudPreventionService struct {
	orderRepo         port.OrderRepository
	notifier          port.FraudNotifier
	publisher         port.OrderHeldPublisher
	idempotency       port.IdempotencyStore
	settings          port.SettingsProvider
	ruleEngine        domain.RuleEngine
	tracer            trace.Tracer
	metrics           *metrics.FraudMetrics
	processingTimeout time.Duration
	now               func() time.Time
}

func NewFraudPreventionService(orderRepo port.OrderRepository, notifier port.FraudNotifier, publisher port.OrderHeldPublisher, idempotency port.IdempotencyStore, settings port.SettingsProvider, ruleEngine domain.RuleEngine, tracer trace.Tracer, m *metrics.FraudMetrics, processingTimeout time.Duration) *FraudPreventionService {
	return &FraudPreventionService{
		orderRepo: orderRepo, notifier: notifier,
		publisher: publisher, idempotency: idempotency,
		settings: settings, ruleEngine: ruleEngine,
		tracer: tracer, metrics: m,
		processingTimeout: processingTimeout, now: time.Now}
}

// HandleOrderPlaced 是下单事件的处理入口，由驱动适配器 (Kafka 消费者) 调用。
// 状态冲突只记录日志，不返回错误；只有协作方的其他故障才会返回错误。
func (s *FraudPreventionService) HandleOrderPlaced(ctx context.Context, event *domain.OrderPlaced) error {
	ctx, span := s.tracer.Start(ctx, "app.HandleOrderPlaced", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	span.SetAttributes(
		attribute.String("order.id", event.OrderID),
		attribute.String("store.id", event.StoreID),
		attribute.String("event.id", event.EventID),
	)

	if s.processingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.processingTimeout)
		defer cancel()
	}

	// 1. 去重：重投递的事件只评估一次
	key := event.IdempotencyKey()
	if key != "" {
		claimed, err := s.idempotency.Claim(ctx, key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to claim event")
			return err
		}
		if !claimed {
			logger.Ctx(ctx).Info().Str("key", key).Msg("Order placed event already processed, skipping")
			span.AddEvent("Duplicate event skipped.")
			return nil
		}
	}

	err := s.process(ctx, event)
	if err != nil && key != "" {
		s.release(ctx, key)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Fraud prevention failed")
	}
	return err
}

// release 释放声明，使事件在 DLT 重放时能够再次处理。
// 处理超时或消费者关停时 ctx 已经取消，因此换用独立的超时上下文。
func (s *FraudPreventionService) release(ctx context.Context, key string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := s.idempotency.Release(releaseCtx, key); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("key", key).Msg("Failed to release idempotency key")
	}
}

func (s *FraudPreventionService) process(ctx context.Context, event *domain.OrderPlaced) error {
	span := trace.SpanFromContext(ctx)
	snapshot := event.Snapshot()
	settings := s.settings.ForStore(snapshot.StoreID)

	// 2. 纯函数评估
	result := s.evaluate(ctx, snapshot, settings)
	if !result.IsFraudSuspect() {
		s.metrics.Evaluations.WithLabelValues("clean").Inc()
		return nil
	}
	s.metrics.Evaluations.WithLabelValues("suspect").Inc()
	for _, r := range result.TriggeredRules() {
		s.metrics.RuleTriggers.WithLabelValues(string(r)).Inc()
	}
	span.SetAttributes(attribute.StringSlice("fraud.rules", ruleStrings(result)))

	// 3. 得到变更意图后由本服务执行 I/O
	held, notify := domain.Apply(snapshot, result)
	statusResult, err := s.orderRepo.UpdateStatus(ctx, held.ID, held.Status, holdComment(result))
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", held.ID).Msg("Failed to hold suspected fraud order")
		return err
	}
	if statusResult.Conflict() {
		// 冲突只记录日志；暂停与通知保持耦合，冲突时不发信
		s.metrics.StatusConflicts.Inc()
		logger.Ctx(ctx).Error().
			Str("order_id", held.ID).
			Str("reason", statusResult.Reason).
			Msg("Order status update conflict, fraud alert not sent")
		span.AddEvent("Status update conflict.")
		return nil
	}

	s.metrics.Holds.Inc()
	logger.Ctx(ctx).Warn().
		Str("order_id", held.ID).
		Strs("rules", ruleStrings(result)).
		Msg("Order held as suspected fraud")
	span.AddEvent("Order held.")

	if notify {
		s.notify(ctx, held, result, settings)
	}
	s.publishHeld(ctx, held, result)
	return nil
}

func (s *FraudPreventionService) evaluate(ctx context.Context, snapshot domain.OrderSnapshot, settings domain.Settings) domain.EvaluationResult {
	result, errs := domain.EvaluateWith(snapshot, settings, s.ruleEngine)
	for _, err := range errs {
		rule := "unknown"
		var re *domain.RuleError
		if errors.As(err, &re) {
			rule = string(re.Rule)
		}
		s.metrics.RuleErrors.WithLabelValues(rule).Inc()
		logger.Ctx(ctx).Error().Err(err).Str("order_id", snapshot.ID).Msg("Expression rule failed, treated as not fired")
	}
	return result
}

// notify 是尽力而为的：发送失败只记录日志
func (s *FraudPreventionService) notify(ctx context.Context, order domain.OrderSnapshot, result domain.EvaluationResult, settings domain.Settings) {
	if len(settings.EmailRecipients) == 0 {
		logger.Ctx(ctx).Warn().Str("order_id", order.ID).Msg("No fraud alert recipients configured")
		return
	}
	err := s.notifier.SendFraudAlert(ctx, &domain.FraudAlert{
		Order:       order,
		Result:      result,
		Recipients:  settings.EmailRecipients,
		SenderName:  settings.SenderName,
		SenderEmail: settings.SenderEmail,
		StoreID:     order.StoreID,
		StoreName:   settings.StoreName,
	})
	if err != nil {
		s.metrics.NotificationFailures.Inc()
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("Failed to send fraud alert")
		trace.SpanFromContext(ctx).RecordError(err)
	}
}

func (s *FraudPreventionService) publishHeld(ctx context.Context, order domain.OrderSnapshot, result domain.EvaluationResult) {
	err := s.publisher.PublishOrderHeld(ctx, &domain.OrderHeld{
		EventID:        uuid.New().String(),
		OrderID:        order.ID,
		IncrementID:    order.IncrementID,
		StoreID:        order.StoreID,
		TriggeredRules: result.TriggeredRules(),
		HeldAt:         s.now().UTC(),
	})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("Failed to publish order held event")
	}
}

// Preview 只做评估，不产生任何副作用
func (s *FraudPreventionService) Preview(ctx context.Context, snapshot domain.OrderSnapshot) domain.EvaluationResult {
	ctx, span := s.tracer.Start(ctx, "app.Preview")
	defer span.End()
	return s.evaluate(ctx, snapshot, s.settings.ForStore(snapshot.StoreID))
}

func holdComment(result domain.EvaluationResult) string {
	return "Suspected fraud: " + strings.Join(ruleStrings(result), ", ")
}

func ruleStrings(result domain.EvaluationResult) []string {
	rules := result.TriggeredRules()
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = string(r)
	}
	return out
}
