// cmd/fraud-prevention-service/main.go
package main

import (
	"context"
	"os"

	"fraudguard/internal/pkg/bootstrap"
	"fraudguard/internal/pkg/config"
	"fraudguard/internal/pkg/logger"
	"fraudguard/internal/pkg/metrics"
	"fraudguard/internal/pkg/mq"
	"fraudguard/internal/service/fraud/application"
	"fraudguard/internal/service/fraud/infrastructure"
	"fraudguard/internal/service/fraud/infrastructure/adapter"
	"fraudguard/internal/service/fraud/infrastructure/rule"
	"fraudguard/internal/service/fraud/interfaces"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
)

const serviceName = "fraud-prevention-service"

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	ctx := context.Background()

	store, err := bootstrap.Init(getEnv("CONFIG_FILE", "config/fraud-prevention.yaml"))
	if err != nil {
		logger.Ctx(ctx).Fatal().Err(err).Msg("failed to load config")
	}
	cfg := store.Current()
	infra := cfg.Infra

	// 1. 被驱动适配器
	db, err := infrastructure.OpenMySQL(infra.MySQL)
	if err != nil {
		logger.Ctx(ctx).Fatal().Err(err).Msg("failed to connect to mysql")
	}
	orderRepo := infrastructure.NewGormOrderRepository(db)
	if err := orderRepo.AutoMigrate(); err != nil {
		logger.Ctx(ctx).Fatal().Err(err).Msg("failed to migrate order tables")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     infra.Redis.Addr,
		Password: infra.Redis.Password,
		DB:       infra.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Ctx(ctx).Fatal().Err(err).Msg("failed to connect to redis")
	}

	heldWriter := mq.NewKafkaWriter(infra.Kafka.Brokers, infra.Kafka.OrderHeldTopic)
	defer heldWriter.Close()
	dltTopic := infra.Kafka.OrderPlacedTopic + mq.DLTSuffix
	dltWriter := mq.NewKafkaWriter(infra.Kafka.Brokers, dltTopic)
	defer dltWriter.Close()

	ruleEngine, err := rule.NewCELRuleEngineAdapter()
	if err != nil {
		logger.Ctx(ctx).Fatal().Err(err).Msg("failed to create rule engine")
	}
	if err := compileRules(ruleEngine, cfg.FraudPrevention); err != nil {
		logger.Ctx(ctx).Fatal().Err(err).Msg("invalid expression rule")
	}

	mailTemplate, err := adapter.NewMailTemplate()
	if err != nil {
		logger.Ctx(ctx).Fatal().Err(err).Msg("failed to load mail template")
	}

	tracer := otel.Tracer(serviceName)

	// 2. 应用服务
	fraudService := application.NewFraudPreventionService(
		orderRepo,
		adapter.NewMailNotifierAdapter(adapter.NewSMTPSender(infra.SMTP), mailTemplate, tracer),
		adapter.NewOrderHeldKafkaAdapter(heldWriter),
		adapter.NewRedisIdempotencyAdapter(redisClient, infra.Redis.IdempotencyTTL),
		store,
		ruleEngine,
		tracer,
		metrics.NewFraudMetrics(prometheus.DefaultRegisterer),
		cfg.Service.ProcessingTimeout,
	)

	// 3. 驱动适配器
	orderPlacedConsumer := interfaces.NewOrderPlacedConsumerAdapter(
		mq.NewKafkaReader(infra.Kafka.Brokers, infra.Kafka.OrderPlacedTopic, infra.Kafka.ConsumerGroupID),
		fraudService,
		mq.NewFailureHandler(dltWriter),
	)
	dltConsumer := interfaces.NewDltConsumerAdapter(
		mq.NewKafkaReader(infra.Kafka.Brokers, dltTopic, infra.Kafka.ConsumerGroupID+"-dlt"),
	)
	httpHandler := interfaces.NewFraudHandler(fraudService, prometheus.DefaultGatherer)

	err = bootstrap.StartService(store, bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        cfg.Service.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			httpHandler.RegisterRoutes(appCtx.Mux)
		},
		Runners: []bootstrap.Runner{orderPlacedConsumer, dltConsumer},
	})
	if err != nil {
		logger.Ctx(ctx).Fatal().Err(err).Msg("service exited with error")
	}
}

// compileRules 启动时预编译全部表达式规则，配置错误尽早暴露
func compileRules(engine *rule.CELRuleEngineAdapter, c config.FraudPreventionConfig) error {
	for _, r := range c.ExpressionRules {
		if err := engine.Compile(r.Expression); err != nil {
			return err
		}
	}
	for _, sc := range c.Stores {
		if err := compileRules(engine, sc); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
