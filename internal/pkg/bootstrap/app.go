// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fraudguard/internal/pkg/config"
	"fraudguard/internal/pkg/logger"
	"fraudguard/internal/pkg/nacos"
	"fraudguard/internal/pkg/utils"
	"fraudguard/internal/tracing"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// AppCtx 是注册路由时可用的公共组件
type AppCtx struct {
	Mux    *http.ServeMux
	Config *config.Store
}

// Runner 是随服务一起启动和关停的后台组件，例如 Kafka 消费者
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx)
	Runners          []Runner
}

// Init 加载配置并初始化日志
func Init(configPath string) (*config.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Service.Name, cfg.Service.LogLevel)
	return config.NewStore(cfg), nil
}

// StartService 封装了通用的启动和优雅关停逻辑，阻塞直到收到退出信号或某个组件失败。
func StartService(store *config.Store, info AppInfo) error {
	cfg := store.Current()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log := logger.Ctx(ctx)

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint, cfg.Infra.Jaeger.SampleRatio)
	if err != nil {
		return errors.Wrap(err, "failed to initialize tracer provider")
	}

	// 2. Nacos：服务注册与配置热更新，未配置地址时跳过
	var (
		nacosClient *nacos.Client
		ip          string
	)
	if cfg.Infra.Nacos.ServerAddrs != "" {
		nacosClient, err = nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
		if err != nil {
			return errors.Wrap(err, "failed to initialize nacos client")
		}
		if ip, err = utils.GetOutboundIP(); err != nil {
			return errors.Wrap(err, "failed to get outbound IP address")
		}
		if err = nacosClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			return err
		}
		err = nacosClient.WatchConfig(cfg.Infra.Nacos.DataID, func(data string) {
			if err := store.ReloadFraudPrevention([]byte(data)); err != nil {
				log.Error().Err(err).Msg("Rejected remote fraud_prevention config")
				return
			}
			log.Info().Msg("fraud_prevention config reloaded")
		})
		if err != nil {
			log.Error().Err(err).Msg("Remote config unavailable, using local config")
		}
	}

	// 3. HTTP Server
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Config: store})
	}
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(info.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("service", info.ServiceName).Int("port", info.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "could not listen on %s", server.Addr)
		}
		return nil
	})
	for _, r := range info.Runners {
		r := r
		g.Go(func() error { return r.Start(gctx) })
	}

	// 4. 等待退出信号或任一组件出错
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Str("service", info.ServiceName).Msg("Shutting down service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// 按启动的逆序清理
		if nacosClient != nil {
			if err := nacosClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
				log.Error().Err(err).Msg("Error deregistering from Nacos")
			}
			nacosClient.Close()
		}
		for i := len(info.Runners) - 1; i >= 0; i-- {
			info.Runners[i].Stop(shutdownCtx)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down http server")
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down tracer provider")
		}
		return nil
	})

	err = g.Wait()
	log.Info().Str("service", info.ServiceName).Msg("Service gracefully shut down.")
	return err
}
