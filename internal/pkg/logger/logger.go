// Package logger 提供带追踪上下文的 zerolog 日志入口。
package logger

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init 设置服务名和日志级别，级别无法解析时回退到 info
func Init(serviceName, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("service", serviceName).Logger()
}

// SetOutput 替换日志输出，主要用于测试
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = base.Output(w)
}

// Ctx 返回附带 trace_id / span_id 的 logger
func Ctx(ctx context.Context) *zerolog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}
	return &l
}
