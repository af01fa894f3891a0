package interfaces

import (
	"context"
	"encoding/json"
	"net/http"

	"fraudguard/internal/pkg/logger"
	"fraudguard/internal/service/fraud/application"
	"fraudguard/internal/service/fraud/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

// Previewer 对订单做一次无副作用的评估
type Previewer interface {
	Preview(ctx context.Context, snapshot domain.OrderSnapshot) domain.EvaluationResult
}

// FraudHandler 封装了 fraud-prevention 服务的 HTTP 处理器
type FraudHandler struct {
	service  Previewer
	gatherer prometheus.Gatherer
}

// NewFraudHandler 创建一个新的 HTTP 处理器实例，gatherer 为 nil 时使用默认注册器
func NewFraudHandler(service Previewer, gatherer prometheus.Gatherer) *FraudHandler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &FraudHandler{service: service, gatherer: gatherer}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *FraudHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("POST /evaluate", h.evaluateHandler)
}

func (h *FraudHandler) evaluateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.Evaluate")
	defer span.End()

	var req application.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("Invalid evaluate request")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("order.id", req.OrderID), attribute.String("store.id", req.StoreID))

	result := h.service.Preview(ctx, req.ToSnapshot())
	resp := application.NewEvaluateResponse(req.OrderID, result)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Failed to write evaluate response")
	}
}
