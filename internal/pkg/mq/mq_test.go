package mq

import (
	"context"
	"errors"
	"io"
	"testing"

	"fraudguard/internal/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func headerMap(headers []kafka.Header) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = string(h.Value)
	}
	return m
}

func TestKafkaHeaderCarrier(t *testing.T) {
	c := KafkaHeaderCarrier{{Key: "a", Value: []byte("1")}}
	c.Set("b", "2")
	c.Set("a", "3")

	assert.Equal(t, "3", c.Get("a"))
	assert.Equal(t, "2", c.Get("b"))
	assert.Equal(t, "", c.Get("missing"))
	assert.ElementsMatch(t, []string{"a", "b"}, c.Keys())
}

func TestProduceMessage_PropagatesTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	w := &captureWriter{}
	err := ProduceMessage(ctx, w, []byte("123"), []byte(`{}`), kafka.Header{Key: "x-type", Value: []byte("OrderHeld")})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	headers := headerMap(w.msgs[0].Headers)
	assert.Equal(t, "OrderHeld", headers["x-type"])
	assert.Contains(t, headers["traceparent"], "4bf92f3577b34da6a3ce929d0e0e4736")

	extracted := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), w.msgs[0].Headers))
	assert.Equal(t, traceID, extracted.TraceID())
}

func TestProduceMessage_WrapsWriteError(t *testing.T) {
	err := ProduceMessage(context.Background(), &captureWriter{err: errors.New("broker down")}, nil, nil)
	assert.ErrorContains(t, err, "failed to write kafka message: broker down")
}

func TestFailureHandler_Handle(t *testing.T) {
	logger.SetOutput(io.Discard)
	w := &captureWriter{}
	msg := kafka.Message{
		Topic:     "order-placed-topic",
		Partition: 2,
		Offset:    42,
		Key:       []byte("123"),
		Value:     []byte(`{"orderId":"123"}`),
		Headers:   []kafka.Header{{Key: "traceparent", Value: []byte("tp")}},
	}

	require.NoError(t, NewFailureHandler(w).Handle(context.Background(), msg, errors.New("boom")))

	require.Len(t, w.msgs, 1)
	out := w.msgs[0]
	assert.Equal(t, msg.Key, out.Key)
	assert.Equal(t, msg.Value, out.Value)
	assert.Empty(t, out.Topic, "topic is decided by the DLT writer")

	headers := headerMap(out.Headers)
	assert.Equal(t, "tp", headers["traceparent"])
	assert.Equal(t, "order-placed-topic", headers[HeaderOriginalTopic])
	assert.Equal(t, "2", headers[HeaderOriginalPartition])
	assert.Equal(t, "42", headers[HeaderOriginalOffset])
	assert.Equal(t, "*errors.errorString", headers[HeaderExceptionFqcn])
	assert.Equal(t, "boom", headers[HeaderExceptionMessage])
	assert.Len(t, msg.Headers, 1, "original headers are not mutated")
}

func TestFailureHandler_HandleReportsWriteError(t *testing.T) {
	logger.SetOutput(io.Discard)
	w := &captureWriter{err: errors.New("broker down")}

	err := NewFailureHandler(w).Handle(context.Background(), kafka.Message{Topic: "order-placed-topic"}, errors.New("boom"))

	assert.ErrorContains(t, err, "failed to forward message to DLT: broker down")
}
