package mq

import (
	"context"
	"fmt"
	"strconv"

	"fraudguard/internal/pkg/logger"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// 死信消息携带的原始消息信息
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderExceptionFqcn     = "x-exception-fqcn"
	HeaderExceptionMessage  = "x-exception-message"
)

// DLTSuffix 是死信主题的后缀
const DLTSuffix = ".dlt"

// FailureHandler 把处理失败的消息转发到死信主题
type FailureHandler struct {
	writer MessageWriter
}

func NewFailureHandler(writer MessageWriter) *FailureHandler {
	return &FailureHandler{writer: writer}
}

// Handle 转发失败消息。转发失败时返回错误，调用方不应提交该消息的 offset。
func (h *FailureHandler) Handle(ctx context.Context, msg kafka.Message, cause error) error {
	headers := append([]kafka.Header{}, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: HeaderExceptionFqcn, Value: []byte(fmt.Sprintf("%T", cause))},
		kafka.Header{Key: HeaderExceptionMessage, Value: []byte(cause.Error())},
	)

	err := h.writer.WriteMessages(ctx, kafka.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("topic", msg.Topic).
			Int64("offset", msg.Offset).
			Msg("Failed to forward message to DLT")
		return errors.Wrap(err, "failed to forward message to DLT")
	}
	logger.Ctx(ctx).Warn().Err(cause).
		Str("topic", msg.Topic).
		Int64("offset", msg.Offset).
		Msg("Message forwarded to DLT")
	return nil
}
