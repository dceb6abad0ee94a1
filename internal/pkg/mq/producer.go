// internal/pkg/mq/producer.go
package mq

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter 创建一个异步批量写入的 Kafka 生产者。
// 事件推送是尽力而为，不允许拖慢请求路径，所以超时给得很短。
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 2 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
}

// ProduceMessage 写一条消息。key 决定分区，同一产品的事件保证落在同一分区内有序。
func ProduceMessage(ctx context.Context, writer *kafka.Writer, key, value []byte) error {
	return writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}
