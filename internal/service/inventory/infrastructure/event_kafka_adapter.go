package infrastructure

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/segmentio/kafka-go"

	"dekor/internal/pkg/mq"
	"dekor/internal/service/inventory/domain"
)

// KafkaEventPublisher 把库存变动事件写进 Kafka，供外部消费者订阅。
// key 取 product_id，同一产品的事件保持分区内有序。
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

func NewKafkaEventPublisher(writer *kafka.Writer) *KafkaEventPublisher {
	return &KafkaEventPublisher{writer: writer}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, movement domain.StockMovement) error {
	payload, err := json.Marshal(movement)
	if err != nil {
		return err
	}
	key := []byte(strconv.FormatInt(movement.ProductID, 10))
	return mq.ProduceMessage(ctx, p.writer, key, payload)
}

// FanoutPublisher 把同一个事件分发给多个下游（Kafka、websocket hub）。
// 单个下游失败不阻断其它下游，错误由调用方统一记日志。
type FanoutPublisher struct {
	targets []domain.EventPublisher
}

func NewFanoutPublisher(targets ...domain.EventPublisher) *FanoutPublisher {
	return &FanoutPublisher{targets: targets}
}

func (p *FanoutPublisher) Publish(ctx context.Context, movement domain.StockMovement) error {
	var firstErr error
	for _, target := range p.targets {
		if err := target.Publish(ctx, movement); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var (
	_ domain.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domain.EventPublisher = (*FanoutPublisher)(nil)
)
