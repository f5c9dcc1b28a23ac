package executor

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"EngulfSentinel/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaExecutor publishes orders as JSON to a Kafka topic, keyed by symbol so
// orders for one instrument stay ordered on a partition.
type KafkaExecutor struct {
	writer messageWriter
	log    *zap.Logger
}

// NewKafkaExecutor creates a publisher for topic on brokers.
func NewKafkaExecutor(brokers []string, topic string, log *zap.Logger) *KafkaExecutor {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newKafkaExecutor(w, log)
}

func newKafkaExecutor(w messageWriter, log *zap.Logger) *KafkaExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaExecutor{writer: w, log: log}
}

func (k *KafkaExecutor) Name() string { return "kafka" }

func (k *KafkaExecutor) ExecuteMarketOrder(ctx context.Context, order model.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return pkgerrors.Wrap(err, "encode order")
	}
	msg := kafka.Message{
		Key:   []byte(order.Symbol),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "order_id", Value: []byte(order.ID)},
			{Key: "side", Value: []byte(order.Side)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.log.Error("publish order failed",
			zap.Error(err),
			zap.String("order_id", order.ID),
			zap.String("side", string(order.Side)),
		)
		return pkgerrors.Wrapf(err, "publish order %s", order.ID)
	}
	k.log.Info("order published",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("volume", order.Volume),
	)
	return nil
}

func (k *KafkaExecutor) Close() error { return k.writer.Close() }
