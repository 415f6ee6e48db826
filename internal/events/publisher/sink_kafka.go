package publisher

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes through a franz-go client. Delivery guarantees beyond
// the produce acknowledgement are the broker's concern.
type KafkaSink struct {
	client *kgo.Client
}

var _ Sink = (*KafkaSink)(nil)

// NewKafkaSink wraps an existing Kafka client; its lifecycle is managed by
// the caller.
func NewKafkaSink(client *kgo.Client) *KafkaSink {
	return &KafkaSink{client: client}
}

func (s *KafkaSink) Publish(ctx context.Context, topic string, key, payload []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: payload}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}
