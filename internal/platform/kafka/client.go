// Package kafka builds the franz-go client used by the event publisher.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"crtracker/internal/platform/config"
)

// New connects to the configured brokers, or returns (nil, nil) when Kafka is
// not configured. The connection is verified before returning.
func New(cfg config.KafkaConfig) (*kgo.Client, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := client.Ping(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping: %w", err)
	}
	return client, nil
}
