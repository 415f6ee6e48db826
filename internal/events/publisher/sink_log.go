package publisher

import (
	"context"
	"log/slog"
)

// LogSink writes events to the logger instead of a broker. Used when Kafka is
// not configured, so dev runs still show the event stream.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(_ context.Context, topic string, key, payload []byte) error {
	s.logger.Debug("event", "topic", topic, "key", string(key), "payload", string(payload))
	return nil
}
