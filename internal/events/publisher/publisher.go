// Package publisher maps domain events to topics and hands them to the broker
// asynchronously. Publication is fire-and-forget from the caller's
// perspective: the triggering call completes once the store write succeeds,
// and a broker failure is logged, counted, and never surfaced or retried.
// There is no transactional outbox here; delivery is best-effort.
package publisher

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"crtracker/internal/events"
)

// Logical topics. Every defined event kind has an explicit mapping; the
// report topic doubles as the fallback for unrecognized kinds.
const (
	TopicReportEvents  = "cr.report.events"
	TopicCommentEvents = "cr.comment.events"
	TopicUserEvents    = "cr.user.events"
)

var (
	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crtracker_events_published_total",
		Help: "Domain events handed to the broker, by topic",
	}, []string{"topic"})
	eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crtracker_events_publish_failures_total",
		Help: "Domain events the broker rejected",
	})
	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crtracker_events_dropped_total",
		Help: "Domain events dropped because the outbound queue was full",
	})
)

// Sink is the broker client boundary; the Kafka implementation lives in
// sink_kafka.go and tests substitute a fake.
type Sink interface {
	Publish(ctx context.Context, topic string, key, payload []byte) error
}

// Publisher drains a bounded queue of domain events into the sink.
type Publisher struct {
	sink   Sink
	queue  chan events.Event
	logger *slog.Logger
}

// New builds a publisher with the given queue capacity.
func New(sink Sink, queueSize int, logger *slog.Logger) *Publisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Publisher{
		sink:   sink,
		queue:  make(chan events.Event, queueSize),
		logger: logger,
	}
}

// Publish enqueues the event without blocking. When the queue is full the
// event is dropped and counted; callers never wait on the broker.
func (p *Publisher) Publish(event events.Event) {
	select {
	case p.queue <- event:
	default:
		eventsDropped.Inc()
		p.logger.Warn("outbound event queue full, dropping event",
			"kind", event.Kind(), "event_id", event.EventID())
	}
}

// Run drains the queue until ctx is cancelled. Intended to run in its own
// goroutine for the lifetime of the process.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.queue:
			p.deliver(ctx, event)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event events.Event) {
	topic := p.topicFor(event)
	key := partitionKey(event)

	payload, err := json.Marshal(envelope(event))
	if err != nil {
		eventsFailed.Inc()
		p.logger.Error("event payload marshal failed",
			"kind", event.Kind(), "event_id", event.EventID(), "error", err)
		return
	}

	if err := p.sink.Publish(ctx, topic, key, payload); err != nil {
		eventsFailed.Inc()
		p.logger.Error("event publish failed",
			"kind", event.Kind(), "topic", topic, "event_id", event.EventID(), "error", err)
		return
	}
	eventsPublished.WithLabelValues(topic).Inc()
}

// topicFor maps each event kind to exactly one logical topic. Unrecognized
// kinds fall back to the report topic with a warning; an explicit fallback,
// not a failure.
func (p *Publisher) topicFor(event events.Event) string {
	switch event.Kind() {
	case events.KindReportCreated, events.KindReportSubmitted, events.KindReportValidated,
		events.KindReportMarkedSeen, events.KindReportUpdated:
		return TopicReportEvents
	case events.KindCommentAdded:
		return TopicCommentEvents
	case events.KindUserCreated:
		return TopicUserEvents
	default:
		p.logger.Warn("unrecognized event kind, routing to report topic",
			"kind", event.Kind(), "event_id", event.EventID())
		return TopicReportEvents
	}
}

// partitionKey orders events per aggregate. When no aggregate id is
// extractable a fresh random key is used, giving up ordering for that one
// event; unreachable for the defined kinds.
func partitionKey(event events.Event) []byte {
	if id := event.AggregateID(); id != "" {
		return []byte(id)
	}
	return []byte(uuid.NewString())
}

// wireEvent is the broker envelope; kind travels beside the payload so
// consumers can dispatch without sniffing fields.
type wireEvent struct {
	Kind    events.Kind  `json:"kind"`
	Payload events.Event `json:"payload"`
}

func envelope(event events.Event) wireEvent {
	return wireEvent{Kind: event.Kind(), Payload: event}
}
