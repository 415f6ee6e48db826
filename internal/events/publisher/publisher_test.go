package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crtracker/internal/events"
	"crtracker/pkg/domain"
)

type recordedPublish struct {
	topic   string
	key     string
	payload []byte
}

// recordingSink captures publishes; fail makes every publish error.
type recordingSink struct {
	mu        sync.Mutex
	published []recordedPublish
	fail      bool
}

func (s *recordingSink) Publish(_ context.Context, topic string, key, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("broker unreachable")
	}
	s.published = append(s.published, recordedPublish{topic: topic, key: string(key), payload: payload})
	return nil
}

func (s *recordingSink) all() []recordedPublish {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedPublish(nil), s.published...)
}

type PublisherSuite struct {
	suite.Suite
	sink *recordingSink
	pub  *Publisher
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.sink = &recordingSink{}
	s.pub = New(s.sink, 16, slog.New(slog.DiscardHandler))
}

// drain delivers everything currently queued, synchronously.
func (s *PublisherSuite) drain() {
	for {
		select {
		case event := <-s.pub.queue:
			s.pub.deliver(context.Background(), event)
		default:
			return
		}
	}
}

func (s *PublisherSuite) TestTopicRouting() {
	reportID := domain.NewReportID()
	userID := domain.NewUserID()
	commentID := domain.NewCommentID()

	s.pub.Publish(events.NewReportCreated(reportID, userID, time.Now()))
	s.pub.Publish(events.NewReportSubmitted(reportID, userID))
	s.pub.Publish(events.NewReportValidated(reportID, userID, domain.NewUserID()))
	s.pub.Publish(events.NewReportMarkedSeen(reportID, userID))
	s.pub.Publish(events.NewReportUpdated(reportID, userID, domain.StatutDraft, domain.StatutDraft))
	s.pub.Publish(events.NewCommentAdded(commentID, reportID, userID))
	s.pub.Publish(events.NewUserCreated(userID, domain.RoleFidele))
	s.drain()

	published := s.sink.all()
	s.Require().Len(published, 7)

	for i := 0; i < 5; i++ {
		s.Equal(TopicReportEvents, published[i].topic)
		s.Equal(reportID.String(), published[i].key, "report events partition by report id")
	}
	s.Equal(TopicCommentEvents, published[5].topic)
	s.Equal(commentID.String(), published[5].key, "comment events partition by comment id")
	s.Equal(TopicUserEvents, published[6].topic)
	s.Equal(userID.String(), published[6].key)
}

func (s *PublisherSuite) TestEnvelope() {
	reportID := domain.NewReportID()
	userID := domain.NewUserID()
	event := events.NewReportUpdated(reportID, userID, domain.StatutDraft, domain.StatutSubmitted)

	s.pub.Publish(event)
	s.drain()

	published := s.sink.all()
	s.Require().Len(published, 1)

	var wire struct {
		Kind    events.Kind `json:"kind"`
		Payload struct {
			EventID   string `json:"eventId"`
			ReportID  string `json:"reportId"`
			OldStatus string `json:"oldStatus"`
			NewStatus string `json:"newStatus"`
		} `json:"payload"`
	}
	s.Require().NoError(json.Unmarshal(published[0].payload, &wire))
	s.Equal(events.KindReportUpdated, wire.Kind)
	s.Equal(event.EventID().String(), wire.Payload.EventID)
	s.Equal(reportID.String(), wire.Payload.ReportID)
	s.Equal("DRAFT", wire.Payload.OldStatus)
	s.Equal("SUBMITTED", wire.Payload.NewStatus)
}

// unknownEvent exercises the fallback path for kinds the router has never
// heard of.
type unknownEvent struct{ events.Base }

func (unknownEvent) Kind() events.Kind   { return events.Kind("mystery") }
func (unknownEvent) AggregateID() string { return "" }

func (s *PublisherSuite) TestUnknownKindFallsBackToReportTopic() {
	s.pub.Publish(unknownEvent{})
	s.drain()

	published := s.sink.all()
	s.Require().Len(published, 1)
	s.Equal(TopicReportEvents, published[0].topic)
	s.NotEmpty(published[0].key, "a fresh random key stands in when no aggregate id exists")
}

func (s *PublisherSuite) TestBrokerFailureIsSwallowed() {
	s.sink.fail = true

	// Publish never returns an error surface; the failure lives in logs and
	// counters only.
	s.pub.Publish(events.NewReportSubmitted(domain.NewReportID(), domain.NewUserID()))
	s.drain()

	s.Empty(s.sink.all())
}

func (s *PublisherSuite) TestFullQueueDropsInsteadOfBlocking() {
	small := New(s.sink, 1, slog.New(slog.DiscardHandler))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			small.Publish(events.NewReportSubmitted(domain.NewReportID(), domain.NewUserID()))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.Fail("Publish blocked on a full queue")
	}
}

func (s *PublisherSuite) TestRunStopsOnContextCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.pub.Run(ctx) }()

	s.pub.Publish(events.NewUserCreated(domain.NewUserID(), domain.RoleFD))

	s.Eventually(func() bool {
		return len(s.sink.all()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	s.ErrorIs(<-errCh, context.Canceled)
}
