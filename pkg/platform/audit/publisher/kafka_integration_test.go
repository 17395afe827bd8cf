//go:build integration

package publisher_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "castingbase/pkg/platform/audit"
	"castingbase/pkg/platform/audit/publisher"
	"castingbase/pkg/testutil/containers"
)

type KafkaPublisherSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaPublisherSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaPublisherSuite))
}

func (s *KafkaPublisherSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *KafkaPublisherSuite) newPublisher(ctx context.Context, topic string) *publisher.Kafka {
	p, err := publisher.NewKafka(ctx, []string{s.redpanda.Broker}, topic)
	s.Require().NoError(err)
	s.T().Cleanup(p.Close)
	return p
}

func (s *KafkaPublisherSuite) consumeOne(ctx context.Context, topic string) *kgo.Record {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	deadline, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	fetches := client.PollFetches(deadline)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().NotEmpty(records)
	return records[0]
}

func (s *KafkaPublisherSuite) TestPublishRoundTrip() {
	ctx := context.Background()
	topic := "castingbase.audit." + uuid.NewString()
	p := s.newPublisher(ctx, topic)

	identityID := uuid.New()
	productionID := uuid.New()
	event := audit.Event{
		Action:       audit.ActionIdentitySpecialized,
		Timestamp:    time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
		IdentityID:   identityID,
		ProductionID: productionID,
		Variant:      "producer",
		RequestID:    "req-1",
	}
	s.Require().NoError(p.Publish(ctx, event))

	record := s.consumeOne(ctx, topic)
	s.Equal(identityID.String(), string(record.Key))

	var wire map[string]any
	s.Require().NoError(json.Unmarshal(record.Value, &wire))
	s.Equal("identity_specialized", wire["action"])
	s.Equal("2026-03-14T09:26:53.589Z", wire["timestamp"])
	s.Equal(identityID.String(), wire["identity_id"])
	s.Equal(productionID.String(), wire["production_id"])
	s.Equal("producer", wire["variant"])
	s.Equal("req-1", wire["request_id"])
	s.NotContains(wire, "device")
	s.NotContains(wire, "detail")
}

func (s *KafkaPublisherSuite) TestNilProductionOmitted() {
	ctx := context.Background()
	topic := "castingbase.audit." + uuid.NewString()
	p := s.newPublisher(ctx, topic)

	s.Require().NoError(p.Publish(ctx, audit.Event{
		Action:     audit.ActionIdentityRegistered,
		Timestamp:  time.Now(),
		IdentityID: uuid.New(),
	}))

	record := s.consumeOne(ctx, topic)

	var wire map[string]any
	s.Require().NoError(json.Unmarshal(record.Value, &wire))
	s.NotContains(wire, "production_id")
}

// NewKafka is called on every boot; creating an existing topic must not fail.
func (s *KafkaPublisherSuite) TestTopicCreationIsIdempotent() {
	ctx := context.Background()
	topic := "castingbase.audit." + uuid.NewString()

	first := s.newPublisher(ctx, topic)
	second := s.newPublisher(ctx, topic)
	_ = first
	_ = second
}
