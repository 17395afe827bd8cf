// Package publisher ships audit events to Kafka so downstream consumers
// (analytics, alerting) see registration lifecycle facts without touching the
// service's database.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "castingbase/pkg/platform/audit"
)

// Kafka publishes audit events to a single topic, keyed by identity id so
// per-identity ordering survives partitioning.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects to the brokers and ensures the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	adm := kadm.NewClient(client)
	resps, err := adm.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create audit topic: %w", err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create audit topic %s: %w", resp.Topic, resp.Err)
		}
	}

	return &Kafka{client: client, topic: topic}, nil
}

// Publish writes one event synchronously. Callers (the audit worker) treat
// failures as log-and-continue.
func (p *Kafka) Publish(ctx context.Context, event audit.Event) error {
	wire := wireEvent{
		Action:     string(event.Action),
		Timestamp:  event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		IdentityID: event.IdentityID.String(),
		Variant:    event.Variant,
		RequestID:  event.RequestID,
		Device:     event.Device,
		Detail:     event.Detail,
	}
	if event.ProductionID != uuid.Nil {
		wire.ProductionID = event.ProductionID.String()
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.IdentityID.String()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the Kafka client.
func (p *Kafka) Close() {
	p.client.Close()
}

type wireEvent struct {
	Action       string `json:"action"`
	Timestamp    string `json:"timestamp"`
	IdentityID   string `json:"identity_id"`
	ProductionID string `json:"production_id,omitempty"`
	Variant      string `json:"variant,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
	Device       string `json:"device,omitempty"`
	Detail       string `json:"detail,omitempty"`
}
