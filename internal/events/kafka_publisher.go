// Package events publishes operation lifecycle notifications to Kafka.
// Publication is best-effort and at-least-once: it is never transactional
// and a publish failure never affects the Queue call that triggered it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/durablequeue/lro/internal/lro"
)

// Topic is the Kafka topic operation lifecycle events are published to.
const Topic = "lro-operation-events"

// KafkaPublisher implements lro.EventPublisher over franz-go. Unlike a
// transactional producer, it makes no exactly-once claim: a record that is
// produced but whose ack is lost may be retried by the caller's retry
// policy, and duplicates are possible downstream.
type KafkaPublisher struct {
	client *kgo.Client
}

// NewKafkaPublisher constructs a publisher seeded with brokers and ensures
// Topic exists, falling back to a single-partition topic if the preferred
// partition count cannot be created.
func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}

	kotelTracer := kotel.NewTracer(kotel.TracerProvider(otel.GetTracerProvider()))
	kotelService := kotel.NewKotel(kotel.WithTracer(kotelTracer))

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1_000_000),
		kgo.WithHooks(kotelService.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}

	ctx := context.Background()
	if err := createTopicIfNotExists(ctx, client, Topic, 6, 1); err != nil {
		slog.Warn("failed to create operation events topic with preferred partition count, retrying with a single partition",
			slog.String("topic", Topic), slog.Any("error", err))
		if err := createTopicIfNotExists(ctx, client, Topic, 1, 1); err != nil {
			slog.Warn("failed to create operation events topic, it may already exist",
				slog.String("topic", Topic), slog.Any("error", err))
		}
	}

	return &KafkaPublisher{client: client}, nil
}

// Publish produces evt to Topic, keyed by operation id so all events for one
// operation land on the same partition and preserve relative order.
func (p *KafkaPublisher) Publish(ctx context.Context, evt lro.OperationEvent) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal operation event: %w", err)
	}

	record := &kgo.Record{
		Topic: Topic,
		Key:   []byte(evt.OperationID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "queue", Value: []byte(evt.Queue)},
			{Key: "event", Value: []byte(evt.Event)},
		},
	}

	result := p.client.ProduceSync(ctx, record)
	return result.FirstErr()
}

// Close releases the underlying Kafka client.
func (p *KafkaPublisher) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}

func createTopicIfNotExists(ctx context.Context, client *kgo.Client, topic string, partitions int32, replicationFactor int16) error {
	req := kmsg.NewCreateTopicsRequest()
	req.TimeoutMillis = 30000

	topicReq := kmsg.NewCreateTopicsRequestTopic()
	topicReq.Topic = topic
	topicReq.NumPartitions = partitions
	topicReq.ReplicationFactor = replicationFactor
	req.Topics = append(req.Topics, topicReq)

	resp, err := client.Request(ctx, &req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	createTopicsResp, ok := resp.(*kmsg.CreateTopicsResponse)
	if !ok {
		return fmt.Errorf("unexpected response type: %T", resp)
	}

	for _, topicResp := range createTopicsResp.Topics {
		if topicResp.ErrorCode != 0 {
			if topicResp.ErrorCode == 36 { // TOPIC_ALREADY_EXISTS
				slog.Info("operation events topic already exists", slog.String("topic", topicResp.Topic))
				return nil
			}
			errorMsg := ""
			if topicResp.ErrorMessage != nil {
				errorMsg = *topicResp.ErrorMessage
			}
			return fmt.Errorf("create topic error: %s (code %d)", errorMsg, topicResp.ErrorCode)
		}
		slog.Info("operation events topic ready",
			slog.String("topic", topicResp.Topic),
			slog.Int("partitions", int(partitions)))
	}

	return nil
}
