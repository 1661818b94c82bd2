// Package publish forwards stored sensor readings to a Pub/Sub topic so other
// farm systems (irrigation controllers, alerting) can react to them.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub/v2"
	"github.com/NissesSenap/agri-dashboard/internal/auth"
	"github.com/NissesSenap/agri-dashboard/internal/storage"
	"go.uber.org/zap"
)

// Topic is the part of a Pub/Sub publisher used here; it returns the server message ID
type Topic interface {
	Publish(ctx context.Context, msg *pubsub.Message) (string, error)
	Stop()
}

// Publisher publishes readings as JSON messages
type Publisher struct {
	topic  Topic
	client *pubsub.Client
	log    *zap.Logger
	policy retryPolicy
}

// New connects to Pub/Sub and publishes to topicID in projectID, creating the topic if needed.
// topicID may be a bare ID or a full resource name.
func New(ctx context.Context, projectID, topicID string, log *zap.Logger) (*Publisher, error) {
	client, err := auth.NewPubSubClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client for project %s: %w", projectID, err)
	}

	p := NewWithTopic(pubsubTopic{client.Publisher(resourceName(topicID))}, log)
	p.client = client

	created, err := ensureTopic(ctx, client.TopicAdminClient, p.policy, projectID, topicID)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	if created {
		p.log.Info("created topic", zap.String("topic", topicPath(projectID, topicID)))
	}
	return p, nil
}

// NewWithTopic builds a Publisher on an existing topic
func NewWithTopic(topic Topic, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		topic:  topic,
		log:    log,
		policy: defaultRetryPolicy,
	}
}

// Publish sends the reading and waits for the server to acknowledge it
func (p *Publisher) Publish(ctx context.Context, reading *storage.Reading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to encode reading %d: %w", reading.ID, err)
	}

	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"reading_id": strconv.FormatInt(reading.ID, 10),
			"source":     "agri-dashboard",
		},
	}

	return retryWithBackoff(ctx, p.policy, func() error {
		id, err := p.topic.Publish(ctx, msg)
		if err != nil {
			return err
		}
		p.log.Debug("published reading", zap.Int64("reading_id", reading.ID), zap.String("message_id", id))
		return nil
	})
}

// Close flushes pending messages and closes the client
func (p *Publisher) Close() error {
	p.topic.Stop()
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// pubsubTopic adapts *pubsub.Publisher to Topic
type pubsubTopic struct {
	publisher *pubsub.Publisher
}

func (t pubsubTopic) Publish(ctx context.Context, msg *pubsub.Message) (string, error) {
	return t.publisher.Publish(ctx, msg).Get(ctx)
}

func (t pubsubTopic) Stop() {
	t.publisher.Stop()
}
