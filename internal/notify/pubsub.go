package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
)

// PubSubDispatcher publishes notification payloads to a Google Cloud
// Pub/Sub topic. The e-mail sender subscribed to the topic performs the
// actual delivery; from this service's perspective a confirmed publish is
// a successful dispatch.
type PubSubDispatcher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

type notificationMessage struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients"`
}

// NewPubSubDispatcher creates a Pub/Sub client and verifies the topic
// exists. Authentication uses Application Default Credentials.
func NewPubSubDispatcher(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubDispatcher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after missing topic", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}

	return &PubSubDispatcher{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// Send publishes one notification message and waits for the server ack so
// that dispatch failures are observable to the caller.
func (d *PubSubDispatcher) Send(ctx context.Context, subject, body string, recipients []string) error {
	payload, err := json.Marshal(notificationMessage{
		Subject:    subject,
		Body:       body,
		Recipients: recipients,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	result := d.topic.Publish(ctx, &pubsub.Message{Data: payload})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close stops the topic publisher and closes the client connection.
func (d *PubSubDispatcher) Close() error {
	d.topic.Stop()
	if err := d.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
