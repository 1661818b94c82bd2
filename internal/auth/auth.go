package auth

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
)

// NewPubSubClient creates a Pub/Sub client using Application Default Credentials
// Users must run: gcloud auth application-default login
// or point GOOGLE_APPLICATION_CREDENTIALS at a service account key on the field gateway.
func NewPubSubClient(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id is required")
	}
	// Uses Application Default Credentials automatically
	return pubsub.NewClient(ctx, projectID)
}
