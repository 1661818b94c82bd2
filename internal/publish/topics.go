package publish

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TopicAdmin is the part of the Pub/Sub topic admin client needed to provision a topic
type TopicAdmin interface {
	GetTopic(ctx context.Context, req *pubsubpb.GetTopicRequest, opts ...gax.CallOption) (*pubsubpb.Topic, error)
	CreateTopic(ctx context.Context, req *pubsubpb.Topic, opts ...gax.CallOption) (*pubsubpb.Topic, error)
}

// ensureTopic makes sure the topic exists, creating it when missing.
// It reports whether the topic was created. Transient errors are retried
// as a whole so a lookup and a create never straddle two attempts.
func ensureTopic(ctx context.Context, admin TopicAdmin, policy retryPolicy, projectID, topicID string) (bool, error) {
	name := topicPath(projectID, topicID)
	created := false

	err := retryWithBackoff(ctx, policy, func() error {
		_, err := admin.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
		if err == nil {
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		_, err = admin.CreateTopic(ctx, &pubsubpb.Topic{Name: name})
		switch status.Code(err) {
		case codes.OK:
			created = true
			return nil
		case codes.AlreadyExists:
			// Someone else created it between the lookup and the create
			return nil
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to ensure topic %s: %w", name, err)
	}
	return created, nil
}

// topicPath returns the full resource name of a topic
func topicPath(projectID, topicID string) string {
	return fmt.Sprintf("projects/%s/topics/%s", projectID, resourceName(topicID))
}

// resourceName extracts the resource name from a full resource path.
// It returns the last non-empty segment, so both "sensor-readings" and
// "projects/farm/topics/sensor-readings" give "sensor-readings".
func resourceName(fullPath string) string {
	if fullPath == "" {
		return ""
	}

	parts := strings.Split(fullPath, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			return parts[i]
		}
	}
	return ""
}
