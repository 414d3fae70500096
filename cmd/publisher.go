package cmd

import (
	"context"
	"fmt"

	gpubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/config"
	"github.com/edtools/canvas-crawler/internal/crawler"
	"github.com/edtools/canvas-crawler/internal/publisher/pubsub"
)

// buildPublisher connects to Pub/Sub when a topic is configured. It returns a
// nil publisher when publishing is disabled.
func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (crawler.Publisher, func(), error) {
	if cfg.PubSub.TopicName == "" {
		return nil, nil, nil
	}

	client, err := gpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("init pubsub client: %w", err)
	}
	topic := client.Topic(cfg.PubSub.TopicName)
	pub := pubsub.New(topic)

	logger.Info("artifact events enabled",
		zap.String("project_id", cfg.PubSub.ProjectID),
		zap.String("topic", cfg.PubSub.TopicName),
	)

	cleanup := func() {
		pub.Stop()
		if err := client.Close(); err != nil {
			logger.Warn("close pubsub client failed", zap.Error(err))
		}
	}
	return pub, cleanup, nil
}
