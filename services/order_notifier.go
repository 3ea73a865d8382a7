package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"

	"stylefit/models"
)

// OrderNotifier announces premium order outcomes to downstream consumers.
type OrderNotifier interface {
	OrderUpdated(ctx context.Context, o *models.PremiumOrder) error
}

type snsPublisher interface {
	Publish(ctx context.Context, params *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

// SNSOrderNotifier publishes order events to an SNS topic.
type SNSOrderNotifier struct {
	sns      snsPublisher
	topicArn string
}

func NewSNSOrderNotifier(ctx context.Context, region, topicArn string) (*SNSOrderNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for SNS: %w", err)
	}
	return &SNSOrderNotifier{sns: awssns.NewFromConfig(cfg), topicArn: topicArn}, nil
}

func (n *SNSOrderNotifier) OrderUpdated(ctx context.Context, o *models.PremiumOrder) error {
	raw, err := json.Marshal(map[string]any{
		"kind":  "premium.order." + string(o.Status),
		"order": o,
	})
	if err != nil {
		return err
	}
	_, err = n.sns.Publish(ctx, &awssns.PublishInput{
		TopicArn: aws.String(n.topicArn),
		Message:  aws.String(string(raw)),
		Subject:  aws.String("StyleFit premium order"),
	})
	if err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}
