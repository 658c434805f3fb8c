package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-employee-api/internal/config"
	"github.com/go-employee-api/internal/domain"
	"github.com/samber/oops"
)

// RecipientAttribute carries the destination address for topic subscribers.
const RecipientAttribute = "recipient"

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier publishes mail to an SNS topic; a subscriber performs the actual delivery.
type Notifier struct {
	client   publisher
	topicARN string
}

func NewNotifier(ctx context.Context, cfg *config.Config) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, oops.Code("AWS_CONFIG_FAILED").With("service", "sns").Wrap(err)
	}
	var opts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		opts = append(opts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return newNotifier(sns.NewFromConfig(awsCfg, opts...), cfg.SNSTopicARN), nil
}

func newNotifier(client publisher, topicARN string) *Notifier {
	return &Notifier{client: client, topicARN: topicARN}
}

func (n *Notifier) Send(ctx context.Context, m domain.Mail) error {
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(m.Subject),
		Message:  aws.String(m.Message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			RecipientAttribute: {DataType: aws.String("String"), StringValue: aws.String(m.To)},
		},
	})
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("backend", "sns").
			With("to", m.To).
			Wrap(fmt.Errorf("%w: %w", domain.ErrNotificationFailed, err))
	}
	return nil
}

var _ domain.Notifier = (*Notifier)(nil)
