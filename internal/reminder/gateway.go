// internal/reminder/gateway.go
package reminder

import (
	"context"
	"fmt"

	commonaws "docflow-workers/internal/common/aws"
	"docflow-workers/internal/common/config"
	"docflow-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

// OutboundMessage is one rendered reminder ready for delivery. Which handle
// is used depends on the configured channel.
type OutboundMessage struct {
	Phone string
	Email string
	Body  string
}

// Messenger is the messaging-gateway contract: deliver one message and
// report the provider's message id. Implementations must not retry.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) (providerMessageID string, err error)
}

// SNSAPI matches the common/aws SNS wrapper for mocking.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SESAPI matches the common/aws SES wrapper for mocking.
type SESAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SNSMessenger delivers reminders as SMS through AWS SNS.
type SNSMessenger struct {
	client   SNSAPI
	senderID string
}

func NewSNSMessenger(client SNSAPI, senderID string) *SNSMessenger {
	return &SNSMessenger{client: client, senderID: senderID}
}

func (m *SNSMessenger) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if msg.Phone == "" {
		return "", fmt.Errorf("sns messenger: recipient phone is empty")
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(msg.Phone),
		Message:     aws.String(msg.Body),
	}
	if m.senderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(m.senderID),
			},
		}
	}

	out, err := m.client.Publish(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

// SESMessenger delivers reminders by email for tenants whose chat channel is
// backed by an email bridge.
type SESMessenger struct {
	client    SESAPI
	fromEmail string
}

func NewSESMessenger(client SESAPI, fromEmail string) *SESMessenger {
	return &SESMessenger{client: client, fromEmail: fromEmail}
}

func (m *SESMessenger) Send(ctx context.Context, msg OutboundMessage) (string, error) {
	if msg.Email == "" {
		return "", fmt.Errorf("ses messenger: recipient email is empty")
	}

	out, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{msg.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String("Documents required")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(msg.Body)},
			},
		},
		Source: aws.String(m.fromEmail),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}

// DryRunMessenger logs instead of sending. Used in development environments
// so batch pacing can be exercised without touching the real channel.
type DryRunMessenger struct {
	logger logger.Logger
}

func NewDryRunMessenger(log logger.Logger) *DryRunMessenger {
	return &DryRunMessenger{logger: log}
}

func (m *DryRunMessenger) Send(_ context.Context, msg OutboundMessage) (string, error) {
	id := uuid.New().String()
	m.logger.Info("dry-run send", map[string]interface{}{
		"phone":             msg.Phone,
		"body":              msg.Body,
		"providerMessageId": id,
	})
	return id, nil
}

// NewMessengerFromConfig builds the Messenger selected by messaging.channel.
func NewMessengerFromConfig(ctx context.Context, cfg config.MessagingConfig, log logger.Logger) (Messenger, error) {
	switch cfg.Channel {
	case "sms":
		client, err := commonaws.NewSNSClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("init sns client: %w", err)
		}
		return NewSNSMessenger(client, cfg.SenderID), nil
	case "email":
		client, err := commonaws.NewSESClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("init ses client: %w", err)
		}
		return NewSESMessenger(client, cfg.FromEmail), nil
	case "dry_run":
		return NewDryRunMessenger(log), nil
	default:
		return nil, fmt.Errorf("unknown messaging channel: %s", cfg.Channel)
	}
}
