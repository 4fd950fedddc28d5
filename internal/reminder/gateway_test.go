// internal/reminder/gateway_test.go
package reminder

import (
	"context"
	"errors"
	"testing"

	"docflow-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-msg-1")}, nil
}

type fakeSES struct {
	input *ses.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.input = input
	return &ses.SendEmailOutput{MessageId: aws.String("ses-msg-1")}, nil
}

// ==========================
// Messenger Tests
// ==========================

func TestSNSMessenger_Send(t *testing.T) {
	client := &fakeSNS{}
	m := NewSNSMessenger(client, "DocFlow")

	id, err := m.Send(context.Background(), OutboundMessage{Phone: "+15550001", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "sns-msg-1", id)

	require.NotNil(t, client.input)
	assert.Equal(t, "+15550001", aws.ToString(client.input.PhoneNumber))
	assert.Equal(t, "hello", aws.ToString(client.input.Message))

	attr, ok := client.input.MessageAttributes["AWS.SNS.SMS.SenderID"]
	require.True(t, ok)
	assert.Equal(t, "DocFlow", aws.ToString(attr.StringValue))
}

func TestSNSMessenger_NoSenderIDAttribute(t *testing.T) {
	client := &fakeSNS{}
	m := NewSNSMessenger(client, "")

	_, err := m.Send(context.Background(), OutboundMessage{Phone: "+15550001", Body: "hello"})
	require.NoError(t, err)
	assert.Empty(t, client.input.MessageAttributes)
}

func TestSNSMessenger_EmptyPhoneRejected(t *testing.T) {
	m := NewSNSMessenger(&fakeSNS{}, "")

	_, err := m.Send(context.Background(), OutboundMessage{Body: "hello"})
	assert.Error(t, err)
}

func TestSNSMessenger_PublishErrorPropagates(t *testing.T) {
	client := &fakeSNS{err: errors.New("throttled")}
	m := NewSNSMessenger(client, "")

	_, err := m.Send(context.Background(), OutboundMessage{Phone: "+15550001", Body: "hello"})
	assert.Error(t, err)
}

func TestSESMessenger_Send(t *testing.T) {
	client := &fakeSES{}
	m := NewSESMessenger(client, "noreply@docflow.example")

	id, err := m.Send(context.Background(), OutboundMessage{Email: "dana@example.com", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ses-msg-1", id)

	require.NotNil(t, client.input)
	assert.Equal(t, []string{"dana@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "noreply@docflow.example", aws.ToString(client.input.Source))
	assert.Equal(t, "hello", aws.ToString(client.input.Message.Body.Text.Data))
}

func TestSESMessenger_EmptyEmailRejected(t *testing.T) {
	m := NewSESMessenger(&fakeSES{}, "noreply@docflow.example")

	_, err := m.Send(context.Background(), OutboundMessage{Phone: "+15550001", Body: "hello"})
	assert.Error(t, err)
}

func TestDryRunMessenger_ReturnsSyntheticID(t *testing.T) {
	m := NewDryRunMessenger(logger.NewTestLogger(t))

	id1, err := m.Send(context.Background(), OutboundMessage{Phone: "+15550001", Body: "hello"})
	require.NoError(t, err)
	id2, err := m.Send(context.Background(), OutboundMessage{Phone: "+15550001", Body: "hello"})
	require.NoError(t, err)

	assert.NotEmpty(t, id1)
	assert.NotEqual(t, id1, id2)
}
