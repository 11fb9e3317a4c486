package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier publishes a completion notice for each stored package.
type SQSNotifier struct {
	client   sqsAPI
	queueURL string
}

var _ narrative.PackageSink = (*SQSNotifier)(nil)

func NewSQSNotifier(client sqsAPI, queueURL string) *SQSNotifier {
	if client == nil {
		panic("archive: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("archive: SQS queueURL cannot be empty")
	}
	return &SQSNotifier{client: client, queueURL: queueURL}
}

func (n *SQSNotifier) Persist(ctx context.Context, record narrative.PackageRecord) error {
	body, err := json.Marshal(Notice{
		SessionID:    record.SessionID,
		FinalizedAt:  record.FinalizedAt,
		Judgment:     record.Judgment,
		SelectedSlot: record.SelectedSlot,
		Adaptations:  len(record.Adaptations),
	})
	if err != nil {
		return fmt.Errorf("archive: failed to marshal notice: %w", err)
	}
	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String("package_persisted")},
		},
	})
	if err != nil {
		return fmt.Errorf("archive: failed to send SQS notice: %w", err)
	}
	return nil
}
