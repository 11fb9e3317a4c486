package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/miz-art/Micro-narrativesxHarms-June25/pkg/logging"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoSink stores one package item per session, keyed by session_id.
type DynamoSink struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ narrative.PackageSink = (*DynamoSink)(nil)

func NewDynamoSink(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoSink {
	if client == nil {
		panic("archive: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("archive: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoSink{client: client, tableName: tableName, logger: logger}
}

// Persist writes the package once. An item that already exists counts as
// persisted, so retries after a lost acknowledgement are harmless.
func (s *DynamoSink) Persist(ctx context.Context, record narrative.PackageRecord) error {
	if record.SessionID == "" {
		return narrative.ErrMissingSessionIdentity
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("archive: failed to marshal package: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(session_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			s.logger.ForSession(record.SessionID).Info("package already stored")
			return nil
		}
		return fmt.Errorf("archive: failed to persist package: %w", err)
	}
	return nil
}
