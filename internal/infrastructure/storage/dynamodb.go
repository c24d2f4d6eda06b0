package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/domain/record"
	"github.com/absarburney3/aws-healthcare-disaster-recovery/internal/service/pipeline"
)

// DynamoDBClient is the subset of the DynamoDB API the store uses.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// NewDynamoDBClient builds a DynamoDB client, optionally pointed at a
// local endpoint override.
func NewDynamoDBClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	if endpoint == "" {
		return dynamodb.NewFromConfig(cfg)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// DynamoDBStore persists enriched records keyed by PatientID. Writes
// are unconditional puts, so a repeated PatientID overwrites the
// previous record.
type DynamoDBStore struct {
	client DynamoDBClient
	table  string
	logger *zap.Logger
}

var _ pipeline.PrimaryStore = (*DynamoDBStore)(nil)

func NewDynamoDBStore(client DynamoDBClient, table string, logger *zap.Logger) *DynamoDBStore {
	return &DynamoDBStore{
		client: client,
		table:  table,
		logger: logger,
	}
}

// Put writes the full enriched record as a single item.
func (s *DynamoDBStore) Put(ctx context.Context, patientID string, rec *record.Enriched) error {
	m, ok := convertNumbers(rec.ToMap()).(map[string]any)
	if !ok {
		return fmt.Errorf("record for %s is not a mapping", patientID)
	}

	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshaling record for %s: %w", patientID, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("putting record %s: %w", patientID, err)
	}

	s.logger.Debug("stored primary record",
		zap.String("patient_id", patientID),
		zap.String("table", s.table),
	)
	return nil
}

// Ping verifies the table is reachable.
func (s *DynamoDBStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return fmt.Errorf("describing table %s: %w", s.table, err)
	}
	return nil
}

// convertNumbers rewrites json.Number values into attributevalue.Number
// so they are stored as DynamoDB number attributes instead of strings,
// without losing precision along the way.
func convertNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		return attributevalue.Number(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = convertNumbers(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = convertNumbers(inner)
		}
		return out
	default:
		return v
	}
}
