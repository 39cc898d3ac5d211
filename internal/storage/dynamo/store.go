// Package dynamo implements storage.ResultStore on DynamoDB.
package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/threadher/threadher/internal/storage"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// ResultStore writes each Record as one item in the DynamoDB table named by
// Record.Table.
type ResultStore struct {
	client API
}

// NewResultStore wraps an existing DynamoDB client.
func NewResultStore(client API) *ResultStore {
	return &ResultStore{client: client}
}

// NewFromConfig builds a ResultStore from an AWS config.
func NewFromConfig(cfg aws.Config) *ResultStore {
	return NewResultStore(dynamodb.NewFromConfig(cfg))
}

// Put writes rec with PutItem, replacing any item with the same key.
func (s *ResultStore) Put(ctx context.Context, rec storage.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(rec.Item)
	if err != nil {
		return fmt.Errorf("dynamo: failed to marshal %s/%s: %w", rec.Table, rec.ID, err)
	}
	av[rec.KeyAttr] = &dbtypes.AttributeValueMemberS{Value: rec.ID}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(rec.Table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("dynamo: failed to put %s/%s: %w", rec.Table, rec.ID, err)
	}
	return nil
}

// Get reads one item by its string hash key.
func (s *ResultStore) Get(ctx context.Context, table, keyAttr, id string) (map[string]any, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]dbtypes.AttributeValue{
			keyAttr: &dbtypes.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		var rnf *dbtypes.ResourceNotFoundException
		if errors.As(err, &rnf) {
			return nil, fmt.Errorf("dynamo: table %s: %w", table, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("dynamo: failed to get %s/%s: %w", table, id, err)
	}
	if len(out.Item) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", table, id, storage.ErrNotFound)
	}

	var item map[string]any
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("dynamo: failed to unmarshal %s/%s: %w", table, id, err)
	}
	return item, nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *ResultStore) Close() error { return nil }

var _ storage.ResultStore = (*ResultStore)(nil)
