package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadher/threadher/internal/storage"
)

type fakeDynamo struct {
	items     map[string]map[string]dbtypes.AttributeValue
	putErr    error
	created   []*dynamodb.CreateTableInput
	existing  map[string]bool
	createErr error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]dbtypes.AttributeValue{}, existing: map[string]bool{}}
}

func (f *fakeDynamo) key(table string, av dbtypes.AttributeValue) string {
	return table + "|" + av.(*dbtypes.AttributeValueMemberS).Value
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	// tests always key on "id"
	f.items[f.key(*in.TableName, in.Item["id"])] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[f.key(*in.TableName, in.Key["id"])]}, nil
}

func (f *fakeDynamo) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.existing[*in.TableName] {
		return nil, &dbtypes.ResourceInUseException{Message: aws.String("exists")}
	}
	f.created = append(f.created, in)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{Table: &dbtypes.TableDescription{
		TableName:   in.TableName,
		TableStatus: dbtypes.TableStatusActive,
	}}, nil
}

func TestResultStore_PutGet(t *testing.T) {
	fake := newFakeDynamo()
	store := NewResultStore(fake)
	ctx := context.Background()

	rec := storage.Record{Table: "Calc", KeyAttr: "id", ID: "c1", Item: map[string]any{
		"sustainability_score": 75.5,
		"garment_type":         "jeans",
		"nested":               map[string]any{"k": "v"},
	}}
	require.NoError(t, store.Put(ctx, rec))

	stored := fake.items["Calc|c1"]
	require.NotNil(t, stored)
	assert.Equal(t, "c1", stored["id"].(*dbtypes.AttributeValueMemberS).Value)
	assert.Equal(t, "75.5", stored["sustainability_score"].(*dbtypes.AttributeValueMemberN).Value)

	item, err := store.Get(ctx, "Calc", "id", "c1")
	require.NoError(t, err)
	assert.Equal(t, "jeans", item["garment_type"])
	assert.Equal(t, 75.5, item["sustainability_score"])
	assert.Equal(t, map[string]any{"k": "v"}, item["nested"])
}

func TestResultStore_GetMissing(t *testing.T) {
	_, err := NewResultStore(newFakeDynamo()).Get(context.Background(), "Calc", "id", "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResultStore_PutError(t *testing.T) {
	fake := newFakeDynamo()
	fake.putErr = errors.New("ProvisionedThroughputExceededException")
	err := NewResultStore(fake).Put(context.Background(), storage.Record{Table: "Calc", KeyAttr: "id", ID: "c1", Item: map[string]any{}})
	assert.ErrorContains(t, err, "ProvisionedThroughputExceededException")
}

func TestCreateTables(t *testing.T) {
	fake := newFakeDynamo()
	fake.existing["Scores"] = true

	specs := []TableSpec{
		{Name: "Garments", HashKey: "garment_id", Indexes: []IndexSpec{{Name: "UserIdIndex", HashKey: "user_id"}}},
		{Name: "Scores", HashKey: "score_id"},
		{Name: "Wardrobe", HashKey: "user_id", RangeKey: "garment_id"},
	}
	results, err := CreateTables(context.Background(), fake, specs, 0)
	require.NoError(t, err)

	assert.Equal(t, []TableResult{
		{Name: "Garments", Created: true},
		{Name: "Scores", Skipped: true},
		{Name: "Wardrobe", Created: true},
	}, results)

	require.Len(t, fake.created, 2)
	garments := fake.created[0]
	assert.Len(t, garments.AttributeDefinitions, 2)
	require.Len(t, garments.GlobalSecondaryIndexes, 1)
	assert.Equal(t, "UserIdIndex", *garments.GlobalSecondaryIndexes[0].IndexName)
	assert.EqualValues(t, 5, *garments.ProvisionedThroughput.ReadCapacityUnits)

	wardrobe := fake.created[1]
	require.Len(t, wardrobe.KeySchema, 2)
	assert.Equal(t, dbtypes.KeyTypeRange, wardrobe.KeySchema[1].KeyType)
}

func TestCreateTables_Error(t *testing.T) {
	fake := newFakeDynamo()
	fake.createErr = errors.New("AccessDenied")
	_, err := CreateTables(context.Background(), fake, []TableSpec{{Name: "X", HashKey: "id"}}, 0)
	assert.ErrorContains(t, err, "AccessDenied")
}
