package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// AdminAPI is the subset of the DynamoDB client used for provisioning.
type AdminAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// IndexSpec describes a global secondary index keyed by a string attribute.
type IndexSpec struct {
	Name    string
	HashKey string
}

// TableSpec describes a table with string keys.
type TableSpec struct {
	Name     string
	HashKey  string
	RangeKey string
	Indexes  []IndexSpec
}

// TableResult reports what CreateTables did for one table.
type TableResult struct {
	Name    string `json:"name"`
	Created bool   `json:"created"`
	Skipped bool   `json:"skipped"`
}

// defaultCapacity is the read and write capacity of every table and index.
const defaultCapacity int64 = 5

// CreateTables creates each table in specs. Tables that already exist are
// skipped. When wait is positive, each new table is awaited until ACTIVE.
func CreateTables(ctx context.Context, client AdminAPI, specs []TableSpec, wait time.Duration) ([]TableResult, error) {
	results := make([]TableResult, 0, len(specs))
	for _, spec := range specs {
		_, err := client.CreateTable(ctx, createTableInput(spec))
		if err != nil {
			var inUse *dbtypes.ResourceInUseException
			if errors.As(err, &inUse) {
				log.Printf("dynamo: table %s already exists", spec.Name)
				results = append(results, TableResult{Name: spec.Name, Skipped: true})
				continue
			}
			return results, fmt.Errorf("dynamo: failed to create table %s: %w", spec.Name, err)
		}

		if wait > 0 {
			waiter := dynamodb.NewTableExistsWaiter(client)
			if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(spec.Name)}, wait); err != nil {
				return results, fmt.Errorf("dynamo: table %s did not become active: %w", spec.Name, err)
			}
		}
		log.Printf("dynamo: created table %s", spec.Name)
		results = append(results, TableResult{Name: spec.Name, Created: true})
	}
	return results, nil
}

func createTableInput(spec TableSpec) *dynamodb.CreateTableInput {
	throughput := &dbtypes.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(defaultCapacity),
		WriteCapacityUnits: aws.Int64(defaultCapacity),
	}

	attrs := map[string]bool{spec.HashKey: true}
	keys := []dbtypes.KeySchemaElement{
		{AttributeName: aws.String(spec.HashKey), KeyType: dbtypes.KeyTypeHash},
	}
	if spec.RangeKey != "" {
		attrs[spec.RangeKey] = true
		keys = append(keys, dbtypes.KeySchemaElement{AttributeName: aws.String(spec.RangeKey), KeyType: dbtypes.KeyTypeRange})
	}

	var indexes []dbtypes.GlobalSecondaryIndex
	for _, idx := range spec.Indexes {
		attrs[idx.HashKey] = true
		indexes = append(indexes, dbtypes.GlobalSecondaryIndex{
			IndexName: aws.String(idx.Name),
			KeySchema: []dbtypes.KeySchemaElement{
				{AttributeName: aws.String(idx.HashKey), KeyType: dbtypes.KeyTypeHash},
			},
			Projection:            &dbtypes.Projection{ProjectionType: dbtypes.ProjectionTypeAll},
			ProvisionedThroughput: throughput,
		})
	}

	// Attribute definitions in key order for stable requests.
	var defs []dbtypes.AttributeDefinition
	seen := map[string]bool{}
	add := func(name string) {
		if name == "" || seen[name] || !attrs[name] {
			return
		}
		seen[name] = true
		defs = append(defs, dbtypes.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: dbtypes.ScalarAttributeTypeS,
		})
	}
	add(spec.HashKey)
	add(spec.RangeKey)
	for _, idx := range spec.Indexes {
		add(idx.HashKey)
	}

	return &dynamodb.CreateTableInput{
		TableName:              aws.String(spec.Name),
		KeySchema:              keys,
		AttributeDefinitions:   defs,
		GlobalSecondaryIndexes: indexes,
		ProvisionedThroughput:  throughput,
	}
}
