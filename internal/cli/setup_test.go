package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadher/threadher/internal/config"
	"github.com/threadher/threadher/internal/storage/dynamo"
)

type fakeAdmin struct {
	existing map[string]bool
	created  []*dynamodb.CreateTableInput
}

func (f *fakeAdmin) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if f.existing[*in.TableName] {
		return nil, &dbtypes.ResourceInUseException{Message: in.TableName}
	}
	f.created = append(f.created, in)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeAdmin) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return nil, errors.New("not used")
}

func useAdmin(t *testing.T, admin dynamo.AdminAPI, err error) {
	t.Helper()
	orig := newTableAdmin
	newTableAdmin = func(context.Context, *config.Config) (dynamo.AdminAPI, error) { return admin, err }
	t.Cleanup(func() { newTableAdmin = orig })
}

func TestTableSpecs(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{
		GarmentsTable:        "G",
		CalculationsTable:    "C",
		CircularOptionsTable: "O",
	}}
	specs := TableSpecs(cfg)
	require.Len(t, specs, 4)

	assert.Equal(t, dynamo.TableSpec{
		Name:    "G",
		HashKey: "garment_id",
		Indexes: []dynamo.IndexSpec{{Name: "UserIdIndex", HashKey: "user_id"}},
	}, specs[0])
	assert.Equal(t, dynamo.TableSpec{Name: "C", HashKey: "calculation_id"}, specs[1])
	assert.Equal(t, dynamo.TableSpec{Name: "O", HashKey: "option_id"}, specs[2])
	assert.Equal(t, dynamo.TableSpec{Name: "Wardrobe", HashKey: "user_id", RangeKey: "garment_id"}, specs[3])
}

func TestSetup_CreatesAndSkips(t *testing.T) {
	localEnv(t, config.EngineMemory)
	admin := &fakeAdmin{existing: map[string]bool{"ThreadHerCalculations": true}}
	useAdmin(t, admin, nil)

	var out bytes.Buffer
	require.NoError(t, runSetup(context.Background(), &out, 0))

	require.Len(t, admin.created, 3)
	assert.Equal(t, "ThreadHerGarments", *admin.created[0].TableName)
	assert.Contains(t, out.String(), "ThreadHerCalculations")
	assert.Contains(t, out.String(), "already exists")
	assert.Contains(t, out.String(), "Setup complete.")
}

func TestSetup_ClientError(t *testing.T) {
	localEnv(t, config.EngineMemory)
	useAdmin(t, nil, errors.New("no credentials"))

	err := runSetup(context.Background(), &bytes.Buffer{}, 0)
	assert.ErrorContains(t, err, "no credentials")
}
