package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/threadher/threadher/internal/carbon"
	"github.com/threadher/threadher/internal/circular"
	"github.com/threadher/threadher/internal/config"
	"github.com/threadher/threadher/internal/storage/dynamo"
	"github.com/threadher/threadher/internal/vision"
)

// WardrobeTable holds a user's saved garments, keyed by (user_id, garment_id).
const WardrobeTable = "Wardrobe"

// newTableAdmin builds the DynamoDB client used by setup. Tests replace it.
var newTableAdmin = func(ctx context.Context, cfg *config.Config) (dynamo.AdminAPI, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

// NewSetupCmd creates the 'setup' command for provisioning DynamoDB tables.
func NewSetupCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the DynamoDB tables ThreadHer writes to",
		Long: `Create the garments, calculations, circular-options and Wardrobe tables
using the names from THREADHER_*_TABLE. Tables that already exist are skipped.`,
		Example: `  threadher setup
  threadher setup --wait 2m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), cmd.OutOrStdout(), wait)
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait up to this long for each new table to become ACTIVE")

	return cmd
}

// TableSpecs lists the tables the runtime writes to under cfg's names.
func TableSpecs(cfg *config.Config) []dynamo.TableSpec {
	return []dynamo.TableSpec{
		{
			Name:    cfg.Storage.GarmentsTable,
			HashKey: vision.KeyAttr,
			Indexes: []dynamo.IndexSpec{{Name: "UserIdIndex", HashKey: "user_id"}},
		},
		{Name: cfg.Storage.CalculationsTable, HashKey: carbon.KeyAttr},
		{Name: cfg.Storage.CircularOptionsTable, HashKey: circular.KeyAttr},
		{Name: WardrobeTable, HashKey: "user_id", RangeKey: vision.KeyAttr},
	}
}

func runSetup(ctx context.Context, out io.Writer, wait time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client, err := newTableAdmin(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Creating tables in %s...\n", cfg.AWS.Region)
	results, err := dynamo.CreateTables(ctx, client, TableSpecs(cfg), wait)
	for _, r := range results {
		status := "created"
		if r.Skipped {
			status = "already exists"
		}
		fmt.Fprintf(out, "  %-28s %s\n", r.Name, status)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Setup complete.")
	return nil
}
