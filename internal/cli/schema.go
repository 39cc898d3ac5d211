package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/threadher/threadher/internal/action"
)

// NewSchemaCmd creates the 'schema' command, which prints the action-group
// OpenAPI document.
func NewSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "schema",
		Short:   "Print the action-group OpenAPI document (YAML)",
		Example: `  threadher schema > garment-tools.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(cmd.OutOrStdout())
		},
	}
}

func runSchema(out io.Writer) error {
	doc, err := action.OpenAPISchema()
	if err != nil {
		return fmt.Errorf("failed to render schema: %w", err)
	}
	_, err = out.Write(doc)
	return err
}
