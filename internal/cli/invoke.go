package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/threadher/threadher/internal/action"
	"github.com/threadher/threadher/internal/app"
	"github.com/threadher/threadher/internal/config"
)

// NewInvokeCmd creates the 'invoke' command, which runs one event through
// the action handler or a single tool function.
func NewInvokeCmd() *cobra.Command {
	var tool string

	cmd := &cobra.Command{
		Use:   "invoke <event.json>",
		Short: "Run an agent event or tool event from a file",
		Long: `Read an event from a file ("-" for stdin) and print the response.

Without --tool the file is an agent action-group event and the output is the
agent response. With --tool the file is a tool event ({"body": ...}) and the
output is the tool's status/headers/body envelope.`,
		Example: `  threadher invoke event.json
  echo '{"body": {"garment_type": "jeans"}}' | threadher invoke --tool calculate-carbon -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], tool)
		},
	}

	cmd.Flags().StringVarP(&tool, "tool", "t", "", "Tool path to call directly (calculate-carbon, get-circular-options, analyze-garment)")

	return cmd
}

func runInvoke(ctx context.Context, stdin io.Reader, out io.Writer, path, tool string) error {
	data, err := readEvent(stdin, path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a, err := app.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	defer func() { _ = a.Close() }()

	var result any
	if tool == "" {
		var ev action.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("invalid agent event: %w", err)
		}
		if result, err = a.Actions.Handle(ctx, ev); err != nil {
			return err
		}
	} else {
		tools := a.Tools()
		fn, ok := tools["/"+strings.TrimPrefix(tool, "/")]
		if !ok {
			return fmt.Errorf("unknown tool %q (available: %s)", tool, strings.Join(toolNames(tools), ", "))
		}
		if result, err = fn(ctx, data); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readEvent(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read event from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}
	return data, nil
}

func toolNames(tools map[string]action.FunctionHandler) []string {
	names := make([]string, 0, len(tools))
	for path := range tools {
		names = append(names, strings.TrimPrefix(path, "/"))
	}
	sort.Strings(names)
	return names
}
