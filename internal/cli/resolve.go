package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"component-manager/internal/types"
)

type resolveOptions struct {
	Project projectOptions
	Engine  engineOptions
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:     "resolve",
		Aliases: []string{"lock"},
		Short:   "Resolve dependencies and write the lock file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts)
		},
	}
	addProjectFlags(cmd, &opts.Project)
	addEngineFlags(cmd, &opts.Engine)
	return cmd
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions) error {
	service := newAppService()
	result, err := service.Resolve(ctx, resolveRequest(cmd, opts.Project, opts.Engine))
	if err != nil {
		return err
	}
	emitHints(result.Hints)
	switch result.State {
	case types.LockStateReused:
		fmt.Printf("lock up to date: %s (%d dependencies)\n", result.LockPath, len(result.Solution.Components))
	default:
		fmt.Printf("lock written: %s (%d dependencies)\n", result.LockPath, len(result.Solution.Components))
	}
	return nil
}

// emitHints writes hint messages to stderr.
func emitHints(hints []string) {
	for _, h := range hints {
		fmt.Fprintln(os.Stderr, h)
	}
}
