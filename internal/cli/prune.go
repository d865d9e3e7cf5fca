package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"component-manager/internal/app"
)

type pruneOptions struct {
	LockPath      string
	ComponentsDir string
	DryRun        bool
	Force         bool
}

func newPruneCommand() *cobra.Command {
	opts := pruneOptions{}
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove installed components the lock file no longer references",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPrune(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.LockPath, "lock", app.DefaultLockFile, "Lock file path")
	cmd.Flags().StringVar(&opts.ComponentsDir, "components-dir", app.DefaultComponentsDir, "Directory for downloaded components")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Only report prune actions without deleting")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Also delete components that were modified locally")
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	return cmd
}

func runPrune(ctx context.Context, cmd *cobra.Command, opts pruneOptions) error {
	service := newAppService()
	result, err := service.PruneComponents(ctx, app.PruneRequest{
		LockPath:      resolveString(cmd, opts.LockPath, "lock", "lock"),
		ComponentsDir: resolveString(cmd, opts.ComponentsDir, "components_dir", "components-dir"),
		DryRun:        resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
		Force:         opts.Force,
	})
	if err != nil {
		return err
	}
	for _, dir := range result.Protected {
		fmt.Fprintf(os.Stderr, "kept modified component %s (use --force to delete)\n", dir)
	}
	if result.DryRun {
		fmt.Printf("dry-run: keep=%d delete=%d\n", result.KeepCount, result.DeleteCount)
		return nil
	}
	fmt.Printf("pruned components: %d\n", len(result.Deleted))
	return nil
}
