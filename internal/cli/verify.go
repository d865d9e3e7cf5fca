package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"component-manager/internal/app"
)

type verifyOptions struct {
	LockPath      string
	ComponentsDir string
}

func newVerifyCommand() *cobra.Command {
	opts := verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check installed components against the lock file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.LockPath, "lock", app.DefaultLockFile, "Lock file path")
	cmd.Flags().StringVar(&opts.ComponentsDir, "components-dir", app.DefaultComponentsDir, "Directory for downloaded components")
	_ = viper.BindPFlag("lock", cmd.Flags().Lookup("lock"))
	_ = viper.BindPFlag("components_dir", cmd.Flags().Lookup("components-dir"))
	return cmd
}

func runVerify(ctx context.Context, cmd *cobra.Command, opts verifyOptions) error {
	service := newAppService()
	result, err := service.Verify(ctx, app.VerifyRequest{
		LockPath:      resolveString(cmd, opts.LockPath, "lock", "lock"),
		ComponentsDir: resolveString(cmd, opts.ComponentsDir, "components_dir", "components-dir"),
	})
	if err != nil {
		return err
	}
	fmt.Printf("verified: %d components (%d not downloaded)\n", len(result.Verified), len(result.Skipped))
	return nil
}
