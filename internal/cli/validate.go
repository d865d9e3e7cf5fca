package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"component-manager/internal/app"
)

type validateOptions struct {
	Manifests []string
	Engine    engineOptions
}

func newValidateCommand() *cobra.Command {
	opts := validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate project manifests without contacting any source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Manifests, "manifest", []string{"."}, "Project manifest file or directory")
	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	addEngineFlags(cmd, &opts.Engine)
	return cmd
}

func runValidate(ctx context.Context, cmd *cobra.Command, opts validateOptions) error {
	service := newAppService()
	result, err := service.Validate(ctx, app.ValidateRequest{
		ManifestPaths: resolveStrings(cmd, opts.Manifests, "manifest", "manifest"),
		Engine:        resolveEngine(cmd, opts.Engine),
	})
	if err != nil {
		return err
	}
	fmt.Printf("valid: %s (%d dependencies)\n", strings.Join(result.Manifests, ", "), result.Dependencies)
	return nil
}
