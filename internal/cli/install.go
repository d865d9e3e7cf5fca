package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"component-manager/internal/app"
)

type installOptions struct {
	Project       projectOptions
	Engine        engineOptions
	ComponentsDir string
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Resolve, download and verify every component",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd.Context(), cmd, opts)
		},
	}
	addProjectFlags(cmd, &opts.Project)
	addEngineFlags(cmd, &opts.Engine)
	cmd.Flags().StringVar(&opts.ComponentsDir, "components-dir", app.DefaultComponentsDir, "Directory for downloaded components")
	_ = viper.BindPFlag("components_dir", cmd.Flags().Lookup("components-dir"))
	return cmd
}

func runInstall(ctx context.Context, cmd *cobra.Command, opts installOptions) error {
	service := newAppService()
	result, err := service.Install(ctx, app.InstallRequest{
		ResolveRequest: resolveRequest(cmd, opts.Project, opts.Engine),
		ComponentsDir:  resolveString(cmd, opts.ComponentsDir, "components_dir", "components-dir"),
	})
	if err != nil {
		return err
	}
	emitHints(result.Resolve.Hints)
	for _, component := range result.Installed {
		fmt.Printf("- %s %s (%s) %s\n", component.Name, component.Version, component.Source, component.Path)
	}
	fmt.Printf("installed: %d components, lock %s\n", len(result.Installed), result.Resolve.LockPath)
	return nil
}
