package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"component-manager/internal/app"
)

type inspectOptions struct {
	LockPath string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the lock file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.LockPath, "lock", app.DefaultLockFile, "Lock file path")
	_ = viper.BindPFlag("lock", cmd.Flags().Lookup("lock"))
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(app.InspectRequest{
		LockPath: resolveString(cmd, opts.LockPath, "lock", "lock"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("lock version: %s\n", result.SchemaVersion)
	fmt.Printf("target: %s, platform %s\n", result.Target, result.PlatformVersion)
	fmt.Printf("manifest hash: %s\n", result.ManifestHash)
	fmt.Println("sources:")
	for _, summary := range result.Sources {
		fmt.Printf("- %s: %d components\n", summary.Kind, summary.Count)
		if len(summary.Components) > 0 {
			fmt.Printf("  %s\n", strings.Join(summary.Components, ", "))
		}
	}
	fmt.Printf("dependencies: %d\n", len(result.Components))
	for _, component := range result.Components {
		line := fmt.Sprintf("- %s %s", component.Name, component.Version)
		if len(component.Dependencies) > 0 {
			line += " -> " + strings.Join(component.Dependencies, ", ")
		}
		fmt.Println(line)
	}
	return nil
}
