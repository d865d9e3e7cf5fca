package cli

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"component-manager/internal/adapters"
	"component-manager/internal/app"
	"component-manager/internal/shared"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "COMPONENT_MANAGER"

// runMetrics collects the metrics of the current invocation.
var runMetrics *adapters.PrometheusMetrics

type RootConfig struct {
	ConfigFile      string
	LogLevel        string
	MetricsTextfile string
}

func Execute() {
	root := newRootCommand()
	err := root.Execute()
	writeMetrics()
	if err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:          "component-manager",
		Short:        "Resolve, lock and install firmware components",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			runMetrics = adapters.NewPrometheusMetrics()
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	cmd.PersistentFlags().StringVar(&cfg.MetricsTextfile, "metrics-textfile", "", "Write run metrics to this Prometheus textfile")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("metrics_textfile", cmd.PersistentFlags().Lookup("metrics-textfile"))

	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newResolveCommand())
	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newVerifyCommand())
	cmd.AddCommand(newPruneCommand())
	cmd.AddCommand(newInspectCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("component-manager")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/component-manager")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func newAppService() app.Service {
	service := app.NewService()
	if runMetrics != nil {
		service.Metrics = runMetrics
	}
	return service
}

func writeMetrics() {
	path := viper.GetString("metrics_textfile")
	if path == "" || runMetrics == nil {
		return
	}
	if err := runMetrics.WriteTextfile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("metrics textfile not written")
	}
}

func exitCodeForError(err error) int {
	switch shared.KindOf(err) {
	case shared.KindConfiguration:
		return 2
	case shared.KindConflict:
		return 3
	case shared.KindSourceUnavailable:
		return 4
	case shared.KindLockCorruption:
		return 5
	case shared.KindIntegrity:
		return 6
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists, errbuilder.CodeNotFound:
		return 2
	default:
		return 1
	}
}
