package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"component-manager/internal/app"
)

// projectOptions are the flags shared by commands that resolve.
type projectOptions struct {
	Manifests     []string
	LockPath      string
	Target        string
	Overrides     []string
	InjectBuiltin string
	Force         bool
}

type engineOptions struct {
	RegistryURL      string
	PlatformName     string
	PlatformVersion  string
	PlatformPath     string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
	GitCacheDir      string
}

func addProjectFlags(cmd *cobra.Command, opts *projectOptions) {
	cmd.Flags().StringSliceVar(&opts.Manifests, "manifest", []string{"."}, "Project manifest file or directory")
	cmd.Flags().StringVar(&opts.LockPath, "lock", app.DefaultLockFile, "Lock file path")
	cmd.Flags().StringVar(&opts.Target, "target", "", "Target chip")
	cmd.Flags().StringSliceVar(&opts.Overrides, "override", nil, "Replace a component with a local directory (name=path)")
	cmd.Flags().StringVar(&opts.InjectBuiltin, "inject-builtin", "root", "Implicit platform dependency: root, always or never")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Re-resolve even when the lock is up to date")

	_ = viper.BindPFlag("manifest", cmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("lock", cmd.Flags().Lookup("lock"))
	_ = viper.BindPFlag("target", cmd.Flags().Lookup("target"))
	_ = viper.BindPFlag("override", cmd.Flags().Lookup("override"))
	_ = viper.BindPFlag("inject_builtin", cmd.Flags().Lookup("inject-builtin"))
}

func addEngineFlags(cmd *cobra.Command, opts *engineOptions) {
	cmd.Flags().StringVar(&opts.RegistryURL, "registry-url", "", "Default component registry (http(s) url or directory)")
	cmd.Flags().StringVar(&opts.PlatformName, "platform-name", "idf", "Name of the platform component")
	cmd.Flags().StringVar(&opts.PlatformVersion, "platform-version", "", "Installed platform version")
	cmd.Flags().StringVar(&opts.PlatformPath, "platform-path", "", "Installed platform directory")
	cmd.Flags().IntVar(&opts.Workers, "workers", 8, "Concurrent source queries and downloads")
	cmd.Flags().IntVar(&opts.HTTPTimeoutSec, "http-timeout", 60, "HTTP timeout in seconds")
	cmd.Flags().IntVar(&opts.HTTPRetries, "http-retries", 3, "HTTP retries")
	cmd.Flags().IntVar(&opts.HTTPRetryDelayMs, "http-retry-delay-ms", 200, "HTTP retry base delay in milliseconds")
	cmd.Flags().StringVar(&opts.GitCacheDir, "git-cache-dir", "", "Directory for git mirrors")

	_ = viper.BindPFlag("registry_url", cmd.Flags().Lookup("registry-url"))
	_ = viper.BindPFlag("platform_name", cmd.Flags().Lookup("platform-name"))
	_ = viper.BindPFlag("platform_version", cmd.Flags().Lookup("platform-version"))
	_ = viper.BindPFlag("platform_path", cmd.Flags().Lookup("platform-path"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("http_timeout", cmd.Flags().Lookup("http-timeout"))
	_ = viper.BindPFlag("http_retries", cmd.Flags().Lookup("http-retries"))
	_ = viper.BindPFlag("http_retry_delay_ms", cmd.Flags().Lookup("http-retry-delay-ms"))
	_ = viper.BindPFlag("git_cache_dir", cmd.Flags().Lookup("git-cache-dir"))
}

func resolveRequest(cmd *cobra.Command, project projectOptions, engine engineOptions) app.ResolveRequest {
	return app.ResolveRequest{
		ManifestPaths: resolveStrings(cmd, project.Manifests, "manifest", "manifest"),
		LockPath:      resolveString(cmd, project.LockPath, "lock", "lock"),
		Target:        resolveString(cmd, project.Target, "target", "target"),
		Overrides:     resolveStrings(cmd, project.Overrides, "override", "override"),
		InjectBuiltin: resolveString(cmd, project.InjectBuiltin, "inject_builtin", "inject-builtin"),
		Force:         resolveBool(cmd, project.Force, "force", "force"),
		Engine:        resolveEngine(cmd, engine),
	}
}

func resolveEngine(cmd *cobra.Command, opts engineOptions) app.EngineOptions {
	return app.EngineOptions{
		RegistryURL:      resolveString(cmd, opts.RegistryURL, "registry_url", "registry-url"),
		PlatformName:     resolveString(cmd, opts.PlatformName, "platform_name", "platform-name"),
		PlatformVersion:  resolveString(cmd, opts.PlatformVersion, "platform_version", "platform-version"),
		PlatformPath:     resolveString(cmd, opts.PlatformPath, "platform_path", "platform-path"),
		Workers:          resolveInt(cmd, opts.Workers, "workers", "workers"),
		HTTPTimeoutSec:   resolveInt(cmd, opts.HTTPTimeoutSec, "http_timeout", "http-timeout"),
		HTTPRetries:      resolveInt(cmd, opts.HTTPRetries, "http_retries", "http-retries"),
		HTTPRetryDelayMs: resolveInt(cmd, opts.HTTPRetryDelayMs, "http_retry_delay_ms", "http-retry-delay-ms"),
		GitCacheDir:      resolveString(cmd, opts.GitCacheDir, "git_cache_dir", "git-cache-dir"),
	}
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return viper.GetStringSlice(key)
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return viper.GetStringSlice(key)
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetInt(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
