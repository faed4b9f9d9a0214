package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wstunnel/wsrelease/internal/app"
	"github.com/wstunnel/wsrelease/internal/config"
	"github.com/wstunnel/wsrelease/pkg/version"
)

var (
	cfgFile      string
	manifestPath string
	verbose      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "wsrelease",
	Short: "Build and publish multi-platform releases",
	Long: `wsrelease cross-compiles a Go project for every platform in its
release manifest, runs post-build hooks, packages archives, writes a
checksum file and changelog, and optionally uploads everything to S3.

The manifest lives in .wsrelease.yaml next to the repository root.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.ConfigFilePath()+")")
	rootCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "f", "", "release manifest (default is .wsrelease.yaml)")
	rootCmd.PersistentFlags().String("dist", "dist", "Output directory")
	rootCmd.PersistentFlags().IntP("concurrency", "j", config.DefaultWorkers, "Number of parallel builds")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "Overall pipeline timeout")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable the build cache")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	_ = viper.BindPFlag("dist", rootCmd.PersistentFlags().Lookup("dist"))
	_ = viper.BindPFlag("concurrency.workers", rootCmd.PersistentFlags().Lookup("concurrency"))
	_ = viper.BindPFlag("concurrency.timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	releaseCmd.Flags().Bool("skip-publish", false, "Build everything but upload nothing")
	releaseCmd.Flags().Bool("rm-dist", false, "Remove the dist directory before building")
	releaseCmd.Flags().Bool("snapshot", false, "Build an untagged snapshot release")
	releaseCmd.Flags().Bool("allow-dirty", false, "Permit uncommitted changes in the worktree")

	buildCmd.Flags().Bool("rm-dist", false, "Remove the dist directory before building")
	buildCmd.Flags().Bool("snapshot", false, "Build an untagged snapshot release")
	buildCmd.Flags().Bool("allow-dirty", false, "Permit uncommitted changes in the worktree")

	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(changelogCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Run the full release pipeline",
	Long: `Builds every manifest target, runs post-build hooks, packages
archives, writes the checksum file and changelog, and publishes the
artifacts unless --skip-publish is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOrchestrator(cmd, func(ctx context.Context, o *app.Orchestrator, opts app.RunOptions) error {
			opts.SkipPublish, _ = cmd.Flags().GetBool("skip-publish")
			_, err := o.Release(ctx, opts)
			return err
		})
	},
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Cross-compile all targets without archiving or publishing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOrchestrator(cmd, func(ctx context.Context, o *app.Orchestrator, opts app.RunOptions) error {
			_, err := o.Build(ctx, opts)
			return err
		})
	},
}

var changelogCmd = &cobra.Command{
	Use:   "changelog",
	Short: "Print the release notes for the current repository state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOrchestrator(cmd, func(ctx context.Context, o *app.Orchestrator, opts app.RunOptions) error {
			// Changelog generation tolerates a dirty worktree
			opts.Snapshot = true
			notes, err := o.Changelog(opts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), notes)
			return nil
		})
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the manifest and show the expanded build matrix",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := app.Check(manifestPath)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.String())
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
	},
}

// withOrchestrator loads config, builds the orchestrator, and runs fn under
// a signal-aware, timeout-bounded context
func withOrchestrator(cmd *cobra.Command, fn func(context.Context, *app.Orchestrator, app.RunOptions) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	orchestrator, err := app.NewOrchestrator(app.OrchestratorOptions{
		Config:  cfg,
		Verbose: verbose,
	})
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Concurrency.Timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	opts := app.RunOptions{ManifestPath: manifestPath}
	opts.Snapshot, _ = cmd.Flags().GetBool("snapshot")
	opts.AllowDirty, _ = cmd.Flags().GetBool("allow-dirty")
	opts.RmDist, _ = cmd.Flags().GetBool("rm-dist")

	return fn(ctx, orchestrator, opts)
}
