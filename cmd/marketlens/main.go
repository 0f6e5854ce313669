// Command marketlens runs the market-fit analysis service and its tooling.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/marketlens/config"
	"github.com/jonwraymond/marketlens/server"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "marketlens",
		Short:         "marketlens - regional market-fit analysis for web pages",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (defaults when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override observe.logging.level")

	root.AddCommand(
		newServeCmd(opts),
		newAnalyzeCmd(opts),
		newCacheCmd(opts),
		newRegionsCmd(),
		newTokenCmd(opts),
	)
	return root
}

func (o *rootOptions) load(ctx context.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath == "" {
		cfg = config.Default()
		if err := cfg.ResolveSecrets(ctx); err != nil {
			return nil, err
		}
	} else if cfg, err = config.Load(ctx, o.configPath); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Observe.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtime loads the config and builds a Runtime. The caller must Close it.
func (o *rootOptions) runtime(ctx context.Context, mutate func(*config.Config)) (*server.Runtime, error) {
	cfg, err := o.load(ctx)
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(cfg)
	}
	return server.NewRuntime(ctx, cfg, server.RuntimeOptions{})
}
