package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/marketlens/config"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the persisted analysis cache",
		Long: `Inspect and clear the analysis cache held by the configured backing
(cache.backend: redis or sqlite). With the memory backend every invocation
starts empty.`,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := opts.runtime(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(ctx) }()

			st := rt.Orchestrator.CacheStats()
			fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\nEntries: %d/%d\nMemory:  %d bytes\n",
				backendName(rt.Config), st.Size, st.MaxEntries, st.MemoryBytes)
			return nil
		},
	}

	var listPattern string
	entriesCmd := &cobra.Command{
		Use:   "entries",
		Short: "List cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := opts.runtime(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(ctx) }()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tREGION\tSCORE\tAI\tTTL")
			for _, e := range rt.Orchestrator.CacheEntries(ctx, listPattern) {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%v\t%s\n", e.Key, e.Region, e.OverallScore, e.AIEnhanced, e.TTL.Round(time.Second))
			}
			return tw.Flush()
		},
	}
	entriesCmd.Flags().StringVar(&listPattern, "pattern", "", "key substring or glob")

	var clearPattern string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := opts.runtime(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(ctx) }()

			n := rt.Orchestrator.ClearCache(ctx, clearPattern)
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries.\n", n)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&clearPattern, "pattern", "", "key substring or glob; empty clears everything")

	cmd.AddCommand(statsCmd, entriesCmd, clearCmd)
	return cmd
}

func backendName(cfg *config.Config) string {
	if cfg.Cache.Backend == "" {
		return config.BackendMemory
	}
	return cfg.Cache.Backend
}
