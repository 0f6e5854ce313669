package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/marketlens/analysis"
	"github.com/jonwraymond/marketlens/config"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		file         string
		regions      []string
		noAI         bool
		forceRefresh bool
		analysisType string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze page content for one or more regions",
		Example: `  marketlens analyze --file page.json --regions US,DE
  cat page.json | marketlens analyze --regions JP --no-ai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := opts.runtime(ctx, func(c *config.Config) {
				if noAI {
					c.AI.Enabled = false
				}
			})
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close(ctx) }()

			res, err := rt.Orchestrator.Analyze(ctx, content, regions, analysis.Options{
				AnalysisType: analysisType,
				SkipAI:       noAI,
				ForceRefresh: forceRefresh,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Complete() {
				return fmt.Errorf("analysis incomplete for %s", strings.Join(failedRegions(res), ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "content JSON file, - for stdin")
	cmd.Flags().StringSliceVarP(&regions, "regions", "r", nil, "comma separated region codes (required)")
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "run local analysis only")
	cmd.Flags().BoolVar(&forceRefresh, "force", false, "bypass the cache read")
	cmd.Flags().StringVar(&analysisType, "type", analysis.DefaultAnalysisType, "analysis type")
	_ = cmd.MarkFlagRequired("regions")
	return cmd
}

func readContent(stdin io.Reader, file string) (analysis.Content, error) {
	var r io.Reader = stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return analysis.Content{}, fmt.Errorf("open content: %w", err)
		}
		defer f.Close()
		r = f
	}
	var content analysis.Content
	if err := json.NewDecoder(r).Decode(&content); err != nil {
		return analysis.Content{}, fmt.Errorf("decode content: %w", err)
	}
	return content, nil
}

func failedRegions(res analysis.MergedAnalysisResult) []string {
	var out []string
	for code, s := range res.States {
		if s != analysis.StatusComplete {
			out = append(out, code)
		}
	}
	slices.Sort(out)
	return out
}
