package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/marketlens/analysis"
)

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions [code...]",
		Short: "List catalogued regions, or describe the given codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := args
			if len(codes) == 0 {
				codes = analysis.RegionCodes()
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tLANGUAGES\tCURRENCY\tLAWS")
			for _, c := range codes {
				r, err := analysis.LookupRegion(c)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.Code, r.Name, strings.Join(r.Languages, ","), r.Currency, strings.Join(r.Laws, ","))
			}
			return tw.Flush()
		},
	}
}
