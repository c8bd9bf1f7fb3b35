package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"colsplit/internal/probe"
)

func newProbeCmd(a *app) *cobra.Command {
	var (
		rows     int
		asJSON   bool
		comma    string
		encoding string
	)
	cmd := &cobra.Command{
		Use:   "probe FILE...",
		Short: "Show the numbered columns of CSV files and suggest which to split",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			if comma != "" {
				cfg.CSV.Comma = comma
			}
			if encoding != "" {
				cfg.CSV.Encoding = encoding
			}
			in, err := cfg.InputOptions()
			if err != nil {
				return err
			}
			var reports []probe.Report
			for _, path := range args {
				rep, err := probe.Probe(cmd.Context(), path, probe.Options{Rows: rows, Input: in})
				if err != nil {
					return err
				}
				reports = append(reports, rep)
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}
			for _, rep := range reports {
				printReport(cmd.OutOrStdout(), rep)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", probe.DefaultRows, "data rows to sample")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	cmd.Flags().StringVar(&comma, "comma", "", `input delimiter, overriding csv.comma`)
	cmd.Flags().StringVar(&encoding, "encoding", "", "input text encoding, overriding csv.encoding")
	return cmd
}

func printReport(w io.Writer, rep probe.Report) {
	fmt.Fprintf(w, "%s (%d sampled rows)\n", filepath.Base(rep.Path), rep.SampledRows)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range rep.Columns {
		role := ""
		if c.Role != "" {
			role = "[" + c.Role + "]"
		}
		fmt.Fprintf(tw, "  %d.\t%s\t%s\t%s\n", c.Index, c.Name, role, strings.Join(c.Samples, " | "))
	}
	tw.Flush()
	if f := rep.Flags(); f != "" {
		fmt.Fprintf(w, "suggested: %s\n", f)
	}
	fmt.Fprintln(w)
}
