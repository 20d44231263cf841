// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/usecase-engine/internal/store"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past runs (list, show, search, export)",
	Long: `History reads the SQLite run history in the data directory. Every run
records its subject, status, stage outputs and final proposal.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		return printRuns(cmd.OutOrStdout(), runs, jsonFlag(cmd))
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run and its proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var stages []store.StageRecord
		if withStages, _ := cmd.Flags().GetBool("stages"); withStages {
			if stages, err = st.Stages(cmd.Context(), rec.ID); err != nil {
				return err
			}
		}

		w := cmd.OutOrStdout()
		if jsonFlag(cmd) {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(store.ExportEntry{RunRecord: *rec, Stages: stages})
		}
		printRun(w, rec, stages)
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over subjects and proposals",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		return printRuns(cmd.OutOrStdout(), runs, jsonFlag(cmd))
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all runs as YAML or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openHistory()
		if err != nil {
			return err
		}
		defer st.Close()

		w := cmd.OutOrStdout()
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "yaml":
			return st.ExportYAML(cmd.Context(), w)
		case "json":
			return st.ExportJSON(cmd.Context(), w)
		}
		return fmt.Errorf("unsupported export format %q (use yaml or json)", format)
	},
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyShowCmd, historySearchCmd} {
		c.Flags().Bool("json", false, "output as JSON")
	}
	historyListCmd.Flags().Int("limit", 0, "maximum number of runs (default store.max_results)")
	historySearchCmd.Flags().Int("limit", 0, "maximum number of results (default store.max_results)")
	historyShowCmd.Flags().Bool("stages", false, "include each stage's output")
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "write to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historySearchCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() (*store.Store, error) {
	if cfg.Store.DataDir == "" {
		return nil, errors.New("run history is disabled: set store.data_dir or --data-dir")
	}
	return store.New(cfg.Store)
}

func jsonFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printRuns(w io.Writer, runs []types.RunRecord, asJSON bool) error {
	if asJSON {
		if runs == nil {
			runs = []types.RunRecord{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	fmt.Fprintf(w, "%-36s  %-30s  %-9s  %s\n", "ID", "Subject", "Status", "Started")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range runs {
		subject := truncateRunes(r.CompanyOrIndustry, 30)
		fmt.Fprintf(w, "%-36s  %-30s  %-9s  %s\n", r.ID, subject, r.Status, r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "\n%d run(s)\n", len(runs))
	return nil
}

func printRun(w io.Writer, r *types.RunRecord, stages []store.StageRecord) {
	fmt.Fprintf(w, "ID:       %s\n", r.ID)
	fmt.Fprintf(w, "Subject:  %s\n", r.CompanyOrIndustry)
	if r.Context != "" {
		fmt.Fprintf(w, "Context:  %s\n", r.Context)
	}
	fmt.Fprintf(w, "Status:   %s\n", r.Status)
	fmt.Fprintf(w, "Started:  %s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Finished: %s\n", r.FinishedAt.Local().Format("2006-01-02 15:04:05"))
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", r.Error)
	}
	if r.MarkdownPath != "" {
		fmt.Fprintf(w, "Markdown: %s\nHTML:     %s\n", r.MarkdownPath, r.HTMLPath)
	}
	for _, s := range stages {
		fmt.Fprintf(w, "\n--- %s ---\n%s\n", s.Stage, s.Output)
	}
	if r.Proposal != "" {
		fmt.Fprintf(w, "\n%s\n", r.Proposal)
	}
}

// truncateRunes shortens s to at most n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
