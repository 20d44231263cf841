package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/usecase-engine/internal/pipeline"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <company_or_industry>",
	Short: "Run the full pipeline and write the proposal",
	Long: `Run researches the company or industry, generates AI/ML/GenAI use cases,
collects implementation resources, and writes a Markdown and an HTML
proposal to the output directory. The run is recorded in the history
database unless the data directory is empty.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().String("context", "", "additional context or requirements for the agents")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := withSignals(cmd.Context())
	defer stop()

	subject := subjectFromArgs(cmd, args)

	a := newApp(cfg, log, false)
	defer a.Close()

	sys, err := a.system(ctx, os.Stdout)
	if err != nil {
		return err
	}
	sys.OnProgress = progressPrinter(os.Stderr)

	res, err := sys.Run(ctx, subject)
	if err != nil {
		return err
	}
	printComplete(os.Stdout, res)
	return nil
}

func subjectFromArgs(cmd *cobra.Command, args []string) types.Subject {
	extra, _ := cmd.Flags().GetString("context")
	return types.Subject{
		CompanyOrIndustry: strings.Join(args, " "),
		Context:           extra,
	}
}

func progressPrinter(w io.Writer) func(pipeline.Progress) {
	return func(p pipeline.Progress) {
		fmt.Fprintf(w, "[%3d%%] %s\n", p.Percent, p.Message)
	}
}

func printComplete(w io.Writer, res *types.RunResult) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "Process complete! Files saved:")
	fmt.Fprintf(w, "- Markdown: %s\n", res.Files.Markdown)
	fmt.Fprintf(w, "- HTML: %s\n", res.Files.HTML)
	for _, u := range res.Published {
		fmt.Fprintf(w, "- Published: %s\n", u)
	}
	fmt.Fprintf(w, "- Run ID: %s\n", res.RunID)
	fmt.Fprintf(w, "%s\n\n", rule)
}

// withSignals returns a context cancelled on interrupt.
func withSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
