package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/usecase-engine/internal/research"
)

var researchCmd = &cobra.Command{
	Use:   "research <company_or_industry>",
	Short: "Run only the industry research agent",
	Long: `Research runs the industry research agent and prints its Markdown report
to stdout. Nothing is written to disk or to the run history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("context", "", "additional context or requirements for the agent")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx, stop := withSignals(cmd.Context())
	defer stop()

	a := newApp(cfg, log, false)
	defer a.Close()

	opts, err := a.agentOptions(ctx)
	if err != nil {
		return err
	}
	res, err := research.New(opts).Research(ctx, subjectFromArgs(cmd, args))
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, res.Research)
	return nil
}
