package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/usecase-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Serve starts an HTTP API that runs the pipeline on request and exposes
the run history, a Markdown download per run, /healthz and Prometheus
/metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := withSignals(cmd.Context())
	defer stop()

	a := newApp(cfg, log, true)
	defer a.Close()

	sys, err := a.system(ctx, nil)
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		Runner:     sys,
		Gatherer:   a.registry,
		Logger:     log,
		RunTimeout: cfg.Server.RunTimeout,
	}
	if a.store != nil {
		srvCfg.History = a.store
	}
	return server.New(srvCfg).ListenAndServe(ctx, cfg.Server.Addr)
}
