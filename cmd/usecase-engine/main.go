// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the usecase-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/logger"
	"github.com/pdiddy/usecase-engine/internal/secrets"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const secretsDir = ".secrets/"

var (
	// cfg is the resolved configuration for the current command.
	cfg types.PipelineConfig

	// log is built from cfg.Log once configuration is loaded.
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "usecase-engine",
	Short: "Generate AI/ML use case proposals for a company or industry",
	Long: `usecase-engine researches a company or industry on the web, proposes
AI/ML/GenAI use cases for it, collects datasets and resources for each use
case, and writes the result as a Markdown and HTML proposal.

Three agents run in sequence (research, use cases, resources), each with a
web search tool; a final model call assembles the proposal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		log, err = logger.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}

		s, err := secrets.Load(secretsDir, log)
		if err != nil {
			return err
		}
		if names := s.Names(); len(names) > 0 {
			log.Debug("loaded secrets", zap.Strings("names", names))
		}
		applySecrets(&cfg, s)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./usecase-engine.yaml or ~/.config/usecase-engine/usecase-engine.yaml)")
	pf.String("output-dir", "", "directory for proposal files")
	pf.String("data-dir", "", "directory for the run history database (empty string in config disables history)")
	pf.String("provider", "", "model provider: openai or anthropic")
	pf.String("model", "", "model identifier")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")

	bindFlags(viper.GetViper(), rootCmd, map[string]string{
		"output.dir":     "output-dir",
		"store.data_dir": "data-dir",
		"ai.provider":    "provider",
		"ai.model":       "model",
		"log.level":      "log-level",
		"log.format":     "log-format",
	})
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("usecase-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "usecase-engine"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
