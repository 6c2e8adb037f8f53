// Command revforecast forecasts monthly revenue from an uploaded spreadsheet
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aouyang1/revforecast/config"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	flagConfig     string
	flagVerbose    bool
	flagProfileDir string
)

var rootCmd = &cobra.Command{
	Use:           "revforecast",
	Short:         "Revenue forecasting",
	Long:          "Forecast revenue from a spreadsheet of dated values, in the terminal or as a web app.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagProfileDir != "" {
			stopProfile = profile.Start(profile.CPUProfile, profile.ProfilePath(flagProfileDir), profile.Quiet).Stop
		}
	},
}

var stopProfile func()

// Execute is the main entry point called from main.go
func Execute() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the root command. The profile is flushed even when the command fails.
func run() error {
	defer func() {
		if stopProfile != nil {
			stopProfile()
			stopProfile = nil
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log every pipeline stage and print the fitted model")
	rootCmd.PersistentFlags().StringVar(&flagProfileDir, "cpuprofile", "", "Write a CPU profile to this directory")
}

// loadConfig loads the config file and builds the logger it describes. Verbose logging
// overrides the configured level.
func loadConfig(logOut io.Writer) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, nil, err
	}
	if flagVerbose {
		cfg.Log.Level = "debug"
	}
	logger, err := cfg.Log.Logger(logOut)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
