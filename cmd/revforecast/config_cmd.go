package main

import (
	"fmt"

	"github.com/aouyang1/revforecast/config"
	"github.com/spf13/cobra"
)

var flagWrite bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVarP(&flagWrite, "write", "w", false, "Write the effective configuration to the config file")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	path := flagConfig
	if path == "" {
		path = config.Path()
	}

	out := cmd.OutOrStdout()
	if flagWrite {
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Fprintf(out, "# saved to %s\n", path)
	} else {
		fmt.Fprintf(out, "# %s\n", path)
	}
	return config.Encode(out, cfg)
}
