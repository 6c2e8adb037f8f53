package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aouyang1/revforecast"
	"github.com/aouyang1/revforecast/render"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Pick a file and horizon, then forecast in the terminal",
	RunE:    runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func horizonOptions() []huh.Option[int] {
	options := make([]huh.Option[int], 0, int(revforecast.MaxHorizon))
	for h := revforecast.MinHorizon; h <= revforecast.MaxHorizon; h++ {
		options = append(options, huh.NewOption(h.String(), int(h)))
	}
	return options
}

func validatePath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("a file is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var path string
	months := int(cfg.Forecast.Horizon())

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Revenue file").
				Description("A csv or xlsx file with Date and Revenue columns").
				Value(&path).
				Validate(validatePath),
			huh.NewSelect[int]().
				Title("Months to forecast").
				Options(horizonOptions()...).
				Value(&months),
		),
	)
	if err := form.RunWithContext(cmd.Context()); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	path = strings.TrimSpace(path)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", revforecast.ErrIngest, err)
	}
	defer f.Close()

	p := revforecast.NewPipeline(render.NewTerminal(cmd.OutOrStdout()))
	p.Factory = cfg.Forecast.Factory()
	p.Logger = logger
	_, err = p.Run(cmd.Context(), filepath.Base(path), f, revforecast.Horizon(months))
	return err
}
