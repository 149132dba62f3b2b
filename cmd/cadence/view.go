package main

import (
	"github.com/spf13/cobra"

	"github.com/phanxgames/cadence"
	"github.com/phanxgames/cadence/ebitenhost"
)

func viewCmd() *cobra.Command {
	var showStats bool
	cmd := &cobra.Command{
		Use:   "view <scenario.yaml>",
		Short: "Play a scenario in a window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}
			return ebitenhost.Run(sc.Build, viewConfig(sc, showStats))
		},
	}
	cmd.Flags().BoolVar(&showStats, "stats", false, "Show tick rate and dispatcher counters")
	return cmd
}

func viewConfig(sc *Scenario, showStats bool) ebitenhost.RunConfig {
	cfg := ebitenhost.RunConfig{
		Title:     sc.Name,
		Width:     sc.Width,
		Height:    sc.Height,
		TPS:       sc.TPS,
		ShowStats: showStats,
		Debug:     debug,
		Resizable: true,
	}
	if cfg.Title == "" {
		cfg.Title = "cadence"
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		cfg.Width, cfg.Height = 640, 480
	}
	if sc.Background != nil {
		cfg.ClearColor = cadence.Color(*sc.Background)
	}
	return cfg
}
