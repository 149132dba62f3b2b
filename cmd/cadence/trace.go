package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phanxgames/cadence"
)

type traceOptions struct {
	frames int
	every  int
	output string
}

func traceCmd() *cobra.Command {
	var opts traceOptions
	cmd := &cobra.Command{
		Use:   "trace <scenario.yaml>",
		Short: "Step a scenario at its tick rate and print traced property values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(args[0])
			if err != nil {
				return err
			}
			return runTrace(cmd.OutOrStdout(), sc, opts)
		},
	}
	cmd.Flags().IntVar(&opts.frames, "frames", 0, "Frames to run (default: scenario trace.frames, else 5s worth)")
	cmd.Flags().IntVar(&opts.every, "every", 0, "Print every Nth frame (default: scenario trace.every)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "Output format (text|yaml)")
	return cmd
}

// Sample is the traced state after one frame.
type Sample struct {
	Frame  int               `yaml:"frame"`
	Time   string            `yaml:"time"`
	Values map[string]string `yaml:"values"`
}

type traced struct {
	prop string
	node *cadence.Node
	path string
}

// runTrace runs the scenario on a dispatcher owned by the calling goroutine
// with a manual clock, so every run yields the same samples.
func runTrace(w io.Writer, sc *Scenario, opts traceOptions) error {
	frames := opts.frames
	if frames == 0 {
		frames = sc.Trace.Frames
	}
	if frames == 0 {
		frames = 5 * sc.TPS
	}
	every := opts.every
	if every <= 0 {
		every = sc.Trace.Every
	}

	clock := &cadence.ManualTimeSource{}
	d := cadence.NewDispatcher(cadence.DispatcherConfig{Name: "trace", TimeSource: clock, Debug: debug})
	defer d.Shutdown()
	scene, err := sc.Build(d)
	if err != nil {
		return err
	}

	var props []traced
	for _, p := range sc.Trace.Properties {
		n, path, err := TraceTarget(scene, p)
		if err != nil {
			return err
		}
		if _, err := cadence.ReadProperty(n, path); err != nil {
			return fmt.Errorf("trace property %q: %w", p, err)
		}
		props = append(props, traced{prop: p, node: n, path: path})
	}

	tick := time.Second / time.Duration(sc.TPS)
	var samples []Sample
	for f := 0; f <= frames; f++ {
		if f > 0 {
			clock.Advance(tick)
		}
		if err := scene.Update(); err != nil {
			return err
		}
		if s := scene.Script(); s != nil && s.Err() != nil {
			return s.Err()
		}
		if f%every != 0 {
			continue
		}
		sample := Sample{Frame: f, Time: clock.Now().String(), Values: make(map[string]string, len(props))}
		for _, p := range props {
			v, err := cadence.ReadProperty(p.node, p.path)
			if err != nil {
				return fmt.Errorf("trace property %q: %w", p.prop, err)
			}
			sample.Values[p.prop] = formatValue(v)
		}
		samples = append(samples, sample)
	}

	switch strings.ToLower(opts.output) {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(samples)
	case "", "text":
		return writeTable(w, props, samples)
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}
}

func writeTable(w io.Writer, props []traced, samples []Sample) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{"FRAME", "TIME"}
	for _, p := range props {
		header = append(header, p.prop)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, s := range samples {
		row := []string{fmt.Sprint(s.Frame), s.Time}
		for _, p := range props {
			row = append(row, s.Values[p.prop])
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%.4f", x)
	case cadence.Color:
		return fmt.Sprintf("rgba(%.3f, %.3f, %.3f, %.3f)", x.R, x.G, x.B, x.A)
	default:
		return fmt.Sprint(v)
	}
}
