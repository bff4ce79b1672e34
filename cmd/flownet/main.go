package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/nkarsten/flownet/internal/config"
	"github.com/nkarsten/flownet/internal/integrate"
	"github.com/nkarsten/flownet/internal/scenario"
	"github.com/nkarsten/flownet/internal/solve"
)

var (
	dt          float64
	duration    float64
	minDt       float64
	maxRetries  int
	cutback     float64
	grow        float64
	recordEvery int
	integrator  string
	strategy    string
	configFile  string
	preset      string
	quiet       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flownet",
		Short: "thermodynamic fluid-network solver",
	}

	steadyCmd := &cobra.Command{
		Use:   "steady [scenario]",
		Short: "solve a scenario to steady state",
		Args:  cobra.ExactArgs(1),
		RunE:  runSteady,
	}
	steadyCmd.Flags().StringVar(&strategy, "strategy", "strict", "initialization strategy (strict|relaxed)")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a transient simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runTransient,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "nominal timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "simulated duration")
	runCmd.Flags().Float64Var(&minDt, "min-dt", config.DefaultMinDt, "cutback step floor")
	runCmd.Flags().IntVar(&maxRetries, "max-retries", config.DefaultMaxRetries, "retries per step")
	runCmd.Flags().Float64Var(&cutback, "cutback", config.DefaultCutbackFactor, "step cutback factor")
	runCmd.Flags().Float64Var(&grow, "grow", config.DefaultGrowFactor, "step recovery factor")
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "record decimation")
	runCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (rk4|euler)")
	runCmd.Flags().StringVar(&strategy, "strategy", "relaxed", "initialization strategy (strict|relaxed)")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress progress output")

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list bundled scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range scenario.NewRegistry().List() {
				fmt.Println(name)
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if names == nil {
				return fmt.Errorf("no presets for scenario %q", args[0])
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(steadyCmd, runCmd, scenariosCmd, presetsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfig(name string) (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	if preset != "" {
		cfg := config.GetPreset(name, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q for scenario %q", preset, name)
		}
		return cfg, nil
	}
	cfg := config.DefaultConfig()
	cfg.Scenario = name
	cfg.Integrator = integrator
	cfg.Strategy = strategy
	cfg.Dt = dt
	cfg.Duration = duration
	cfg.MinDt = minDt
	cfg.MaxRetries = maxRetries
	cfg.CutbackFactor = cutback
	cfg.GrowFactor = grow
	cfg.RecordEvery = recordEvery
	return cfg, nil
}

func runSteady(cmd *cobra.Command, args []string) error {
	strat, err := solve.ParseStrategy(strategy)
	if err != nil {
		return err
	}
	setup, err := scenario.NewRegistry().Build(args[0], strat)
	if err != nil {
		return err
	}
	sol, err := setup.Problem.Solve(strat.Config())
	if err != nil {
		return err
	}
	printSolution(setup, sol)
	return nil
}

func runTransient(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args[0])
	if err != nil {
		return err
	}
	strat, err := solve.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	setup, err := scenario.NewRegistry().Build(cfg.Scenario, strat)
	if err != nil {
		return err
	}
	if setup.Model == nil {
		return fmt.Errorf("scenario %q has no transient model; use steady", cfg.Scenario)
	}
	if _, err := setup.Model.Init(); err != nil {
		return err
	}

	opts, err := cfg.SimOptions()
	if err != nil {
		return err
	}
	if !quiet {
		opts.Progress = func(p integrate.Progress) {
			if p.Step%200 == 0 {
				fmt.Printf("\rstep %6d  t=%8.3fs  %5.1f%%  cutbacks=%d  dt=%.2e",
					p.Step, p.Time, 100*p.Frac, p.Cutbacks, p.LastDt)
			}
		}
	}

	rec, err := integrate.RunSim(setup.Model, opts)
	if !quiet {
		fmt.Println()
	}
	if err != nil {
		return err
	}

	fmt.Printf("steps=%d cutbacks=%d recorded=%d elapsed=%s\n",
		rec.Steps, rec.CutbackRetries, len(rec.Times), rec.Elapsed)

	plotPressure(setup, rec)
	return nil
}

func printSolution(setup *scenario.Setup, sol *solve.SteadySolution) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tP [Pa]\tT [K]\th [J/kg]\trho [kg/m3]")
	for i, node := range setup.Problem.Network().Nodes() {
		st := sol.States[i]
		fmt.Fprintf(w, "%s\t%.1f\t%.2f\t%.1f\t%.4f\n",
			node.Name, st.Pressure(), st.Temperature(), st.Enthalpy(), st.Density())
	}
	fmt.Fprintln(w, "\nCOMPONENT\tmdot [kg/s]")
	for ci, comp := range setup.Problem.Network().Comps() {
		fmt.Fprintf(w, "%s\t%.5f\n", comp.Name, sol.MassFlows[ci])
	}
	w.Flush()
	fmt.Printf("\niterations=%d residual=%.3e\n", sol.Iterations, sol.ResidualNorm)
}

// plotPressure traces the first node's pressure over the recorded states.
func plotPressure(setup *scenario.Setup, rec *integrate.SimRecord) {
	stride := 1
	if len(rec.Times) > 120 {
		stride = len(rec.Times) / 120
	}
	var series []float64
	for i := 0; i < len(rec.Times); i += stride {
		sol, err := setup.Model.Solve(rec.Times[i], rec.States[i])
		if err != nil {
			continue
		}
		series = append(series, sol.Pressures[0]/1000.0)
	}
	if len(series) < 2 {
		return
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(12),
		asciigraph.Caption("node pressure [kPa]")))
}
