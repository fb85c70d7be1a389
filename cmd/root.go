package cmd

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/traffic-sim/sim"
	"github.com/inference-sim/traffic-sim/sim/trace"
	"github.com/inference-sim/traffic-sim/sim/traffic"
)

var (
	trafficSpecPath string  // Path to the traffic spec YAML
	seed            int64   // Overrides the traffic spec seed when set
	horizon         float64 // Overrides the traffic spec horizon (run length past start_time)
	logLevel        string  // Log verbosity level
	traceLevel      string  // Overrides the traffic spec trace level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "traffic-sim",
	Short: "Discrete-event traffic simulator",
}

// runCmd executes the simulation described by a traffic spec
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the traffic simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		spec, err := loadTrafficSpec(trafficSpecPath)
		if err != nil {
			logrus.Fatalf("Failed to load traffic spec: %v", err)
		}
		applyOverrides(cmd, spec)
		if err := spec.Validate(); err != nil {
			logrus.Fatalf("Invalid traffic spec: %v", err)
		}

		result, err := runSpec(spec)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		printSummary(os.Stdout, result)
	},
}

// applyOverrides copies explicitly set flags onto spec. Defaults never
// shadow values from the YAML.
func applyOverrides(cmd *cobra.Command, spec *traffic.TrafficSpec) {
	if cmd.Flags().Changed("seed") {
		logrus.Infof("CLI --seed %d overrides spec seed", seed)
		s := seed
		spec.Seed = &s
	}
	if cmd.Flags().Changed("horizon") {
		spec.Horizon = horizon
	}
	if cmd.Flags().Changed("trace") {
		spec.Trace = traceLevel
	}
}

// runResult carries everything printSummary reports.
type runResult struct {
	Seed         int64
	StartTime    float64
	WarmUp       float64
	Summary      traffic.RunSummary
	TokensIssued uint64
	Generators   []*traffic.Generator
	Trace        *trace.TraceSummary // nil unless tracing was enabled
}

// runSpec builds globals, scheduler and generators from a validated spec and
// drives them to start_time + horizon.
func runSpec(spec *traffic.TrafficSpec) (*runResult, error) {
	globals := spec.NewGlobals()
	st := trace.NewSimulationTrace(trace.TraceConfig{Level: spec.TraceLevel()})
	sched := sim.NewScheduler(globals, sim.WithTrace(st))

	gens, err := spec.Build(globals, sched)
	if err != nil {
		return nil, err
	}
	driver, err := traffic.NewDriver(sched, gens, spec.WarmUp)
	if err != nil {
		return nil, err
	}
	if err := driver.Start(); err != nil {
		return nil, fmt.Errorf("starting generators: %w", err)
	}
	summary, err := driver.Run(spec.StartTime+spec.Horizon, nil)
	if err != nil {
		return nil, err
	}

	result := &runResult{
		Seed:         globals.Seed(),
		StartTime:    globals.SimulationStartTime(),
		WarmUp:       spec.WarmUp,
		Summary:      summary,
		TokensIssued: globals.TokensIssued(),
		Generators:   gens,
	}
	if spec.TraceLevel().Enabled() {
		result.Trace = trace.Summarize(st)
	}
	return result, nil
}

// printSummary writes a human-readable report of a run.
func printSummary(w io.Writer, r *runResult) {
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Seed             : %d\n", r.Seed)
	fmt.Fprintf(w, "Start Time       : %.6f\n", r.StartTime)
	fmt.Fprintf(w, "End Clock        : %.6f\n", r.Summary.EndClock)
	fmt.Fprintf(w, "Warm-up          : %.6f\n", r.WarmUp)
	fmt.Fprintf(w, "Events Caused    : %d\n", r.Summary.Caused)
	fmt.Fprintf(w, "Pending Events   : %d\n", r.Summary.Pending)
	fmt.Fprintf(w, "Tokens Issued    : %d\n", r.TokensIssued)

	fmt.Fprintln(w, "=== Generators ===")
	for _, gen := range r.Generators {
		fmt.Fprintf(w, "%-16s : kind=%s state=%s arrivals=%d post_warm_up=%d generated=%d\n",
			gen.ID(), gen.Kind(), gen.State(),
			r.Summary.Arrivals[gen.ID()], r.Summary.PostWarmUp[gen.ID()], gen.TokensGeneratedCount())
	}

	if r.Trace == nil {
		return
	}
	fmt.Fprintln(w, "=== Trace ===")
	fmt.Fprintf(w, "Recorded Events  : %d (%d with tokens)\n", r.Trace.TotalEvents, r.Trace.TokenEvents)
	for _, name := range slices.Sorted(maps.Keys(r.Trace.ByType)) {
		ts := r.Trace.ByType[name]
		fmt.Fprintf(w, "%-16s : count=%d first=%.6f last=%.6f mean_gap=%.6f\n",
			name, ts.Count, ts.FirstClock, ts.LastClock, ts.MeanGap)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&trafficSpecPath, "traffic-spec", "", "Path to traffic spec YAML (built-in single exponential source if empty)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the shared random number engine (overrides the traffic spec seed)")
	runCmd.Flags().Float64Var(&horizon, "horizon", 1000, "Run length past start_time (overrides the traffic spec horizon)")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, events); overrides the traffic spec trace level")

	rootCmd.AddCommand(runCmd)
}
