package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/inference-sim/smt-regalloc/sim"
	"github.com/inference-sim/smt-regalloc/sim/trace"
	"github.com/inference-sim/smt-regalloc/sim/workload"
)

var (
	// CLI flags for the run
	seed           int64  // Seed for per-context counter generation
	cycles         int64  // Number of simulated cycles
	logLevel       string // Log verbosity level
	workloadPath   string // Workload spec YAML (overrides --scenario)
	scenario       string // Built-in workload scenario
	reportInterval int64  // Cycles between counter reports (0 = from workload spec)
	configPath     string // Allocator bundle YAML
	resultsPath    string // JSON metrics output path
	traceLevel     string // Decision trace level
	summarizeTrace bool   // Print trace summary after the run

	// CLI flags for the register file
	totalRegisters       int    // Rename registers in the shared pool
	minRegisters         int    // Guaranteed registers per active context
	maxContexts          int    // Hardware context slots
	reallocationInterval int64  // Cycles between scheduled redistributions
	scorerName           string // Performance scorer for the spare-register split
)

// bundleFlags maps AllocatorBundle register_file fields to the flags that override them.
var bundleFlags = map[string]string{
	"total_registers":           "total-registers",
	"min_registers_per_context": "min-registers",
	"max_contexts":              "max-contexts",
	"reallocation_interval":     "realloc-interval",
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "smt-regalloc",
	Short: "Rename-register allocation simulator for SMT cores",
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a workload against the register allocator",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if cycles <= 0 {
			logrus.Fatalf("--cycles must be > 0, got %d", cycles)
		}

		cfg := sim.NewAllocatorConfig(totalRegisters, minRegisters, maxContexts, reallocationInterval)

		// Load allocator bundle if specified (CLI flags override YAML values)
		if configPath != "" {
			bundle, err := sim.LoadAllocatorBundle(configPath)
			if err != nil {
				logrus.Fatalf("Failed to load allocator config: %v", err)
			}
			if err := bundle.Validate(); err != nil {
				logrus.Fatalf("Invalid allocator config: %v", err)
			}
			cfg = resolveAllocatorConfig(bundle, cfg, cmd.Flags().Changed)
			if bundle.Scorer != "" && !cmd.Flags().Changed("scorer") {
				scorerName = bundle.Scorer
			}
			if bundle.TraceLevel != "" && !cmd.Flags().Changed("trace-level") {
				traceLevel = bundle.TraceLevel
			}
		}

		// Validate names (catches CLI typos before they become panics)
		if !sim.IsValidScorer(scorerName) {
			logrus.Fatalf("Unknown scorer %q. Valid: %v", scorerName, sim.ValidScorerNames())
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q. Valid: none, decisions", traceLevel)
		}
		if traceLevel != string(trace.TraceLevelDecisions) && summarizeTrace {
			logrus.Warnf("--summarize-trace has no effect without --trace-level decisions")
		}

		spec := loadWorkload(cmd)
		plans, err := workload.BuildContextPlans(spec)
		if err != nil {
			logrus.Fatalf("Failed to build workload: %v", err)
		}
		reportEvery := spec.ReportInterval()
		if cmd.Flags().Changed("report-interval") {
			reportEvery = reportInterval
		}

		allocTrace := trace.NewAllocationTrace(trace.TraceConfig{Level: trace.TraceLevel(traceLevel)})
		alloc, err := sim.NewRegisterAllocator(cfg,
			sim.WithScorer(sim.NewPerformanceScorer(scorerName)),
			sim.WithTrace(allocTrace))
		if err != nil {
			logrus.Fatalf("Invalid register file configuration: %v", err)
		}

		logrus.Infof("Starting simulation: %d registers, min %d/context, %d contexts max, interval=%d cycles, horizon=%d cycles, %d planned contexts",
			cfg.TotalRegisters, cfg.MinRegistersPerContext, cfg.MaxContexts, cfg.ReallocationInterval, cycles, len(plans))
		startTime := time.Now()

		s := sim.NewSimulator(alloc, plans, cycles, reportEvery)
		s.Run()
		s.Metrics.Print(os.Stdout, cfg)

		if summarizeTrace && allocTrace.Enabled() {
			printTraceSummary(os.Stdout, trace.Summarize(allocTrace))
		}
		if resultsPath != "" {
			if err := s.Metrics.SaveResults(resultsPath, cfg); err != nil {
				logrus.Fatalf("Failed to save results: %v", err)
			}
		}
		if s.Metrics.InvariantViolations > 0 {
			logrus.Errorf("%d cycles violated the register pool invariants", s.Metrics.InvariantViolations)
		}

		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// resolveAllocatorConfig overlays bundle values onto the flag-derived config.
// A field whose flag was explicitly set keeps the flag value.
func resolveAllocatorConfig(bundle *sim.AllocatorBundle, cfg sim.AllocatorConfig, changed func(flag string) bool) sim.AllocatorConfig {
	bundle.ApplyTo(&cfg, func(field string) bool {
		return changed(bundleFlags[field])
	})
	return cfg
}

// loadWorkload resolves the workload spec from --workload or --scenario.
// An explicitly set --seed replaces the spec's seed.
func loadWorkload(cmd *cobra.Command) *workload.WorkloadSpec {
	var spec *workload.WorkloadSpec
	if workloadPath != "" {
		loaded, err := workload.LoadWorkloadSpec(workloadPath)
		if err != nil {
			logrus.Fatalf("Failed to load workload spec: %v", err)
		}
		spec = loaded
		if cmd.Flags().Changed("seed") {
			spec.Seed = seed
		}
	} else {
		spec = workload.NewScenario(scenario, seed, cycles)
		if spec == nil {
			logrus.Fatalf("Unknown scenario %q. Valid: %v", scenario, workload.ValidScenarioNames())
		}
	}
	return spec
}

// printTraceSummary writes per-trigger counts and per-context share ranges.
func printTraceSummary(w io.Writer, summary *trace.TraceSummary) {
	fmt.Fprintln(w, "\n=== Redistribution Trace Summary ===")
	fmt.Fprintf(w, "Total Redistributions: %d (fallback %d)\n", summary.TotalReallocations, summary.FallbackCount)
	for _, trig := range []trace.Trigger{trace.TriggerRegister, trace.TriggerDeregister, trace.TriggerInterval, trace.TriggerForced} {
		fmt.Fprintf(w, "  %-11s: %d\n", trig, summary.ByTrigger[trig])
	}
	ids := make([]int, 0, len(summary.PerContext))
	for id := range summary.PerContext {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		st := summary.PerContext[id]
		fmt.Fprintf(w, "  context %-4d min=%-4d max=%-4d mean=%.2f over %d decisions\n", id, st.Min, st.Max, st.Mean, st.Count)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for per-context counter generation")
	runCmd.Flags().Int64Var(&cycles, "cycles", 10000, "Number of simulated cycles")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&workloadPath, "workload", "", "Path to workload spec YAML (overrides --scenario)")
	runCmd.Flags().StringVar(&scenario, "scenario", "diverse-mix", fmt.Sprintf("Built-in workload scenario (%s)", strings.Join(workload.ValidScenarioNames(), ", ")))
	runCmd.Flags().Int64Var(&reportInterval, "report-interval", 0, "Cycles between counter reports (default from workload spec)")
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to allocator config YAML")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "Write run metrics as JSON to this path")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Redistribution trace level (none, decisions)")
	runCmd.Flags().BoolVar(&summarizeTrace, "summarize-trace", false, "Print redistribution trace summary")

	// Register file configs
	runCmd.Flags().IntVar(&totalRegisters, "total-registers", 128, "Rename registers in the shared pool")
	runCmd.Flags().IntVar(&minRegisters, "min-registers", 16, "Guaranteed registers per active context")
	runCmd.Flags().IntVar(&maxContexts, "max-contexts", 4, "Hardware context slots")
	runCmd.Flags().Int64Var(&reallocationInterval, "realloc-interval", sim.DefaultReallocationInterval, "Cycles between scheduled redistributions")
	runCmd.Flags().StringVar(&scorerName, "scorer", "inverse-miss-rate", "Performance scorer (inverse-miss-rate, equal-share)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
