package cmd

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/smt-regalloc/sim/workload"
)

var (
	templateScenario string
	templateSeed     int64
	templateHorizon  int64
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print a built-in scenario as a workload spec YAML",
	Long:  "Render a built-in scenario as a workload spec. Output is written to stdout and can be edited and passed back with run --workload.",
	Run: func(cmd *cobra.Command, args []string) {
		spec := workload.NewScenario(templateScenario, templateSeed, templateHorizon)
		if spec == nil {
			logrus.Fatalf("Unknown scenario %q. Valid: %v", templateScenario, workload.ValidScenarioNames())
		}
		writeSpecToStdout(spec)
	},
}

func writeSpecToStdout(spec *workload.WorkloadSpec) {
	data, err := workload.MarshalWorkloadSpec(spec)
	if err != nil {
		logrus.Fatalf("YAML marshal failed: %v", err)
	}
	fmt.Print(string(data))
}

func init() {
	templateCmd.Flags().StringVar(&templateScenario, "scenario", "diverse-mix", fmt.Sprintf("Built-in scenario to render (%s)", strings.Join(workload.ValidScenarioNames(), ", ")))
	templateCmd.Flags().Int64Var(&templateSeed, "seed", 42, "Seed written into the spec")
	templateCmd.Flags().Int64Var(&templateHorizon, "cycles", 10000, "Horizon used to place mid-run arrivals and departures")

	rootCmd.AddCommand(templateCmd)
}
