package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ggarber/netsim/sim"
	"github.com/ggarber/netsim/sim/traffic"
)

var (
	// CLI flags for the run command
	scenarioPath string // Path to a YAML scenario file (overrides link/flow flags)
	seed         uint64 // Seed for the link and workload generators
	horizonUs    int64  // Total simulation time (in microseconds)
	logLevel     string // Log verbosity level

	// Link flags, used when no scenario file is given
	linkCapacityKbps int     // Link capacity in kbps (0 = infinite)
	queueLenPackets  int     // Capacity queue bound in packets (0 = unbounded)
	queueDelayMs     int     // Mean extra delay in ms
	delayStdDevMs    int     // Std-dev of the extra delay in ms
	lossPercent      int     // Steady-state packet loss percent
	allowReordering  bool    // Whether jitter may reorder packets
	avgBurstLossLen  int     // Mean loss-burst length (-1 = independent loss)
	packetOverhead   int     // Bytes added to each packet for serialization
	flowRatePps      float64 // Packet rate of the synthetic flow
	flowPacketSize   int     // Packet size in bytes
	flowArrival      string  // Arrival process: constant or poisson
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "netsim",
	Short: "Deterministic simulator for a single network link",
}

// runCmd executes one scenario using parameters from a YAML file or from
// CLI flags.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a link simulation scenario",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		spec, err := loadSpec(cmd)
		if err != nil {
			logrus.Fatalf("Unable to load scenario: %v", err)
		}

		logrus.Infof("Starting simulation: horizon=%dus capacity=%dkbps loss=%d%% seed=%d",
			spec.HorizonUs, spec.Link.LinkCapacityKbps, spec.Link.LossPercent, spec.Seed)

		// The workload generator gets its own stream, offset from the
		// link's so jitter draws do not correlate with interarrivals.
		packets := traffic.Generate(spec, sim.NewRandom(spec.Seed+1))
		logrus.Infof("Generated %d packets across %d flows", len(packets), len(spec.Flows))

		network := sim.NewSimulatedNetwork(spec.Link, spec.Seed)
		simulator := sim.NewSimulator(spec.HorizonUs, network)
		simulator.ScheduleArrivals(packets)
		simulator.Run()

		simulator.Metrics.Print()
	},
}

// loadSpec resolves the scenario: a YAML file when given, otherwise one
// synthesized from the link and flow flags. Explicitly-set seed and
// horizon flags override the file.
func loadSpec(cmd *cobra.Command) (*traffic.Spec, error) {
	if scenarioPath == "" {
		spec := synthesizeFromFlags()
		spec.ApplyDefaults()
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		return spec, nil
	}
	spec, err := traffic.Load(scenarioPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		spec.Seed = seed
	}
	if cmd.Flags().Changed("horizon-us") {
		spec.HorizonUs = horizonUs
	}
	return spec, nil
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file")
	runCmd.Flags().Uint64Var(&seed, "seed", 1, "Random seed (0 is perturbed to 1)")
	runCmd.Flags().Int64Var(&horizonUs, "horizon-us", 10_000_000, "Simulation horizon in microseconds")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")

	runCmd.Flags().IntVar(&linkCapacityKbps, "capacity-kbps", 1000, "Link capacity in kbps (0 = infinite)")
	runCmd.Flags().IntVar(&queueLenPackets, "queue-packets", 0, "Capacity queue bound in packets (0 = unbounded)")
	runCmd.Flags().IntVar(&queueDelayMs, "delay-ms", 0, "Mean extra delay in ms")
	runCmd.Flags().IntVar(&delayStdDevMs, "delay-stddev-ms", 0, "Std-dev of extra delay in ms")
	runCmd.Flags().IntVar(&lossPercent, "loss-percent", 0, "Steady-state loss percent")
	runCmd.Flags().BoolVar(&allowReordering, "allow-reordering", false, "Allow jitter to reorder packets")
	runCmd.Flags().IntVar(&avgBurstLossLen, "burst-loss-length", sim.BurstLossDisabled, "Mean loss-burst length (-1 = independent loss)")
	runCmd.Flags().IntVar(&packetOverhead, "packet-overhead", 0, "Bytes added per packet for serialization")
	runCmd.Flags().Float64Var(&flowRatePps, "rate-pps", 100, "Synthetic flow rate in packets per second")
	runCmd.Flags().IntVar(&flowPacketSize, "packet-size", 1000, "Synthetic flow packet size in bytes")
	runCmd.Flags().StringVar(&flowArrival, "arrival", traffic.ArrivalConstant, "Arrival process (constant|poisson)")

	rootCmd.AddCommand(runCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
