// Package traffic defines YAML-loadable scenarios and synthesizes the
// reproducible packet workloads that drive a simulated link.
package traffic

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ggarber/netsim/sim"
)

// Arrival processes supported by FlowSpec.
const (
	ArrivalConstant = "constant"
	ArrivalPoisson  = "poisson"
)

// Spec is the top-level scenario configuration, loaded from YAML via
// Load(path) or synthesized from flags by the CLI.
type Spec struct {
	// Seed for the run: the link's generator is seeded with Seed and the
	// workload generator with Seed+1. Defaults to 1.
	Seed uint64 `yaml:"seed"`
	// Simulation horizon in microseconds.
	HorizonUs int64 `yaml:"horizon_us"`
	// Link configuration under test.
	Link sim.Config `yaml:"link"`
	// Flows to offer to the link.
	Flows []FlowSpec `yaml:"flows"`
}

// FlowSpec defines one synthetic packet flow.
type FlowSpec struct {
	ID string `yaml:"id"`
	// Arrival process: "constant" or "poisson".
	Arrival string `yaml:"arrival"`
	// Mean arrival rate in packets per second.
	RatePps float64 `yaml:"rate_pps"`
	// Packet size distribution (bytes). A zero deviation makes every
	// packet exactly SizeBytes.
	SizeBytes       int `yaml:"size_bytes"`
	SizeStdDevBytes int `yaml:"size_stddev_bytes"`
	SizeMinBytes    int `yaml:"size_min_bytes"`
	SizeMaxBytes    int `yaml:"size_max_bytes"` // 0 = unbounded
	// Active interval; StopUs 0 means run to the horizon.
	StartUs int64 `yaml:"start_us,omitempty"`
	StopUs  int64 `yaml:"stop_us,omitempty"`
}

// Load reads, defaults, and validates a YAML scenario file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &spec, nil
}

// ApplyDefaults fills the fields a scenario file may omit. An omitted
// avg_burst_loss_length arrives as 0, which the link rejects, so it is
// treated as "burst loss disabled".
func (s *Spec) ApplyDefaults() {
	if s.Seed == 0 {
		s.Seed = 1
	}
	if s.Link.AvgBurstLossLength == 0 {
		s.Link.AvgBurstLossLength = sim.BurstLossDisabled
	}
}

// Validate reports the first problem with the scenario.
func (s *Spec) Validate() error {
	if s.HorizonUs <= 0 {
		return fmt.Errorf("horizon_us must be > 0, got %d", s.HorizonUs)
	}
	if err := s.Link.Validate(); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	if len(s.Flows) == 0 {
		return fmt.Errorf("at least one flow is required")
	}
	for i, flow := range s.Flows {
		if err := flow.validate(); err != nil {
			return fmt.Errorf("flow %d (%s): %w", i, flow.ID, err)
		}
	}
	return nil
}

func (f FlowSpec) validate() error {
	switch f.Arrival {
	case ArrivalConstant, ArrivalPoisson:
	default:
		return fmt.Errorf("arrival must be %q or %q, got %q",
			ArrivalConstant, ArrivalPoisson, f.Arrival)
	}
	if f.RatePps <= 0 {
		return fmt.Errorf("rate_pps must be > 0, got %v", f.RatePps)
	}
	if f.SizeBytes <= 0 {
		return fmt.Errorf("size_bytes must be > 0, got %d", f.SizeBytes)
	}
	if f.SizeStdDevBytes < 0 {
		return fmt.Errorf("size_stddev_bytes must be >= 0, got %d", f.SizeStdDevBytes)
	}
	if f.SizeMaxBytes != 0 && f.SizeMaxBytes < f.SizeMinBytes {
		return fmt.Errorf("size_max_bytes %d < size_min_bytes %d",
			f.SizeMaxBytes, f.SizeMinBytes)
	}
	if f.StartUs < 0 {
		return fmt.Errorf("start_us must be >= 0, got %d", f.StartUs)
	}
	if f.StopUs != 0 && f.StopUs < f.StartUs {
		return fmt.Errorf("stop_us %d < start_us %d", f.StopUs, f.StartUs)
	}
	return nil
}
