package sim

import "fmt"

// BurstLossDisabled selects independent per-packet (Bernoulli) loss
// instead of the Gilbert-Elliott burst model.
const BurstLossDisabled = -1

// Config describes the behavior of a simulated link. Every field is
// independently settable. The YAML tags serve the scenario layer; the
// core never touches files.
type Config struct {
	// Queue length in number of packets. 0 means unbounded.
	QueueLengthPackets int `yaml:"queue_length_packets"`
	// Mean delay added after the capacity stage, in milliseconds.
	QueueDelayMs int `yaml:"queue_delay_ms"`
	// Standard deviation of the extra delay, in milliseconds.
	DelayStandardDeviationMs int `yaml:"delay_standard_deviation_ms"`
	// Link capacity in kbps (decimal kilo). 0 means infinite.
	LinkCapacityKbps int `yaml:"link_capacity_kbps"`
	// Steady-state packet loss in percent, 0..100.
	LossPercent int `yaml:"loss_percent"`
	// Whether jitter may reorder packets.
	AllowReordering bool `yaml:"allow_reordering"`
	// Average length of a burst of lost packets. Must be >= 1, or
	// BurstLossDisabled for independent loss.
	AvgBurstLossLength int `yaml:"avg_burst_loss_length"`
	// Additional bytes added to each packet size for serialization
	// accounting (models framing and headers).
	PacketOverhead int `yaml:"packet_overhead"`
}

// Validate reports whether the configuration is usable. The core panics
// on an invalid AvgBurstLossLength and does not check the other fields;
// layers that accept external input (scenario files, flags) validate
// first.
func (c Config) Validate() error {
	if c.QueueLengthPackets < 0 {
		return fmt.Errorf("queue_length_packets must be >= 0, got %d", c.QueueLengthPackets)
	}
	if c.QueueDelayMs < 0 {
		return fmt.Errorf("queue_delay_ms must be >= 0, got %d", c.QueueDelayMs)
	}
	if c.DelayStandardDeviationMs < 0 {
		return fmt.Errorf("delay_standard_deviation_ms must be >= 0, got %d", c.DelayStandardDeviationMs)
	}
	if c.LinkCapacityKbps < 0 {
		return fmt.Errorf("link_capacity_kbps must be >= 0, got %d", c.LinkCapacityKbps)
	}
	if c.LossPercent < 0 || c.LossPercent > 100 {
		return fmt.Errorf("loss_percent must be in [0, 100], got %d", c.LossPercent)
	}
	if c.AvgBurstLossLength < 1 && c.AvgBurstLossLength != BurstLossDisabled {
		return fmt.Errorf("avg_burst_loss_length must be >= 1 or %d, got %d",
			BurstLossDisabled, c.AvgBurstLossLength)
	}
	if c.PacketOverhead < 0 {
		return fmt.Errorf("packet_overhead must be >= 0, got %d", c.PacketOverhead)
	}
	return nil
}

// configState freezes a Config together with the values derived from it.
// A new configState is produced on every reconfiguration; packets already
// in the delay link keep the timing computed under the state they exited
// the capacity stage with.
type configState struct {
	config Config
	// Probability of dropping the next packet while inside a loss burst.
	probLossBursting float64
	// Probability of starting a loss burst from the normal state.
	probStartBursting float64
	// The link transmits nothing before this time.
	pauseTransmissionUntilUs int64
}

// newConfigState derives the loss-model probabilities for config.
//
// With bursting enabled, the chain stays in the bursting state with
// probability 1-1/burst, so the mean drop-run length is exactly burst.
// The start probability is then fixed by requiring the stationary mass of
// the bursting state to equal the configured loss rate.
func newConfigState(config Config, pauseUntilUs int64) configState {
	state := configState{config: config, pauseTransmissionUntilUs: pauseUntilUs}

	loss := float64(config.LossPercent) / 100.0
	if config.AvgBurstLossLength == BurstLossDisabled {
		// Independent loss: both probabilities collapse to the raw rate.
		state.probStartBursting = loss
		state.probLossBursting = loss
		return state
	}
	if config.AvgBurstLossLength < 1 {
		panic(fmt.Sprintf("netsim: avg_burst_loss_length must be >= 1 or %d, got %d",
			BurstLossDisabled, config.AvgBurstLossLength))
	}
	burst := float64(config.AvgBurstLossLength)
	state.probLossBursting = clampProbability(1 - 1/burst)
	if loss >= 1 {
		state.probStartBursting = 1
	} else {
		state.probStartBursting = clampProbability(loss / ((1 - loss) * burst))
	}
	return state
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
