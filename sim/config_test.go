package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigState_IndependentLoss(t *testing.T) {
	// GIVEN independent (Bernoulli) loss of 10%
	state := newConfigState(Config{
		LossPercent:        10,
		AvgBurstLossLength: BurstLossDisabled,
	}, 0)

	// THEN both probabilities collapse to the raw rate
	assert.InDelta(t, 0.1, state.probStartBursting, 1e-12)
	assert.InDelta(t, 0.1, state.probLossBursting, 1e-12)
}

func TestNewConfigState_BurstDerivation(t *testing.T) {
	// GIVEN 50% loss in bursts of mean length 5
	state := newConfigState(Config{
		LossPercent:        50,
		AvgBurstLossLength: 5,
	}, 0)

	// THEN staying in a burst keeps the mean run length at 5 packets
	// and the start probability pins the stationary loss at 50%
	assert.InDelta(t, 0.8, state.probLossBursting, 1e-12)
	assert.InDelta(t, 0.2, state.probStartBursting, 1e-12)
}

func TestNewConfigState_BurstLengthOne_NeverStays(t *testing.T) {
	state := newConfigState(Config{
		LossPercent:        20,
		AvgBurstLossLength: 1,
	}, 0)

	assert.InDelta(t, 0.0, state.probLossBursting, 1e-12)
	assert.InDelta(t, 0.25, state.probStartBursting, 1e-12)
}

func TestNewConfigState_FullLoss_ClampsToOne(t *testing.T) {
	state := newConfigState(Config{
		LossPercent:        100,
		AvgBurstLossLength: 4,
	}, 0)

	assert.InDelta(t, 1.0, state.probStartBursting, 1e-12)
}

func TestNewConfigState_ZeroLoss(t *testing.T) {
	state := newConfigState(Config{
		LossPercent:        0,
		AvgBurstLossLength: 3,
	}, 0)

	assert.InDelta(t, 0.0, state.probStartBursting, 1e-12)
}

func TestNewConfigState_InvalidBurstLength_Panics(t *testing.T) {
	assert.Panics(t, func() {
		newConfigState(Config{AvgBurstLossLength: 0}, 0)
	})
	assert.Panics(t, func() {
		newConfigState(Config{AvgBurstLossLength: -2}, 0)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		QueueLengthPackets: 10,
		LinkCapacityKbps:   500,
		LossPercent:        5,
		AvgBurstLossLength: BurstLossDisabled,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative queue length", func(c *Config) { c.QueueLengthPackets = -1 }},
		{"negative queue delay", func(c *Config) { c.QueueDelayMs = -1 }},
		{"negative delay deviation", func(c *Config) { c.DelayStandardDeviationMs = -1 }},
		{"negative capacity", func(c *Config) { c.LinkCapacityKbps = -1 }},
		{"loss below range", func(c *Config) { c.LossPercent = -1 }},
		{"loss above range", func(c *Config) { c.LossPercent = 101 }},
		{"zero burst length", func(c *Config) { c.AvgBurstLossLength = 0 }},
		{"negative overhead", func(c *Config) { c.PacketOverhead = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
