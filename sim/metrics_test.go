package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_EmptyRun(t *testing.T) {
	summary := NewMetrics().Compute()
	assert.Equal(t, Summary{}, summary)
}

func TestMetrics_CountsAndTransitPercentiles(t *testing.T) {
	// GIVEN three delivered packets with transits 100, 200, 300 us
	m := NewMetrics()
	for id := uint64(1); id <= 3; id++ {
		m.RecordOffered(PacketInFlight{Size: 1000, SendTimeUs: 0, PacketID: id})
		m.RecordDelivery(PacketDelivery{PacketID: id, ReceiveTimeUs: int64(id) * 100})
	}

	// WHEN the summary is computed
	summary := m.Compute()

	// THEN counters and percentiles reflect the recorded run
	assert.Equal(t, 3, summary.OfferedPackets)
	assert.Equal(t, 3, summary.DeliveredPackets)
	assert.Equal(t, 0, summary.LostPackets)
	assert.Equal(t, uint64(3000), summary.DeliveredBytes)
	assert.InDelta(t, 200.0, summary.MeanTransitUs, 1e-9)
	assert.InDelta(t, 200.0, summary.P50TransitUs, 1e-9)
	assert.InDelta(t, 300.0, summary.P95TransitUs, 1e-9)
	assert.InDelta(t, 300.0, summary.P99TransitUs, 1e-9)
}

func TestMetrics_RejectedPacketsAreNotLost(t *testing.T) {
	// GIVEN one delivered, one rejected, one in-flight loss
	m := NewMetrics()
	for id := uint64(1); id <= 3; id++ {
		m.RecordOffered(PacketInFlight{Size: 100, SendTimeUs: 0, PacketID: id})
	}
	m.RecordRejected(PacketInFlight{PacketID: 2})
	m.RecordDelivery(PacketDelivery{PacketID: 1, ReceiveTimeUs: 50})

	summary := m.Compute()

	assert.Equal(t, 3, summary.OfferedPackets)
	assert.Equal(t, 1, summary.RejectedPackets)
	assert.Equal(t, 1, summary.DeliveredPackets)
	// Only packet 3 entered the link and vanished.
	assert.Equal(t, 1, summary.LostPackets)
	assert.InDelta(t, 0.5, summary.LossRate, 1e-9)
}

func TestMetrics_DropRunLengths(t *testing.T) {
	// GIVEN the fate sequence D X X D X D (X = lost in flight)
	m := NewMetrics()
	for id := uint64(1); id <= 6; id++ {
		m.RecordOffered(PacketInFlight{Size: 100, SendTimeUs: 0, PacketID: id})
	}
	for _, id := range []uint64{1, 4, 6} {
		m.RecordDelivery(PacketDelivery{PacketID: id, ReceiveTimeUs: 10})
	}

	// THEN the runs are [2, 1] with mean 1.5
	summary := m.Compute()
	assert.Equal(t, 3, summary.LostPackets)
	assert.InDelta(t, 1.5, summary.MeanDropRunLength, 1e-9)
}

func TestMetrics_TrailingDropRunCounted(t *testing.T) {
	// GIVEN a run of losses at the very end of the sequence
	m := NewMetrics()
	for id := uint64(1); id <= 4; id++ {
		m.RecordOffered(PacketInFlight{Size: 100, SendTimeUs: 0, PacketID: id})
	}
	m.RecordDelivery(PacketDelivery{PacketID: 1, ReceiveTimeUs: 10})

	summary := m.Compute()
	assert.InDelta(t, 3.0, summary.MeanDropRunLength, 1e-9)
}
