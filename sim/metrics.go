// Aggregates per-run delivery statistics for final reporting: counters,
// transit-time percentiles, and the shape of loss bursts.

package sim

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Metrics records the fate of every packet offered to the link during a
// run. The core network knows nothing about it; the event loop feeds it.
type Metrics struct {
	// offered holds every packet handed to the link, in enqueue order.
	offered []PacketInFlight
	// rejected marks packets refused at enqueue (capacity queue full).
	rejected map[uint64]bool
	// received maps delivered packet IDs to their receive times.
	received map[uint64]int64
}

// NewMetrics creates an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		rejected: make(map[uint64]bool),
		received: make(map[uint64]int64),
	}
}

// RecordOffered notes a packet handed to the link.
func (m *Metrics) RecordOffered(packet PacketInFlight) {
	m.offered = append(m.offered, packet)
}

// RecordRejected notes a packet refused at enqueue.
func (m *Metrics) RecordRejected(packet PacketInFlight) {
	m.rejected[packet.PacketID] = true
}

// RecordDelivery notes a packet reaching the receiver.
func (m *Metrics) RecordDelivery(delivery PacketDelivery) {
	m.received[delivery.PacketID] = delivery.ReceiveTimeUs
}

// Summary is the aggregate view of a finished run.
type Summary struct {
	OfferedPackets   int
	RejectedPackets  int
	DeliveredPackets int
	// LostPackets counts packets that entered the link but were never
	// delivered: loss-model drops plus any packet still inside the link
	// when the run ended.
	LostPackets    int
	DeliveredBytes uint64
	// LossRate is LostPackets over packets that entered the link.
	LossRate float64

	MeanTransitUs float64
	P50TransitUs  float64
	P95TransitUs  float64
	P99TransitUs  float64

	// MeanDropRunLength is the mean length of runs of consecutive
	// undelivered packets among those that entered the link; it exposes
	// the burst shape of the loss model.
	MeanDropRunLength float64
}

// Compute builds the Summary for everything recorded so far.
func (m *Metrics) Compute() Summary {
	s := Summary{OfferedPackets: len(m.offered)}

	var transitTimes []float64
	var dropRuns []float64
	currentRun := 0
	entered := 0
	for _, packet := range m.offered {
		if m.rejected[packet.PacketID] {
			s.RejectedPackets++
			continue
		}
		entered++
		receiveUs, delivered := m.received[packet.PacketID]
		if !delivered {
			currentRun++
			continue
		}
		if currentRun > 0 {
			dropRuns = append(dropRuns, float64(currentRun))
			currentRun = 0
		}
		s.DeliveredPackets++
		s.DeliveredBytes += packet.Size
		transitTimes = append(transitTimes, float64(receiveUs-packet.SendTimeUs))
	}
	if currentRun > 0 {
		dropRuns = append(dropRuns, float64(currentRun))
	}

	s.LostPackets = entered - s.DeliveredPackets
	if entered > 0 {
		s.LossRate = float64(s.LostPackets) / float64(entered)
	}
	s.MeanTransitUs = meanOrZero(transitTimes)
	s.P50TransitUs = percentileOrZero(transitTimes, 50)
	s.P95TransitUs = percentileOrZero(transitTimes, 95)
	s.P99TransitUs = percentileOrZero(transitTimes, 99)
	s.MeanDropRunLength = meanOrZero(dropRuns)
	return s
}

// Print displays the aggregated metrics at the end of a simulation.
func (m *Metrics) Print() {
	s := m.Compute()
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Offered Packets    : %d\n", s.OfferedPackets)
	fmt.Printf("Rejected (queue)   : %d\n", s.RejectedPackets)
	fmt.Printf("Delivered Packets  : %d\n", s.DeliveredPackets)
	fmt.Printf("Lost In Flight     : %d (%.2f%%)\n", s.LostPackets, 100*s.LossRate)
	fmt.Printf("Delivered Bytes    : %d\n", s.DeliveredBytes)
	if s.DeliveredPackets > 0 {
		fmt.Printf("Transit Mean       : %.1f us\n", s.MeanTransitUs)
		fmt.Printf("Transit p50        : %.1f us\n", s.P50TransitUs)
		fmt.Printf("Transit p95        : %.1f us\n", s.P95TransitUs)
		fmt.Printf("Transit p99        : %.1f us\n", s.P99TransitUs)
	}
	if s.MeanDropRunLength > 0 {
		fmt.Printf("Mean Drop Run      : %.2f packets\n", s.MeanDropRunLength)
	}
}

func meanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return mean
}

func percentileOrZero(values []float64, percent float64) float64 {
	if len(values) == 0 {
		return 0
	}
	p, err := stats.PercentileNearestRank(values, percent)
	if err != nil {
		return 0
	}
	return p
}
