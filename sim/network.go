// sim/network.go
//
// The simulated link itself: a capacity stage that clocks bits out at
// link rate, followed by a delay stage that models propagation delay and
// jitter, with a Gilbert-Elliott loss model deciding packet fate at the
// boundary between the two.

package sim

import (
	"fmt"
	"math"
	"sort"
)

// SimulatedNetwork models a single network link. It supports:
//   - packet loss (independent or bursty)
//   - capacity-induced delay
//   - extra delay with or without packet reordering
//   - packet overhead
//   - a bounded capacity queue
//
// The simulator is driven entirely by caller-supplied timestamps; it
// performs no I/O, keeps no wall-clock time, and never logs. Callers must
// serialize access.
type SimulatedNetwork struct {
	// capacityLink holds packets until their bits have been clocked out
	// at link rate. Strict FIFO.
	//
	// Invariant: the head's arrivalTimeUs is the correct capacity-exit
	// time under the current configState, given the exit time of the
	// packet ahead of it and the head's own size.
	capacityLink packetFIFO
	// delayLink holds packets that have left the capacity stage but are
	// not yet delivered; they no longer consume link capacity. The slice
	// is ordered by arrival iff reordering has been disallowed for the
	// lifetime of every resident packet.
	delayLink []packetInfo

	configState configState
	random      *Random

	// True while the loss model is inside a drop burst.
	bursting bool

	// Send time of the last enqueued packet, used only to enforce that
	// send times are monotone non-decreasing.
	lastEnqueueTimeUs int64
	// Exit time of the most recently enqueued packet; serialization of
	// queued packets chains off it.
	lastCapacityExitTimeUs int64
	// Exit time of the most recent packet to leave the capacity link.
	// Re-clocking after a reconfiguration chains the head off this value
	// so no exit is ever scheduled before a departure that already
	// happened.
	lastDepartureTimeUs int64
}

// NewSimulatedNetwork creates a link with the given configuration and
// random seed. Seed 0 is perturbed (see NewRandom). Panics if
// AvgBurstLossLength is neither >= 1 nor BurstLossDisabled; the other
// fields are not checked, so validate externally-supplied configurations
// first.
func NewSimulatedNetwork(config Config, seed uint64) *SimulatedNetwork {
	return &SimulatedNetwork{
		configState: newConfigState(config, 0),
		random:      NewRandom(seed),
	}
}

// SetConfig installs a new configuration. Packets still in the capacity
// stage are re-clocked under the new capacity, overhead and pause;
// packets already in the delay stage keep their delivery times.
func (n *SimulatedNetwork) SetConfig(config Config) {
	n.setConfigState(newConfigState(config, n.configState.pauseTransmissionUntilUs))
}

// UpdateConfig applies modifier to a copy of the current configuration
// and installs the result, with the same effects as SetConfig.
func (n *SimulatedNetwork) UpdateConfig(modifier func(*Config)) {
	config := n.configState.config
	modifier(&config)
	n.SetConfig(config)
}

// PauseTransmissionUntil silences the link until untilUs. Packets in the
// capacity stage are re-clocked so that nothing exits before then.
func (n *SimulatedNetwork) PauseTransmissionUntil(untilUs int64) {
	n.setConfigState(newConfigState(n.configState.config, untilUs))
}

func (n *SimulatedNetwork) setConfigState(state configState) {
	n.configState = state
	n.reclockCapacityLink()
}

// reclockCapacityLink recomputes every capacity-link exit time under the
// current configState, head to tail, each packet chaining off the one
// ahead of it.
func (n *SimulatedNetwork) reclockCapacityLink() {
	previousExitUs := n.lastDepartureTimeUs
	items := n.capacityLink.Items()
	for i := range items {
		items[i].arrivalTimeUs = n.capacityExitTime(items[i].packet, previousExitUs)
		previousExitUs = items[i].arrivalTimeUs
	}
	if len(items) > 0 {
		n.lastCapacityExitTimeUs = previousExitUs
	}
}

// capacityExitTime computes when packet's last bit clears the link, given
// the exit time of the packet ahead of it.
func (n *SimulatedNetwork) capacityExitTime(packet PacketInFlight, previousExitUs int64) int64 {
	startUs := packet.SendTimeUs
	if previousExitUs > startUs {
		startUs = previousExitUs
	}
	if n.configState.pauseTransmissionUntilUs > startUs {
		startUs = n.configState.pauseTransmissionUntilUs
	}
	capacityKbps := int64(n.configState.config.LinkCapacityKbps)
	if capacityKbps == 0 {
		// Infinite bandwidth: serialization is instantaneous.
		return startUs
	}
	bits := (int64(packet.Size) + int64(n.configState.config.PacketOverhead)) * 8
	// kbps is bits per millisecond. Round up so bandwidth is never
	// overstated.
	durationUs := (bits*1000 + capacityKbps - 1) / capacityKbps
	return startUs + durationUs
}

// EnqueuePacket offers a packet to the link. It returns false when the
// capacity queue is full, in which case the packet is discarded. Send
// times must be monotone non-decreasing across calls; violations panic.
func (n *SimulatedNetwork) EnqueuePacket(packet PacketInFlight) bool {
	if packet.SendTimeUs < n.lastEnqueueTimeUs {
		panic(fmt.Sprintf("netsim: non-monotone send time %d after %d",
			packet.SendTimeUs, n.lastEnqueueTimeUs))
	}
	n.lastEnqueueTimeUs = packet.SendTimeUs

	// Flush already-serialized packets forward to the delay stage before
	// sizing this packet's slot.
	n.updateCapacityQueue(packet.SendTimeUs)

	limit := n.configState.config.QueueLengthPackets
	if limit > 0 && n.capacityLink.Len() >= limit {
		return false
	}

	exitUs := n.capacityExitTime(packet, n.lastCapacityExitTimeUs)
	n.capacityLink.Enqueue(packetInfo{packet: packet, arrivalTimeUs: exitUs})
	n.lastCapacityExitTimeUs = exitUs
	return true
}

// updateCapacityQueue promotes every capacity-link head whose exit time
// has been reached into the delay stage, deciding loss and jitter at the
// moment of exit.
func (n *SimulatedNetwork) updateCapacityQueue(nowUs int64) {
	for n.capacityLink.Len() > 0 && n.capacityLink.Peek().arrivalTimeUs <= nowUs {
		info := n.capacityLink.Dequeue()
		n.lastDepartureTimeUs = info.arrivalTimeUs

		if n.dropAtCapacityExit() {
			// Lost packets vanish without a delivery record.
			continue
		}

		deliveryUs := info.arrivalTimeUs + n.extraDelayUs()
		if !n.configState.config.AllowReordering {
			// FIFO: never deliver before the latest packet already in
			// the delay link.
			if latestUs, ok := n.maxDelayArrivalUs(); ok && latestUs > deliveryUs {
				deliveryUs = latestUs
			}
		}
		info.arrivalTimeUs = deliveryUs
		n.delayLink = append(n.delayLink, info)
	}
}

// dropAtCapacityExit runs one step of the loss state machine and reports
// whether the exiting packet is lost.
func (n *SimulatedNetwork) dropAtCapacityExit() bool {
	state := &n.configState
	draw := n.random.Float64()
	if state.config.AvgBurstLossLength == BurstLossDisabled {
		// Independent loss; the burst state stays pinned to normal.
		return draw < state.probStartBursting
	}
	if n.bursting {
		if draw < state.probLossBursting {
			return true
		}
		n.bursting = false
		return false
	}
	if draw < state.probStartBursting {
		n.bursting = true
		return true
	}
	return false
}

// extraDelayUs draws the jitter added after the capacity stage. The
// Gaussian is drawn even when the deviation is zero so the random stream
// depends only on the sequence of packet fates, not on the configuration
// in force at each exit.
func (n *SimulatedNetwork) extraDelayUs() int64 {
	delayMs := int64(math.Round(n.random.Gaussian(
		float64(n.configState.config.QueueDelayMs),
		float64(n.configState.config.DelayStandardDeviationMs))))
	if delayMs < 0 {
		delayMs = 0
	}
	return delayMs * 1000
}

// maxDelayArrivalUs returns the greatest arrival time currently in the
// delay link. A full scan, rather than the back element, keeps the FIFO
// clamp correct even after an interval in which reordering was allowed.
func (n *SimulatedNetwork) maxDelayArrivalUs() (int64, bool) {
	if len(n.delayLink) == 0 {
		return 0, false
	}
	maxUs := n.delayLink[0].arrivalTimeUs
	for _, info := range n.delayLink[1:] {
		if info.arrivalTimeUs > maxUs {
			maxUs = info.arrivalTimeUs
		}
	}
	return maxUs, true
}

// DequeueDeliverablePackets removes and returns every packet whose
// delivery time has been reached, ordered by delivery time ascending with
// ties broken by enqueue order. With reordering disallowed this is the
// enqueue order overall.
func (n *SimulatedNetwork) DequeueDeliverablePackets(nowUs int64) []PacketDelivery {
	n.updateCapacityQueue(nowUs)

	var deliverable []packetInfo
	remaining := n.delayLink[:0]
	for _, info := range n.delayLink {
		if info.arrivalTimeUs <= nowUs {
			deliverable = append(deliverable, info)
		} else {
			remaining = append(remaining, info)
		}
	}
	n.delayLink = remaining

	sort.SliceStable(deliverable, func(i, j int) bool {
		return deliverable[i].arrivalTimeUs < deliverable[j].arrivalTimeUs
	})
	deliveries := make([]PacketDelivery, 0, len(deliverable))
	for _, info := range deliverable {
		deliveries = append(deliveries, PacketDelivery{
			PacketID:      info.packet.PacketID,
			ReceiveTimeUs: info.arrivalTimeUs,
		})
	}
	return deliveries
}

// NextDeliveryTimeUs returns the earliest simulated time at which the
// link may have a packet to deliver: the capacity head's exit time or the
// minimum delay-link arrival, whichever is sooner. The second result is
// false when both stages are empty.
func (n *SimulatedNetwork) NextDeliveryTimeUs() (int64, bool) {
	nextUs := int64(0)
	ok := false
	if n.capacityLink.Len() > 0 {
		nextUs = n.capacityLink.Peek().arrivalTimeUs
		ok = true
	}
	for _, info := range n.delayLink {
		if !ok || info.arrivalTimeUs < nextUs {
			nextUs = info.arrivalTimeUs
			ok = true
		}
	}
	return nextUs, ok
}
