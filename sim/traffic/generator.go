package traffic

import (
	"math"
	"sort"

	"github.com/ggarber/netsim/sim"
)

// Generate synthesizes the merged packet stream for a scenario: every
// flow is expanded over its active interval, the streams are merged in
// send-time order, and packet IDs are assigned sequentially from 1 so
// that enqueue order equals ID order.
//
// Poisson interarrivals come from Random.Exponential and packet sizes
// from Random.Gaussian, so a scenario replays identically for a given
// seed.
func Generate(spec *Spec, random *sim.Random) []sim.PacketInFlight {
	var packets []sim.PacketInFlight
	for _, flow := range spec.Flows {
		packets = append(packets, generateFlow(flow, spec.HorizonUs, random)...)
	}
	sort.SliceStable(packets, func(i, j int) bool {
		return packets[i].SendTimeUs < packets[j].SendTimeUs
	})
	for i := range packets {
		packets[i].PacketID = uint64(i + 1)
	}
	return packets
}

// generateFlow expands one flow into packets. The first packet is sent at
// StartUs; subsequent send times advance by the flow's interarrival
// process.
func generateFlow(flow FlowSpec, horizonUs int64, random *sim.Random) []sim.PacketInFlight {
	stopUs := flow.StopUs
	if stopUs == 0 || stopUs > horizonUs {
		stopUs = horizonUs
	}

	var packets []sim.PacketInFlight
	sendUs := flow.StartUs
	for sendUs <= stopUs {
		packets = append(packets, sim.PacketInFlight{
			Size:       sampleSize(flow, random),
			SendTimeUs: sendUs,
		})
		sendUs += interarrivalUs(flow, random)
	}
	return packets
}

// interarrivalUs draws the gap to the next packet, at least 1 us so a
// flow always makes progress.
func interarrivalUs(flow FlowSpec, random *sim.Random) int64 {
	var gapUs int64
	switch flow.Arrival {
	case ArrivalPoisson:
		gapUs = int64(math.Round(random.Exponential(flow.RatePps) * 1e6))
	default:
		gapUs = int64(math.Round(1e6 / flow.RatePps))
	}
	if gapUs < 1 {
		gapUs = 1
	}
	return gapUs
}

// sampleSize draws one packet size and clamps it to the flow's bounds.
// Sizes are at least 1 byte.
func sampleSize(flow FlowSpec, random *sim.Random) uint64 {
	size := int64(math.Round(random.Gaussian(
		float64(flow.SizeBytes), float64(flow.SizeStdDevBytes))))
	if minBytes := int64(flow.SizeMinBytes); size < minBytes {
		size = minBytes
	}
	if flow.SizeMaxBytes != 0 && size > int64(flow.SizeMaxBytes) {
		size = int64(flow.SizeMaxBytes)
	}
	if size < 1 {
		size = 1
	}
	return uint64(size)
}
