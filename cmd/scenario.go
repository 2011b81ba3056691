package cmd

import (
	"github.com/ggarber/netsim/sim"
	"github.com/ggarber/netsim/sim/traffic"
)

// synthesizeFromFlags builds a single-flow scenario from the run
// command's link and flow flags, for quick experiments that need no
// scenario file.
func synthesizeFromFlags() *traffic.Spec {
	return &traffic.Spec{
		Seed:      seed,
		HorizonUs: horizonUs,
		Link: sim.Config{
			QueueLengthPackets:       queueLenPackets,
			QueueDelayMs:             queueDelayMs,
			DelayStandardDeviationMs: delayStdDevMs,
			LinkCapacityKbps:         linkCapacityKbps,
			LossPercent:              lossPercent,
			AllowReordering:          allowReordering,
			AvgBurstLossLength:       avgBurstLossLen,
			PacketOverhead:           packetOverhead,
		},
		Flows: []traffic.FlowSpec{
			{
				ID:        "cli",
				Arrival:   flowArrival,
				RatePps:   flowRatePps,
				SizeBytes: flowPacketSize,
			},
		},
	}
}
