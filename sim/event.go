package sim

import "github.com/sirupsen/logrus"

// Event defines the interface for all simulation events. Each event has a
// Timestamp (in microseconds) and an Execute method that advances
// simulation state when invoked.
type Event interface {
	Timestamp() int64
	Execute(*Simulator)
}

// ArrivalEvent hands one packet to the link at its send time.
type ArrivalEvent struct {
	time   int64
	Packet PacketInFlight
}

// Timestamp returns the scheduled time of the ArrivalEvent.
func (e *ArrivalEvent) Timestamp() int64 {
	return e.time
}

// Execute offers the packet to the network and records its fate.
func (e *ArrivalEvent) Execute(sim *Simulator) {
	logrus.Debugf("<< Arrival: packet %d (%d bytes) at %d us",
		e.Packet.PacketID, e.Packet.Size, e.time)

	sim.Metrics.RecordOffered(e.Packet)
	if !sim.Network.EnqueuePacket(e.Packet) {
		sim.Metrics.RecordRejected(e.Packet)
	}
}

// DeliverEvent polls the network for deliverable packets at the time
// promised by NextDeliveryTimeUs.
type DeliverEvent struct {
	time int64
}

// Timestamp returns the scheduled time of the DeliverEvent.
func (e *DeliverEvent) Timestamp() int64 {
	return e.time
}

// Execute drains every packet whose delivery time has been reached.
func (e *DeliverEvent) Execute(sim *Simulator) {
	deliveries := sim.Network.DequeueDeliverablePackets(e.time)
	logrus.Debugf("<< Deliver: %d packets at %d us", len(deliveries), e.time)
	for _, delivery := range deliveries {
		sim.Metrics.RecordDelivery(delivery)
	}
}
