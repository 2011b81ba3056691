// sim/simulator.go
//
// The discrete-event loop that drives a SimulatedNetwork: arrivals are
// scheduled up front, delivery polling is re-armed after every event from
// the network's own next-delivery oracle.

package sim

import (
	"container/heap"

	"github.com/sirupsen/logrus"
)

// EventQueue implements heap.Interface and orders events by timestamp.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []Event

func (eq EventQueue) Len() int           { return len(eq) }
func (eq EventQueue) Less(i, j int) bool { return eq[i].Timestamp() < eq[j].Timestamp() }
func (eq EventQueue) Swap(i, j int)      { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Simulator owns simulated time and the event loop around one
// SimulatedNetwork. The network itself never consults a clock; the
// simulator advances time event by event and polls the network only at
// times the network's NextDeliveryTimeUs oracle announced.
type Simulator struct {
	Clock     int64
	HorizonUs int64
	// EventQueue holds all pending events, arrivals and delivery polls.
	EventQueue EventQueue
	Network    *SimulatedNetwork
	Metrics    *Metrics

	// Timestamp of the earliest pending DeliverEvent, or -1 when none.
	pendingDeliverUs int64
}

// NewSimulator creates a simulator around network that stops once the
// clock passes horizonUs.
func NewSimulator(horizonUs int64, network *SimulatedNetwork) *Simulator {
	return &Simulator{
		HorizonUs:        horizonUs,
		EventQueue:       make(EventQueue, 0),
		Network:          network,
		Metrics:          NewMetrics(),
		pendingDeliverUs: -1,
	}
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.EventQueue, ev)
}

// ScheduleArrivals schedules one ArrivalEvent per packet at its send
// time. Packets must already be in send-time order for the network's
// monotonicity contract to hold.
func (sim *Simulator) ScheduleArrivals(packets []PacketInFlight) {
	for _, packet := range packets {
		sim.Schedule(&ArrivalEvent{time: packet.SendTimeUs, Packet: packet})
	}
}

// Run pops events in timestamp order until the queue drains or the
// horizon is passed, re-arming delivery polling after every event.
func (sim *Simulator) Run() {
	for len(sim.EventQueue) > 0 {
		ev := heap.Pop(&sim.EventQueue).(Event)
		if ev.Timestamp() > sim.HorizonUs {
			break
		}
		sim.Clock = ev.Timestamp()
		logrus.Debugf("[%07d us] executing %T", sim.Clock, ev)
		if _, isDeliver := ev.(*DeliverEvent); isDeliver {
			sim.pendingDeliverUs = -1
		}
		ev.Execute(sim)
		sim.armDeliver()
	}
	logrus.Debugf("[%07d us] simulation ended", sim.Clock)
}

// armDeliver keeps a DeliverEvent pending at the network's next delivery
// time. A poll that would land in the simulated past (a packet matured
// during the event just executed) is clamped to the current clock.
func (sim *Simulator) armDeliver() {
	nextUs, ok := sim.Network.NextDeliveryTimeUs()
	if !ok {
		return
	}
	if nextUs < sim.Clock {
		nextUs = sim.Clock
	}
	if sim.pendingDeliverUs != -1 && sim.pendingDeliverUs <= nextUs {
		return
	}
	sim.Schedule(&DeliverEvent{time: nextUs})
	sim.pendingDeliverUs = nextUs
}
