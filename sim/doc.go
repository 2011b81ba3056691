// Package sim provides a deterministic simulator for a single network
// link, driven entirely by caller-supplied timestamps.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - rng.go: the xorshift* generator whose integer stream is the
//     reproducibility contract
//   - network.go: the two-stage pipeline (capacity queue + delay queue),
//     the Gilbert-Elliott loss model, and the next-delivery oracle
//   - simulator.go: the discrete-event loop that advances time and polls
//     the link
//
// # Architecture
//
// SimulatedNetwork is the core: EnqueuePacket feeds it, the capacity
// stage clocks bits out at link rate, loss and jitter are decided at
// capacity exit, and DequeueDeliverablePackets drains matured packets.
// NextDeliveryTimeUs tells an enclosing scheduler when to poll next.
//
// Simulator is one such scheduler: a timestamp-ordered event heap that
// schedules packet arrivals and delivery polls. Synthetic workloads live
// in sim/traffic; Metrics aggregates delivery statistics for reporting.
//
// The core performs no I/O, no logging, and no locking; callers must
// serialize access.
package sim
