// Package sim provides the discrete-event simulation core of the stroke
// patient-flow model.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - config.go: the Param aggregate (arrivals, lengths of stay, routing, beds, run settings)
//   - event.go: event types that drive the simulation (Arrival, Admission, Departure, Audit, WarmUp)
//   - simulator.go: the event loop, warm-up boundary and result collection
//   - process.go: how a patient moves between units
//   - resource.go: beds with FIFO queues, pooling and right-censored busy time
//
// # Time
//
// Simulated time is a float64 number of days. Events at the same instant run
// in priority order (warm-up, departure, admission, arrival, audit) and then
// in the order they were scheduled, so a replication is fully determined by
// its parameters and SimulationKey.
//
// # Sub-packages
//
//   - sim/stats/: running mean/variance estimators, plain and time-weighted
//   - sim/replication/: parallel replication runner and the replications algorithm
//   - sim/trace/: optional per-patient admission and routing records
package sim
