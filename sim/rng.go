package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// === SimulationKey ===

// SimulationKey uniquely identifies the random streams of one replication.
// Two simulations with the same SimulationKey and identical parameters
// MUST produce bit-for-bit identical results, whatever the worker count.
type SimulationKey struct {
	Seed        int64
	Replication int
}

// NewSimulationKey creates a SimulationKey for replication index rep.
func NewSimulationKey(seed int64, rep int) SimulationKey {
	return SimulationKey{Seed: seed, Replication: rep}
}

// === Subsystem names ===

// SubsystemArrivals returns the stream name for arrivals of type t at unit u.
func SubsystemArrivals(u Unit, t PatientType) string {
	return fmt.Sprintf("arrivals/%s/%s", u, t)
}

// SubsystemRouting returns the stream name for destination draws of type t
// leaving unit u.
func SubsystemRouting(u Unit, t PatientType) string {
	return fmt.Sprintf("routing/%s/%s", u, t)
}

// SubsystemLOS returns the stream name for lengths of stay at unit u for key k.
func SubsystemLOS(u Unit, k RoutingKey) string {
	return fmt.Sprintf("los/%s/%s", u, k)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated PCG streams per subsystem.
//
// Derivation: the replication state word is splitmix64 applied to the seed
// and then to the replication index; the stream word is fnv1a64(name). Each
// (seed, replication, name) triple therefore owns an independent stream and
// adding a new subsystem never shifts the draws of existing ones.
//
// Thread-safety: NOT thread-safe. Each replication owns its own instance.
type PartitionedRNG struct {
	key        SimulationKey
	state      uint64
	subsystems map[string]*rand.PCG
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		state:      splitmix64(splitmix64(uint64(key.Seed)) + uint64(key.Replication)),
		subsystems: make(map[string]*rand.PCG),
	}
}

// ForSubsystem returns the source for the named subsystem.
// The same name always returns the same instance (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.PCG {
	if src, ok := p.subsystems[name]; ok {
		return src
	}
	src := rand.NewPCG(p.state, fnv1a64(name))
	p.subsystems[name] = src
	return src
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// splitmix64 is the SplitMix64 finalizer, a bijective 64-bit mixer.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
