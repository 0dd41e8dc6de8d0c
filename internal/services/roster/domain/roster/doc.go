// Package roster holds the sign-up roster entity and its mutation rules.
//
// A roster tracks a capacity-bounded occupant list, a FIFO overflow queue,
// and a per-sponsor guest registry. Guests appear inside the occupant and
// overflow lists as denormalized projections owned by the registry; only the
// operations in this package may create or remove those projections.
//
// Invariants maintained by every operation:
//   - len(Occupants) <= Capacity
//   - no participant ID appears twice across Occupants and Overflow
//   - every guest projection's sponsor is present in Occupants or Overflow
//   - Active transitions true -> false exactly once and never back
package roster
