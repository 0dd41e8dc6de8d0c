package roster

// Placement reports where a join request landed.
type Placement int

const (
	// PlacementRejected means the roster is closed to mutations.
	PlacementRejected Placement = iota
	// PlacementAlreadyJoined means the identity was already present.
	PlacementAlreadyJoined
	// PlacementOccupants means the participant took a primary slot.
	PlacementOccupants
	// PlacementOverflow means the participant queued for a slot.
	PlacementOverflow
)

// Join places the participant in the occupant list when a slot is free,
// otherwise at the tail of the overflow queue. A joining sponsor's registered
// guests are projected immediately.
func (r *Roster) Join(id, displayName string) Placement {
	if !r.Active {
		return PlacementRejected
	}
	if r.Contains(id) {
		return PlacementAlreadyJoined
	}

	entry := Participant{ID: id, DisplayName: displayName}
	placement := PlacementOverflow
	if !r.AtCapacity() {
		r.Occupants = append(r.Occupants, entry)
		placement = PlacementOccupants
	} else {
		r.Overflow = append(r.Overflow, entry)
	}

	r.projectGuests(id)
	return placement
}

// JoinOverflow queues the participant directly on the overflow list,
// bypassing free primary slots. Used by the explicit reserve button.
func (r *Roster) JoinOverflow(id, displayName string) Placement {
	if !r.Active {
		return PlacementRejected
	}
	if r.Contains(id) {
		return PlacementAlreadyJoined
	}
	r.Overflow = append(r.Overflow, Participant{ID: id, DisplayName: displayName})
	r.projectGuests(id)
	return PlacementOverflow
}

// Leave removes the identity from the occupant list (checked first) or the
// overflow queue. Removing a sponsor cascades to that sponsor's guest
// projections; freed primary slots are refilled from the front of overflow.
// Returns false when the identity is not present anywhere.
func (r *Roster) Leave(id string) bool {
	if !r.Active {
		return false
	}

	if idx := indexByID(r.Occupants, id); idx >= 0 {
		r.Occupants = removeAt(r.Occupants, idx)
		r.dropGuestProjections(id)
		r.promote()
		return true
	}

	if idx := indexByID(r.Overflow, id); idx >= 0 {
		r.Overflow = removeAt(r.Overflow, idx)
		r.dropGuestProjections(id)
		r.promote()
		return true
	}

	return false
}

// Deactivate closes the roster to further mutations. Idempotent; there is no
// way back to the active state.
func (r *Roster) Deactivate() {
	r.Active = false
}

// promote refills primary slots from the front of the overflow queue,
// preserving the relative order of the remaining queue.
func (r *Roster) promote() {
	for !r.AtCapacity() && len(r.Overflow) > 0 {
		r.Occupants = append(r.Occupants, r.Overflow[0])
		r.Overflow = r.Overflow[1:]
	}
}
