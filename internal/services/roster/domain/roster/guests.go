package roster

import (
	"fmt"
	"strings"

	"github.com/louisbranch/pickup.football/internal/platform/id"
)

// GuestPolicy limits how many guests one sponsor can register. The organizer
// identity is exempt from the cap.
type GuestPolicy struct {
	OrganizerID string
	Cap         int
}

// capFor returns the guest cap for a sponsor; negative means unlimited.
func (p GuestPolicy) capFor(sponsorID string) int {
	if p.OrganizerID != "" && sponsorID == p.OrganizerID {
		return -1
	}
	return p.Cap
}

// AddGuest registers a named guest for a sponsor and, when the sponsor is
// currently on the roster, projects the guest into the occupant or overflow
// list. Duplicate names are matched case-insensitively per sponsor.
func (r *Roster) AddGuest(sponsorID, name string, policy GuestPolicy) error {
	if !r.Active {
		return ErrRosterClosed
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrGuestNameRequired
	}

	registered := r.Guests[sponsorID]
	if limit := policy.capFor(sponsorID); limit >= 0 && len(registered) >= limit {
		return ErrGuestLimitReached
	}
	for _, g := range registered {
		if strings.EqualFold(g.Name, name) {
			return ErrGuestDuplicate
		}
	}

	guestID, err := id.New()
	if err != nil {
		return fmt.Errorf("generate guest id: %w", err)
	}
	if r.Guests == nil {
		r.Guests = map[string][]Guest{}
	}
	r.Guests[sponsorID] = append(registered, Guest{
		ID:        "g-" + guestID,
		Name:      name,
		SponsorID: sponsorID,
	})

	r.projectGuests(sponsorID)
	return nil
}

// RemoveGuest deletes the registry entry matching the name (case-insensitive)
// and cascades removal of its projection. The freed slot is refilled by the
// standard promotion pass only.
func (r *Roster) RemoveGuest(sponsorID, name string) error {
	if !r.Active {
		return ErrRosterClosed
	}
	name = strings.TrimSpace(name)

	registered := r.Guests[sponsorID]
	idx := -1
	for i, g := range registered {
		if strings.EqualFold(g.Name, name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrGuestNotFound
	}

	guest := registered[idx]
	registered = append(registered[:idx], registered[idx+1:]...)
	if len(registered) == 0 {
		delete(r.Guests, sponsorID)
	} else {
		r.Guests[sponsorID] = registered
	}

	if i := indexByID(r.Occupants, guest.ID); i >= 0 {
		r.Occupants = removeAt(r.Occupants, i)
	} else if i := indexByID(r.Overflow, guest.ID); i >= 0 {
		r.Overflow = removeAt(r.Overflow, i)
	}
	r.promote()
	return nil
}

// projectGuests synchronizes one sponsor's registry entries into the lists.
// Idempotent: a guest already projected (matched by sponsor and name) is
// never duplicated. No-op while the sponsor is not on the roster.
func (r *Roster) projectGuests(sponsorID string) {
	if !r.Contains(sponsorID) {
		return
	}
	for _, g := range r.Guests[sponsorID] {
		if r.hasGuestProjection(sponsorID, g.Name) {
			continue
		}
		entry := Participant{
			ID:          g.ID,
			DisplayName: g.Name,
			IsGuest:     true,
			SponsorID:   sponsorID,
		}
		if !r.AtCapacity() {
			r.Occupants = append(r.Occupants, entry)
		} else {
			r.Overflow = append(r.Overflow, entry)
		}
	}
}

// dropGuestProjections removes every projection sponsored by the identity
// from both lists. Registry entries survive so a returning sponsor re-syncs.
func (r *Roster) dropGuestProjections(sponsorID string) {
	r.Occupants = withoutSponsored(r.Occupants, sponsorID)
	r.Overflow = withoutSponsored(r.Overflow, sponsorID)
}

func (r *Roster) hasGuestProjection(sponsorID, name string) bool {
	return hasProjection(r.Occupants, sponsorID, name) || hasProjection(r.Overflow, sponsorID, name)
}

func hasProjection(list []Participant, sponsorID, name string) bool {
	for _, p := range list {
		if p.IsGuest && p.SponsorID == sponsorID && strings.EqualFold(p.DisplayName, name) {
			return true
		}
	}
	return false
}

func withoutSponsored(list []Participant, sponsorID string) []Participant {
	out := list[:0]
	for _, p := range list {
		if p.IsGuest && p.SponsorID == sponsorID {
			continue
		}
		out = append(out, p)
	}
	return out
}
