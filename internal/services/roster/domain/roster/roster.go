package roster

import (
	"strings"

	apperrors "github.com/louisbranch/pickup.football/internal/platform/errors"
)

// Mutation rejections reported back to callers as user-facing status replies.
var (
	ErrRosterClosed      = apperrors.New(apperrors.CodeRosterClosed, "roster is closed")
	ErrInvalidCapacity   = apperrors.New(apperrors.CodeRosterInvalidCapacity, "capacity must be positive")
	ErrInvalidState      = apperrors.New(apperrors.CodeRosterInvalidState, "roster state violates invariants")
	ErrGuestNameRequired = apperrors.New(apperrors.CodeGuestNameRequired, "guest name is required")
	ErrGuestLimitReached = apperrors.New(apperrors.CodeGuestLimitReached, "guest limit reached for sponsor")
	ErrGuestDuplicate    = apperrors.New(apperrors.CodeGuestDuplicate, "guest already registered for sponsor")
	ErrGuestNotFound     = apperrors.New(apperrors.CodeGuestNotFound, "guest not registered for sponsor")
)

// Participant is one entry in the occupant or overflow list.
//
// ID is either a stable account identifier (Telegram user ID rendered as a
// string), a guest projection ID from the registry, or a synthetic identifier
// generated during recovery of legacy message text.
type Participant struct {
	ID          string
	DisplayName string
	IsGuest     bool
	SponsorID   string
}

// Guest is one canonical registry entry. The matching projection participant
// inside Occupants/Overflow carries the same ID.
type Guest struct {
	ID        string
	Name      string
	SponsorID string
}

// Roster is the full sign-up state for one chat.
type Roster struct {
	ChatID        int64
	MessageID     int
	LastMessageID int
	Capacity      int
	Occupants     []Participant
	Overflow      []Participant
	Active        bool
	Description   string
	Guests        map[string][]Guest
}

// New creates an active roster with the given capacity and description.
func New(chatID int64, messageID int, capacity int, description string) (*Roster, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Roster{
		ChatID:        chatID,
		MessageID:     messageID,
		LastMessageID: messageID,
		Capacity:      capacity,
		Active:        true,
		Description:   strings.TrimSpace(description),
		Guests:        map[string][]Guest{},
	}, nil
}

// Clone returns a deep copy safe to hand outside the owning lock.
func (r *Roster) Clone() *Roster {
	if r == nil {
		return nil
	}
	out := *r
	out.Occupants = append([]Participant(nil), r.Occupants...)
	out.Overflow = append([]Participant(nil), r.Overflow...)
	out.Guests = make(map[string][]Guest, len(r.Guests))
	for sponsorID, guests := range r.Guests {
		out.Guests[sponsorID] = append([]Guest(nil), guests...)
	}
	return &out
}

// Validate checks the structural invariants the operations maintain. It is
// used before installing state that did not pass through them, such as a
// snapshot posted to the admin API.
//
// Checked: positive capacity, occupant list within capacity, overflow only
// while occupants are full, unique non-empty participant IDs across both
// lists, and a present sponsor for every guest projection.
func (r *Roster) Validate() error {
	if r.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if len(r.Occupants) > r.Capacity {
		return ErrInvalidState
	}
	if len(r.Overflow) > 0 && len(r.Occupants) < r.Capacity {
		return ErrInvalidState
	}

	seen := make(map[string]bool, len(r.Occupants)+len(r.Overflow))
	all := append(append([]Participant(nil), r.Occupants...), r.Overflow...)
	for _, p := range all {
		if p.ID == "" || seen[p.ID] {
			return ErrInvalidState
		}
		seen[p.ID] = true
	}
	for _, p := range all {
		if p.IsGuest && !seen[p.SponsorID] {
			return ErrInvalidState
		}
	}
	return nil
}

// Contains reports whether the participant ID is present in either list.
func (r *Roster) Contains(id string) bool {
	return indexByID(r.Occupants, id) >= 0 || indexByID(r.Overflow, id) >= 0
}

// AtCapacity reports whether the occupant list is full.
func (r *Roster) AtCapacity() bool {
	return len(r.Occupants) >= r.Capacity
}

// GuestsOf returns the registered guests for a sponsor.
func (r *Roster) GuestsOf(sponsorID string) []Guest {
	return append([]Guest(nil), r.Guests[sponsorID]...)
}

func indexByID(list []Participant, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt(list []Participant, idx int) []Participant {
	return append(list[:idx], list[idx+1:]...)
}
