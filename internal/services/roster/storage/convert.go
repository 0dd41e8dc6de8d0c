package storage

import (
	"sort"
	"time"

	"github.com/louisbranch/pickup.football/internal/services/roster/domain/roster"
)

// FromRoster flattens a roster into its storage record. Guest registry
// entries are ordered by sponsor then position so records compare stably.
func FromRoster(r *roster.Roster, updatedAt time.Time) RosterRecord {
	record := RosterRecord{
		ChatID:        r.ChatID,
		MessageID:     r.MessageID,
		LastMessageID: r.LastMessageID,
		Capacity:      r.Capacity,
		Active:        r.Active,
		Description:   r.Description,
		UpdatedAt:     updatedAt,
	}
	for i, p := range r.Occupants {
		record.Entries = append(record.Entries, entryRecord(p, ListOccupants, i))
	}
	for i, p := range r.Overflow {
		record.Entries = append(record.Entries, entryRecord(p, ListOverflow, i))
	}

	sponsorIDs := make([]string, 0, len(r.Guests))
	for sponsorID := range r.Guests {
		sponsorIDs = append(sponsorIDs, sponsorID)
	}
	sort.Strings(sponsorIDs)
	for _, sponsorID := range sponsorIDs {
		for i, g := range r.Guests[sponsorID] {
			record.Guests = append(record.Guests, GuestRecord{
				GuestID:   g.ID,
				SponsorID: g.SponsorID,
				Name:      g.Name,
				Position:  i,
			})
		}
	}
	return record
}

// ToRoster rebuilds a roster from its storage record.
func (record RosterRecord) ToRoster() *roster.Roster {
	r := &roster.Roster{
		ChatID:        record.ChatID,
		MessageID:     record.MessageID,
		LastMessageID: record.LastMessageID,
		Capacity:      record.Capacity,
		Active:        record.Active,
		Description:   record.Description,
		Guests:        map[string][]roster.Guest{},
	}

	entries := append([]EntryRecord(nil), record.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Position < entries[j].Position
	})
	for _, e := range entries {
		p := roster.Participant{
			ID:          e.ParticipantID,
			DisplayName: e.DisplayName,
			IsGuest:     e.IsGuest,
			SponsorID:   e.SponsorID,
		}
		switch e.List {
		case ListOverflow:
			r.Overflow = append(r.Overflow, p)
		default:
			r.Occupants = append(r.Occupants, p)
		}
	}

	guests := append([]GuestRecord(nil), record.Guests...)
	sort.SliceStable(guests, func(i, j int) bool {
		if guests[i].SponsorID != guests[j].SponsorID {
			return guests[i].SponsorID < guests[j].SponsorID
		}
		return guests[i].Position < guests[j].Position
	})
	for _, g := range guests {
		r.Guests[g.SponsorID] = append(r.Guests[g.SponsorID], roster.Guest{
			ID:        g.GuestID,
			Name:      g.Name,
			SponsorID: g.SponsorID,
		})
	}
	return r
}

func entryRecord(p roster.Participant, list string, position int) EntryRecord {
	return EntryRecord{
		ParticipantID: p.ID,
		DisplayName:   p.DisplayName,
		IsGuest:       p.IsGuest,
		SponsorID:     p.SponsorID,
		List:          list,
		Position:      position,
	}
}
