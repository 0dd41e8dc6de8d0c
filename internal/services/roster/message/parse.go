package message

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/louisbranch/pickup.football/internal/services/roster/domain/roster"
)

var (
	errNoHeader          = errors.New("header marker not found")
	errNoOccupantBlock   = errors.New("occupant block marker not found")
	errEmptyOccupantList = errors.New("occupant block has no numbered lines")
	errBadOrdinal        = errors.New("numbered line out of sequence")
	errDuplicateIdentity = errors.New("duplicate participant identity")
)

// Per-line grammars, tried in precedence order: guest with identifier, legacy
// guest annotated by sponsor name, plain with identifier, legacy plain
// (name-only fallback).
var (
	numberedRe    = regexp.MustCompile(`^(\d+)\.(?:\s*(.*))?$`)
	guestWithIDRe = regexp.MustCompile(`^(.+?) \(друг: ([^)]+)\) \(id:([^)]+)\)$`)
	guestLegacyRe = regexp.MustCompile(`^(.+?) \(друг ([^)]+)\)$`)
	plainWithIDRe = regexp.MustCompile(`^(.+?) \(id:([^)]+)\)$`)
)

// legacySeq disambiguates synthetic identities minted within one timestamp.
var legacySeq atomic.Int64

// Parse reconstructs a roster from previously rendered message text.
//
// It returns nil for any text that does not carry the header marker and for
// any text whose shape cannot be extracted cleanly: recovery never yields a
// partially populated roster. Capacity is derived from the count of numbered
// occupant lines, so a recovered roster can never exceed what was rendered.
func Parse(text string, chatID int64, messageID int) *roster.Roster {
	r, err := parseRoster(text, chatID, messageID)
	if err != nil {
		return nil
	}
	return r
}

type parsedEntry struct {
	participant roster.Participant
	// sponsorIsName marks legacy guest lines whose sponsor annotation is a
	// display name rather than an identifier.
	sponsorIsName bool
}

func parseRoster(text string, chatID int64, messageID int) (*roster.Roster, error) {
	rawLines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, len(rawLines))
	for i, line := range rawLines {
		lines[i] = strings.TrimSpace(line)
	}

	headerIdx := -1
	for i, line := range lines {
		if line == headerMarker {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, errNoHeader
	}

	i := headerIdx + 1
	for i < len(lines) && lines[i] == "" {
		i++
	}
	description := ""
	if i < len(lines) && strings.HasPrefix(lines[i], descriptionMarker) {
		description = strings.TrimSpace(strings.TrimPrefix(lines[i], descriptionMarker))
		i++
	}
	for i < len(lines) && lines[i] == "" {
		i++
	}
	if i >= len(lines) || lines[i] != occupantsMarker {
		return nil, errNoOccupantBlock
	}

	occupantEntries, capacity, next, err := parseNumberedBlock(lines, i+1)
	if err != nil {
		return nil, err
	}
	if capacity == 0 {
		return nil, errEmptyOccupantList
	}

	var overflowEntries []parsedEntry
	for j := next; j < len(lines); j++ {
		if lines[j] != overflowMarker {
			continue
		}
		overflowEntries, _, _, err = parseNumberedBlock(lines, j+1)
		if err != nil {
			return nil, err
		}
		break
	}

	ended, joinHint := false, false
	for _, line := range lines {
		switch line {
		case closedMarker:
			ended = true
		case joinHintMarker:
			joinHint = true
		}
	}

	occupants, overflow, guests, err := assemble(occupantEntries, overflowEntries)
	if err != nil {
		return nil, err
	}

	r := &roster.Roster{
		ChatID:        chatID,
		MessageID:     messageID,
		LastMessageID: messageID,
		Capacity:      capacity,
		Occupants:     occupants,
		Overflow:      overflow,
		Active:        !(ended && !joinHint),
		Description:   description,
		Guests:        guests,
	}
	// Dropped unresolvable guests may have left primary slots open while the
	// overflow queue is non-empty; restore the promotion invariant.
	for len(r.Occupants) < r.Capacity && len(r.Overflow) > 0 {
		r.Occupants = append(r.Occupants, r.Overflow[0])
		r.Overflow = r.Overflow[1:]
	}
	return r, nil
}

// parseNumberedBlock consumes consecutive numbered lines starting at start.
// It returns the parsed entries (blank slots contribute none), the total
// numbered-line count, and the index of the first unconsumed line.
func parseNumberedBlock(lines []string, start int) ([]parsedEntry, int, int, error) {
	var entries []parsedEntry
	count := 0
	i := start
	for ; i < len(lines); i++ {
		m := numberedRe.FindStringSubmatch(lines[i])
		if m == nil {
			break
		}
		count++
		ordinal, err := strconv.Atoi(m[1])
		if err != nil || ordinal != count {
			return nil, 0, 0, errBadOrdinal
		}
		body := strings.TrimSpace(m[2])
		if body == "" {
			continue
		}
		entries = append(entries, parseEntry(body))
	}
	return entries, count, i, nil
}

func parseEntry(body string) parsedEntry {
	if m := guestWithIDRe.FindStringSubmatch(body); m != nil {
		return parsedEntry{participant: roster.Participant{
			ID:          m[3],
			DisplayName: m[1],
			IsGuest:     true,
			SponsorID:   m[2],
		}}
	}
	if m := guestLegacyRe.FindStringSubmatch(body); m != nil {
		return parsedEntry{
			participant: roster.Participant{
				ID:          legacyIdentity(m[1]),
				DisplayName: m[1],
				IsGuest:     true,
				SponsorID:   strings.TrimSpace(m[2]),
			},
			sponsorIsName: true,
		}
	}
	if m := plainWithIDRe.FindStringSubmatch(body); m != nil {
		return parsedEntry{participant: roster.Participant{
			ID:          m[2],
			DisplayName: m[1],
		}}
	}
	return parsedEntry{participant: roster.Participant{
		ID:          legacyIdentity(body),
		DisplayName: body,
	}}
}

// assemble resolves legacy sponsor-name annotations, enforces identity
// uniqueness, drops guest projections whose sponsor is absent, and rebuilds
// the guest registry from the surviving projections.
func assemble(occupantEntries, overflowEntries []parsedEntry) ([]roster.Participant, []roster.Participant, map[string][]roster.Guest, error) {
	idByName := map[string]string{}
	for _, e := range occupantEntries {
		recordName(idByName, e)
	}
	for _, e := range overflowEntries {
		recordName(idByName, e)
	}

	seen := map[string]bool{}
	occupants, err := resolveEntries(occupantEntries, idByName, seen)
	if err != nil {
		return nil, nil, nil, err
	}
	overflow, err := resolveEntries(overflowEntries, idByName, seen)
	if err != nil {
		return nil, nil, nil, err
	}

	sponsors := map[string]bool{}
	for _, p := range occupants {
		if !p.IsGuest {
			sponsors[p.ID] = true
		}
	}
	for _, p := range overflow {
		if !p.IsGuest {
			sponsors[p.ID] = true
		}
	}
	occupants = withSponsorsPresent(occupants, sponsors)
	overflow = withSponsorsPresent(overflow, sponsors)

	guests := map[string][]roster.Guest{}
	for _, p := range occupants {
		appendGuest(guests, p)
	}
	for _, p := range overflow {
		appendGuest(guests, p)
	}
	return occupants, overflow, guests, nil
}

func recordName(idByName map[string]string, e parsedEntry) {
	if e.participant.IsGuest {
		return
	}
	if _, ok := idByName[e.participant.DisplayName]; !ok {
		idByName[e.participant.DisplayName] = e.participant.ID
	}
}

func resolveEntries(entries []parsedEntry, idByName map[string]string, seen map[string]bool) ([]roster.Participant, error) {
	var out []roster.Participant
	for _, e := range entries {
		p := e.participant
		if e.sponsorIsName {
			sponsorID, ok := idByName[p.SponsorID]
			if !ok {
				// Unresolvable sponsor name: the projection cannot be
				// attached and is discarded.
				continue
			}
			p.SponsorID = sponsorID
		}
		if seen[p.ID] {
			return nil, errDuplicateIdentity
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out, nil
}

func withSponsorsPresent(list []roster.Participant, sponsors map[string]bool) []roster.Participant {
	out := list[:0]
	for _, p := range list {
		if p.IsGuest && !sponsors[p.SponsorID] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func appendGuest(guests map[string][]roster.Guest, p roster.Participant) {
	if !p.IsGuest {
		return
	}
	guests[p.SponsorID] = append(guests[p.SponsorID], roster.Guest{
		ID:        p.ID,
		Name:      p.DisplayName,
		SponsorID: p.SponsorID,
	})
}

// legacyIdentity synthesizes an identifier for lines rendered without one.
// The timestamp plus sequence keeps repeated parses collision-free at the
// documented cost that a recovered legacy participant never compares equal to
// their pre-crash identity.
func legacyIdentity(name string) string {
	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	return fmt.Sprintf("legacy-%s-%d-%d", slug, time.Now().UnixNano(), legacySeq.Add(1))
}
