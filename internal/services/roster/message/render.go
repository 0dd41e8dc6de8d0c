package message

import (
	"fmt"
	"strings"

	"github.com/louisbranch/pickup.football/internal/services/roster/domain/roster"
)

// Render maps a roster to its message text and keyboard controls.
//
// The output is byte-deterministic for a given roster state: the transport
// layer relies on that to skip no-op edits, and Parse relies on it to invert
// the text. The occupant block always holds exactly Capacity numbered lines;
// empty slots render as a bare ordinal so capacity survives a round trip.
func Render(r *roster.Roster) (string, []Control) {
	var b strings.Builder

	b.WriteString(headerMarker)
	b.WriteByte('\n')
	if description := singleLine(r.Description); description != "" {
		b.WriteString(descriptionMarker)
		b.WriteString(description)
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(occupantsMarker)
	b.WriteByte('\n')
	for i := 0; i < r.Capacity; i++ {
		if i < len(r.Occupants) {
			b.WriteString(participantLine(i+1, r.Occupants[i]))
		} else {
			fmt.Fprintf(&b, "%d.\n", i+1)
		}
	}

	if len(r.Overflow) > 0 {
		b.WriteByte('\n')
		b.WriteString(overflowMarker)
		b.WriteByte('\n')
		for i, p := range r.Overflow {
			b.WriteString(participantLine(i+1, p))
		}
	}

	b.WriteByte('\n')
	if r.Active {
		b.WriteString(joinHintMarker)
	} else {
		b.WriteString(closedMarker)
	}
	b.WriteByte('\n')

	return b.String(), controls(r)
}

func participantLine(ordinal int, p roster.Participant) string {
	if p.IsGuest {
		return fmt.Sprintf("%d. %s (друг: %s) (id:%s)\n", ordinal, singleLine(p.DisplayName), p.SponsorID, p.ID)
	}
	return fmt.Sprintf("%d. %s (id:%s)\n", ordinal, singleLine(p.DisplayName), p.ID)
}

// singleLine keeps free text from breaking the line-oriented wire format.
func singleLine(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}

func controls(r *roster.Roster) []Control {
	var out []Control
	if r.Active {
		out = append(out,
			Control{Action: ActionJoin, Label: "✅ Записаться"},
			Control{Action: ActionLeave, Label: "❌ Отменить запись"},
			Control{Action: ActionAddGuest, Label: "👥 Записать друга"},
			Control{Action: ActionRemoveGuest, Label: "🗑 Удалить друга"},
		)
		if r.AtCapacity() {
			out = append(out, Control{Action: ActionJoinOverflow, Label: "⏳ Записаться в резерв"})
		}
		out = append(out, Control{Action: ActionEnd, Label: "🏁 Завершить игру"})
	}
	out = append(out, Control{Action: ActionRefresh, Label: "🔄 Обновить"})
	return out
}
