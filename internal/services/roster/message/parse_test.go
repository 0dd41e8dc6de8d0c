package message

import (
	"strings"
	"testing"

	"github.com/louisbranch/pickup.football/internal/services/roster/domain/roster"
)

func assertSameParticipants(t *testing.T, label string, got, want []roster.Participant) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %d entries, want %d", label, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s[%d] = %+v, want %+v", label, i, got[i], want[i])
		}
	}
}

func TestParseForeignTextReturnsNil(t *testing.T) {
	for name, text := range map[string]string{
		"plain chat":      "кто сегодня играет?",
		"empty":           "",
		"marker-less":     "Состав:\n1. Анна (id:100)\n",
		"header only":     "⚽ Запись на игру\n",
		"no occupants":    "⚽ Запись на игру\n\nРезерв:\n1. Анна (id:100)\n",
		"empty occupants": "⚽ Запись на игру\n\nСостав:\n\nНажмите кнопку ниже, чтобы записаться.\n",
	} {
		if got := Parse(text, -1001, 42); got != nil {
			t.Errorf("%s: Parse = %+v, want nil", name, got)
		}
	}
}

func TestParseCapacityFromNumberedLines(t *testing.T) {
	text := "⚽ Запись на игру\n" +
		"\n" +
		"Состав:\n" +
		"1. Анна (id:100)\n" +
		"2. Борис (id:200)\n" +
		"3.\n" +
		"\n" +
		"Нажмите кнопку ниже, чтобы записаться.\n"

	r := Parse(text, -1001, 42)
	if r == nil {
		t.Fatal("Parse returned nil")
	}
	if r.Capacity != 3 {
		t.Fatalf("capacity = %d, want 3", r.Capacity)
	}
	if len(r.Occupants) != 2 {
		t.Fatalf("occupants = %d, want 2", len(r.Occupants))
	}
	if r.Occupants[0].ID != "100" || r.Occupants[1].ID != "200" {
		t.Fatalf("occupants = %+v, want ids 100, 200", r.Occupants)
	}
	if !r.Active {
		t.Fatal("expected active roster")
	}
	if r.ChatID != -1001 || r.MessageID != 42 {
		t.Fatalf("anchor = (%d, %d), want (-1001, 42)", r.ChatID, r.MessageID)
	}
}

func TestParseRoundTrip(t *testing.T) {
	r := mustRoster(t, 3, "Суббота 10:00")
	policy := roster.GuestPolicy{OrganizerID: "100", Cap: 2}
	if err := r.AddGuest("100", "Иван", policy); err != nil {
		t.Fatalf("add guest: %v", err)
	}
	r.Join("100", "Анна")
	r.Join("200", "Борис")
	r.Join("300", "Вера")
	r.JoinOverflow("400", "Глеб")

	text, _ := Render(r)
	got := Parse(text, r.ChatID, r.MessageID)
	if got == nil {
		t.Fatalf("Parse returned nil for rendered text:\n%s", text)
	}

	if got.Capacity != r.Capacity {
		t.Fatalf("capacity = %d, want %d", got.Capacity, r.Capacity)
	}
	if got.Description != r.Description {
		t.Fatalf("description = %q, want %q", got.Description, r.Description)
	}
	if got.Active != r.Active {
		t.Fatalf("active = %v, want %v", got.Active, r.Active)
	}
	assertSameParticipants(t, "occupants", got.Occupants, r.Occupants)
	assertSameParticipants(t, "overflow", got.Overflow, r.Overflow)

	// Registry rebuilds from projections: same (sponsor, name) pairs.
	for sponsorID, guests := range r.Guests {
		parsed := got.Guests[sponsorID]
		if len(parsed) != len(guests) {
			t.Fatalf("guests[%s] = %d entries, want %d", sponsorID, len(parsed), len(guests))
		}
		for i := range guests {
			if parsed[i].Name != guests[i].Name || parsed[i].SponsorID != guests[i].SponsorID {
				t.Fatalf("guests[%s][%d] = %+v, want %+v", sponsorID, i, parsed[i], guests[i])
			}
		}
	}

	// Re-rendering the parsed roster must reproduce the text byte for byte.
	rerendered, _ := Render(got)
	if rerendered != text {
		t.Fatalf("re-render drifted:\n%q\n%q", rerendered, text)
	}
}

func TestParseClosedRoster(t *testing.T) {
	r := mustRoster(t, 2, "")
	r.Join("100", "Анна")
	r.Deactivate()
	text, _ := Render(r)

	got := Parse(text, r.ChatID, r.MessageID)
	if got == nil {
		t.Fatal("Parse returned nil")
	}
	if got.Active {
		t.Fatal("expected inactive roster")
	}
}

func TestParseLegacyPlainLines(t *testing.T) {
	text := "⚽ Запись на игру\n" +
		"\n" +
		"Состав:\n" +
		"1. Анна\n" +
		"2. Борис\n" +
		"\n" +
		"Нажмите кнопку ниже, чтобы записаться.\n"

	r := Parse(text, -1001, 42)
	if r == nil {
		t.Fatal("Parse returned nil")
	}
	if len(r.Occupants) != 2 {
		t.Fatalf("occupants = %d, want 2", len(r.Occupants))
	}
	for i, wantName := range []string{"Анна", "Борис"} {
		p := r.Occupants[i]
		if p.DisplayName != wantName {
			t.Fatalf("occupant %d name = %q, want %q", i, p.DisplayName, wantName)
		}
		if !strings.HasPrefix(p.ID, "legacy-") {
			t.Fatalf("occupant %d id = %q, want synthetic legacy identity", i, p.ID)
		}
	}
	if r.Occupants[0].ID == r.Occupants[1].ID {
		t.Fatal("synthetic identities must be unique")
	}
}

func TestParseLegacyGuestResolvesSponsorByName(t *testing.T) {
	text := "⚽ Запись на игру\n" +
		"\n" +
		"Состав:\n" +
		"1. Анна\n" +
		"2. Иван (друг Анна)\n" +
		"\n" +
		"Нажмите кнопку ниже, чтобы записаться.\n"

	r := Parse(text, -1001, 42)
	if r == nil {
		t.Fatal("Parse returned nil")
	}
	if len(r.Occupants) != 2 {
		t.Fatalf("occupants = %d, want 2", len(r.Occupants))
	}
	guest := r.Occupants[1]
	if !guest.IsGuest || guest.SponsorID != r.Occupants[0].ID {
		t.Fatalf("guest = %+v, want sponsored by %q", guest, r.Occupants[0].ID)
	}
	if len(r.Guests[r.Occupants[0].ID]) != 1 {
		t.Fatalf("registry = %+v, want one guest under sponsor", r.Guests)
	}
}

func TestParseDropsGuestWithUnknownSponsor(t *testing.T) {
	text := "⚽ Запись на игру\n" +
		"\n" +
		"Состав:\n" +
		"1. Иван (друг Призрак)\n" +
		"2. Борис\n" +
		"\n" +
		"Резерв:\n" +
		"1. Вера\n" +
		"\n" +
		"Нажмите кнопку ниже, чтобы записаться.\n"

	r := Parse(text, -1001, 42)
	if r == nil {
		t.Fatal("Parse returned nil")
	}
	if r.Capacity != 2 {
		t.Fatalf("capacity = %d, want 2", r.Capacity)
	}
	names := make([]string, len(r.Occupants))
	for i, p := range r.Occupants {
		names[i] = p.DisplayName
	}
	// The orphaned guest is dropped and Вера is promoted into the freed slot.
	if len(names) != 2 || names[0] != "Борис" || names[1] != "Вера" {
		t.Fatalf("occupants = %v, want [Борис Вера]", names)
	}
	if len(r.Overflow) != 0 {
		t.Fatalf("overflow = %+v, want empty", r.Overflow)
	}
}

func TestParseRejectsBrokenOrdinals(t *testing.T) {
	text := "⚽ Запись на игру\n" +
		"\n" +
		"Состав:\n" +
		"1. Анна (id:100)\n" +
		"3. Борис (id:200)\n" +
		"\n" +
		"Нажмите кнопку ниже, чтобы записаться.\n"

	if got := Parse(text, -1001, 42); got != nil {
		t.Fatalf("Parse = %+v, want nil for out-of-sequence ordinals", got)
	}
}

func TestParseRejectsDuplicateIdentities(t *testing.T) {
	text := "⚽ Запись на игру\n" +
		"\n" +
		"Состав:\n" +
		"1. Анна (id:100)\n" +
		"2. Анна (id:100)\n" +
		"\n" +
		"Нажмите кнопку ниже, чтобы записаться.\n"

	if got := Parse(text, -1001, 42); got != nil {
		t.Fatalf("Parse = %+v, want nil for duplicate identities", got)
	}
}
