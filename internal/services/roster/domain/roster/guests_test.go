package roster

import (
	"errors"
	"testing"
)

var testPolicy = GuestPolicy{OrganizerID: "org", Cap: 2}

func TestAddGuestBeforeSponsorJoins(t *testing.T) {
	r := mustNew(t, 5)

	if err := r.AddGuest("s", "Иван", testPolicy); err != nil {
		t.Fatalf("add guest: %v", err)
	}
	if len(r.Occupants) != 0 {
		t.Fatalf("occupants = %d, want 0 before sponsor joins", len(r.Occupants))
	}

	if got := r.Join("s", "Сергей"); got != PlacementOccupants {
		t.Fatalf("join = %v, want occupants", got)
	}
	if len(r.Occupants) != 2 {
		t.Fatalf("occupants = %d, want sponsor plus projection", len(r.Occupants))
	}
	projection := r.Occupants[1]
	if !projection.IsGuest || projection.SponsorID != "s" || projection.DisplayName != "Иван" {
		t.Fatalf("projection = %+v, want guest Иван sponsored by s", projection)
	}
	assertInvariants(t, r)
}

func TestLeaveCascadesGuestProjections(t *testing.T) {
	r := mustNew(t, 5)
	if err := r.AddGuest("s", "Иван", testPolicy); err != nil {
		t.Fatalf("add guest: %v", err)
	}
	r.Join("s", "Сергей")

	if !r.Leave("s") {
		t.Fatal("expected leave to remove sponsor")
	}
	if len(r.Occupants) != 0 {
		t.Fatalf("occupants = %v, want empty after cascade", r.Occupants)
	}
	// Registry survives; re-joining re-projects without duplicates.
	r.Join("s", "Сергей")
	if len(r.Occupants) != 2 {
		t.Fatalf("occupants = %d, want sponsor plus re-projected guest", len(r.Occupants))
	}
	if len(r.Guests["s"]) != 1 {
		t.Fatalf("registry = %d entries, want 1", len(r.Guests["s"]))
	}
	assertInvariants(t, r)
}

func TestLeaveCascadeDoesNotTouchOtherSponsors(t *testing.T) {
	r := mustNew(t, 6)
	r.Join("s1", "Один")
	r.Join("s2", "Два")
	if err := r.AddGuest("s1", "Иван", testPolicy); err != nil {
		t.Fatalf("add guest s1: %v", err)
	}
	if err := r.AddGuest("s2", "Петр", testPolicy); err != nil {
		t.Fatalf("add guest s2: %v", err)
	}

	r.Leave("s1")

	if r.hasGuestProjection("s1", "Иван") {
		t.Fatal("expected s1 projections removed")
	}
	if !r.hasGuestProjection("s2", "Петр") {
		t.Fatal("expected s2 projections to survive")
	}
	assertInvariants(t, r)
}

func TestProjectGuestsIsIdempotent(t *testing.T) {
	r := mustNew(t, 5)
	r.Join("s", "Сергей")
	if err := r.AddGuest("s", "Иван", testPolicy); err != nil {
		t.Fatalf("add guest: %v", err)
	}

	r.projectGuests("s")
	r.projectGuests("s")

	count := 0
	for _, p := range r.Occupants {
		if p.IsGuest && p.SponsorID == "s" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("projections = %d, want 1", count)
	}
}

func TestAddGuestCap(t *testing.T) {
	r := mustNew(t, 10)
	if err := r.AddGuest("s", "Иван", testPolicy); err != nil {
		t.Fatalf("add first guest: %v", err)
	}
	if err := r.AddGuest("s", "Петр", testPolicy); err != nil {
		t.Fatalf("add second guest: %v", err)
	}
	if err := r.AddGuest("s", "Олег", testPolicy); !errors.Is(err, ErrGuestLimitReached) {
		t.Fatalf("add third guest = %v, want %v", err, ErrGuestLimitReached)
	}
}

func TestAddGuestOrganizerUnlimited(t *testing.T) {
	r := mustNew(t, 10)
	for _, name := range []string{"Иван", "Петр", "Олег", "Дима", "Федя"} {
		if err := r.AddGuest("org", name, testPolicy); err != nil {
			t.Fatalf("organizer add guest %s: %v", name, err)
		}
	}
	if len(r.Guests["org"]) != 5 {
		t.Fatalf("organizer guests = %d, want 5", len(r.Guests["org"]))
	}
}

func TestAddGuestDuplicateCaseInsensitive(t *testing.T) {
	r := mustNew(t, 10)
	if err := r.AddGuest("s", "Ivan", testPolicy); err != nil {
		t.Fatalf("add guest: %v", err)
	}
	if err := r.AddGuest("s", "IVAN", testPolicy); !errors.Is(err, ErrGuestDuplicate) {
		t.Fatalf("duplicate guest = %v, want %v", err, ErrGuestDuplicate)
	}
}

func TestAddGuestRejectsBlankName(t *testing.T) {
	r := mustNew(t, 10)
	if err := r.AddGuest("s", "   ", testPolicy); !errors.Is(err, ErrGuestNameRequired) {
		t.Fatalf("blank guest name = %v, want %v", err, ErrGuestNameRequired)
	}
}

func TestRemoveGuest(t *testing.T) {
	r := mustNew(t, 5)
	r.Join("s", "Сергей")
	if err := r.AddGuest("s", "Иван", testPolicy); err != nil {
		t.Fatalf("add guest: %v", err)
	}

	if err := r.RemoveGuest("s", "иван"); err != nil {
		t.Fatalf("remove guest: %v", err)
	}
	if len(r.Guests["s"]) != 0 {
		t.Fatalf("registry = %v, want empty", r.Guests["s"])
	}
	if r.hasGuestProjection("s", "Иван") {
		t.Fatal("expected projection removed")
	}
	if err := r.RemoveGuest("s", "Иван"); !errors.Is(err, ErrGuestNotFound) {
		t.Fatalf("remove missing guest = %v, want %v", err, ErrGuestNotFound)
	}
	assertInvariants(t, r)
}

func TestRemoveGuestPromotesFromOverflow(t *testing.T) {
	r := mustNew(t, 2)
	r.Join("s", "Сергей")
	if err := r.AddGuest("s", "Иван", testPolicy); err != nil {
		t.Fatalf("add guest: %v", err)
	}
	r.Join("b", "Борис") // lands in overflow behind the projection

	if err := r.RemoveGuest("s", "Иван"); err != nil {
		t.Fatalf("remove guest: %v", err)
	}
	got := occupantIDs(r)
	if len(got) != 2 || got[0] != "s" || got[1] != "b" {
		t.Fatalf("occupants = %v, want [s b]", got)
	}
	assertInvariants(t, r)
}

func TestGuestOverflowPlacement(t *testing.T) {
	r := mustNew(t, 2)
	r.Join("a", "Анна")
	r.Join("s", "Сергей")

	if err := r.AddGuest("s", "Иван", testPolicy); err != nil {
		t.Fatalf("add guest: %v", err)
	}
	if len(r.Overflow) != 1 || !r.Overflow[0].IsGuest {
		t.Fatalf("overflow = %v, want one guest projection", r.Overflow)
	}
	assertInvariants(t, r)
}
