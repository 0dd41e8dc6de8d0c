package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested roster or prompt record is missing.
var ErrNotFound = errors.New("record not found")

// Entry lists an entry record belongs to.
const (
	ListOccupants = "occupants"
	ListOverflow  = "overflow"
)

// RosterRecord stores one chat's full sign-up state.
type RosterRecord struct {
	ChatID        int64
	MessageID     int
	LastMessageID int
	Capacity      int
	Active        bool
	Description   string
	UpdatedAt     time.Time
	Entries       []EntryRecord
	Guests        []GuestRecord
}

// EntryRecord stores one participant line. List and Position encode the
// ordered placement inside the occupant or overflow list.
type EntryRecord struct {
	ParticipantID string
	DisplayName   string
	IsGuest       bool
	SponsorID     string
	List          string
	Position      int
}

// GuestRecord stores one canonical guest registry entry.
type GuestRecord struct {
	GuestID   string
	SponsorID string
	Name      string
	Position  int
}

// RosterStore persists roster snapshots keyed by chat.
type RosterStore interface {
	PutRoster(ctx context.Context, record RosterRecord) error
	GetRoster(ctx context.Context, chatID int64) (RosterRecord, error)
	ListRosters(ctx context.Context) ([]RosterRecord, error)
	DeleteRoster(ctx context.Context, chatID int64) error
}

// PromptKind identifies which free-text reply the bot is waiting for.
type PromptKind string

const (
	// PromptGuestAdd awaits the name of a guest to register.
	PromptGuestAdd PromptKind = "guest_add"
	// PromptGuestRemove awaits the name of a guest to remove.
	PromptGuestRemove PromptKind = "guest_remove"
	// PromptRestore awaits forwarded roster message text to recover from.
	PromptRestore PromptKind = "restore"
)

// PromptRecord stores one pending free-text prompt for a user in a chat.
type PromptRecord struct {
	UserID    int64
	ChatID    int64
	Kind      PromptKind
	CreatedAt time.Time
}

// PromptStore persists pending prompt state between updates. Entries are
// short-lived and keyed by user.
type PromptStore interface {
	PutPrompt(ctx context.Context, record PromptRecord) error
	GetPrompt(ctx context.Context, userID int64) (PromptRecord, error)
	DeletePrompt(ctx context.Context, userID int64) error
}
