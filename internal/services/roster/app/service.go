package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/pickup.football/internal/platform/errors"
	"github.com/louisbranch/pickup.football/internal/platform/timeouts"
	"github.com/louisbranch/pickup.football/internal/services/roster/domain/roster"
	"github.com/louisbranch/pickup.football/internal/services/roster/message"
	"github.com/louisbranch/pickup.football/internal/services/roster/storage"
)

// Service-level rejections surfaced to transports as user-facing replies.
var (
	ErrNoRoster       = apperrors.New(apperrors.CodeNotFound, "no roster for chat")
	ErrRosterExists   = apperrors.New(apperrors.CodeRosterAlreadyExists, "active roster already exists for chat")
	ErrRecoveryFailed = apperrors.New(apperrors.CodeRecoveryFailed, "text does not contain a recoverable roster")
)

// Notifier pushes rendered roster state to the chat surface.
type Notifier interface {
	Display(ctx context.Context, chatID int64, messageID int, text string, controls []message.Control) error
}

// Config carries service dependencies. Store and Notifier are optional; a nil
// store keeps state in memory only and a nil notifier drops display pushes.
type Config struct {
	OrganizerID string
	GuestCap    int
	Store       storage.RosterStore
	Notifier    Notifier
	Clock       func() time.Time
}

// Service owns the roster state for every chat the bot serves.
type Service struct {
	organizerID string
	guestCap    int
	store       storage.RosterStore
	notifier    Notifier
	clock       func() time.Time
	tracer      trace.Tracer

	mu    sync.Mutex
	slots map[int64]*chatSlot
	done  chan struct{}
}

type displayUpdate struct {
	messageID int
	text      string
	controls  []message.Control
}

// chatSlot serializes all work for one chat. The display queue is drained by
// a single worker so edits never race each other within a chat.
type chatSlot struct {
	mu      sync.Mutex
	roster  *roster.Roster
	updates chan displayUpdate
}

// NewService creates a roster service.
func NewService(cfg Config) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		organizerID: cfg.OrganizerID,
		guestCap:    cfg.GuestCap,
		store:       cfg.Store,
		notifier:    cfg.Notifier,
		clock:       clock,
		tracer:      otel.Tracer("pickup.roster.app"),
		slots:       make(map[int64]*chatSlot),
		done:        make(chan struct{}),
	}
}

// Close stops the display workers. Pending queued pushes are dropped.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// IsOrganizer reports whether the user holds organizer rights.
func (s *Service) IsOrganizer(userID string) bool {
	return userID != "" && userID == s.organizerID
}

// GuestPolicy returns the guest limits applied to sponsors.
func (s *Service) GuestPolicy() roster.GuestPolicy {
	return roster.GuestPolicy{OrganizerID: s.organizerID, Cap: s.guestCap}
}

func (s *Service) slot(chatID int64) *chatSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[chatID]
	if ok {
		return slot
	}
	slot = &chatSlot{updates: make(chan displayUpdate, 16)}
	s.slots[chatID] = slot
	go s.drainDisplay(chatID, slot)
	return slot
}

// CreateRoster starts a new sign-up anchored to the given message. An active
// roster for the chat must be ended before a new one can start.
func (s *Service) CreateRoster(ctx context.Context, chatID int64, messageID int, capacity int, description string) (*roster.Roster, error) {
	ctx, span := s.tracer.Start(ctx, "roster.create", trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer span.End()

	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster != nil && slot.roster.Active {
		return nil, ErrRosterExists
	}
	r, err := roster.New(chatID, messageID, capacity, description)
	if err != nil {
		return nil, err
	}
	slot.roster = r
	if err := s.persist(ctx, r); err != nil {
		return nil, err
	}
	s.queueDisplay(slot, r)
	return r.Clone(), nil
}

// Join places the user on the roster, preferring a primary slot.
func (s *Service) Join(ctx context.Context, chatID int64, userID, displayName string) (roster.Placement, error) {
	return s.place(ctx, "roster.join", chatID, userID, displayName, (*roster.Roster).Join)
}

// JoinOverflow queues the user on the reserve list directly.
func (s *Service) JoinOverflow(ctx context.Context, chatID int64, userID, displayName string) (roster.Placement, error) {
	return s.place(ctx, "roster.join_overflow", chatID, userID, displayName, (*roster.Roster).JoinOverflow)
}

func (s *Service) place(ctx context.Context, span string, chatID int64, userID, displayName string, op func(*roster.Roster, string, string) roster.Placement) (roster.Placement, error) {
	ctx, traceSpan := s.tracer.Start(ctx, span, trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer traceSpan.End()

	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster == nil {
		return roster.PlacementRejected, ErrNoRoster
	}
	placement := op(slot.roster, userID, displayName)
	if placement == roster.PlacementOccupants || placement == roster.PlacementOverflow {
		if err := s.persist(ctx, slot.roster); err != nil {
			return placement, err
		}
		s.queueDisplay(slot, slot.roster)
	}
	return placement, nil
}

// Leave removes the user from the roster. The bool reports whether the user
// was present.
func (s *Service) Leave(ctx context.Context, chatID int64, userID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "roster.leave", trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer span.End()

	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster == nil {
		return false, ErrNoRoster
	}
	removed := slot.roster.Leave(userID)
	if removed {
		if err := s.persist(ctx, slot.roster); err != nil {
			return removed, err
		}
		s.queueDisplay(slot, slot.roster)
	}
	return removed, nil
}

// AddGuest registers a guest under the sponsor and projects them when the
// sponsor is signed up.
func (s *Service) AddGuest(ctx context.Context, chatID int64, sponsorID, name string) error {
	ctx, span := s.tracer.Start(ctx, "roster.add_guest", trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer span.End()

	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster == nil {
		return ErrNoRoster
	}
	if err := slot.roster.AddGuest(sponsorID, name, s.GuestPolicy()); err != nil {
		return err
	}
	if err := s.persist(ctx, slot.roster); err != nil {
		return err
	}
	s.queueDisplay(slot, slot.roster)
	return nil
}

// RemoveGuest deletes the sponsor's guest by name.
func (s *Service) RemoveGuest(ctx context.Context, chatID int64, sponsorID, name string) error {
	ctx, span := s.tracer.Start(ctx, "roster.remove_guest", trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer span.End()

	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster == nil {
		return ErrNoRoster
	}
	if err := slot.roster.RemoveGuest(sponsorID, name); err != nil {
		return err
	}
	if err := s.persist(ctx, slot.roster); err != nil {
		return err
	}
	s.queueDisplay(slot, slot.roster)
	return nil
}

// Deactivate closes the roster permanently and pushes the final message
// state.
func (s *Service) Deactivate(ctx context.Context, chatID int64) error {
	ctx, span := s.tracer.Start(ctx, "roster.deactivate", trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer span.End()

	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster == nil {
		return ErrNoRoster
	}
	if !slot.roster.Active {
		return roster.ErrRosterClosed
	}
	slot.roster.Deactivate()
	if err := s.persist(ctx, slot.roster); err != nil {
		return err
	}
	s.queueDisplay(slot, slot.roster)
	return nil
}

// Refresh re-pushes the current message state without mutating it.
func (s *Service) Refresh(ctx context.Context, chatID int64) error {
	_, span := s.tracer.Start(ctx, "roster.refresh", trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer span.End()

	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster == nil {
		return ErrNoRoster
	}
	s.queueDisplay(slot, slot.roster)
	return nil
}

// Recover rebuilds roster state from previously rendered message text and
// anchors it to the given message. It refuses to overwrite an active roster.
func (s *Service) Recover(ctx context.Context, chatID int64, messageID int, text string) (*roster.Roster, error) {
	ctx, span := s.tracer.Start(ctx, "roster.recover", trace.WithAttributes(attribute.Int64("chat.id", chatID)))
	defer span.End()

	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster != nil && slot.roster.Active {
		return nil, ErrRosterExists
	}
	recovered := message.Parse(text, chatID, messageID)
	if recovered == nil {
		return nil, ErrRecoveryFailed
	}
	slot.roster = recovered
	if err := s.persist(ctx, recovered); err != nil {
		return nil, err
	}
	s.queueDisplay(slot, recovered)
	return recovered.Clone(), nil
}

// RestoreSnapshot installs a full roster snapshot, typically taken from a
// backup of the admin API's list output. It refuses to overwrite an active
// roster.
func (s *Service) RestoreSnapshot(ctx context.Context, snapshot *roster.Roster) (*roster.Roster, error) {
	if snapshot == nil {
		return nil, ErrRecoveryFailed
	}
	ctx, span := s.tracer.Start(ctx, "roster.restore_snapshot", trace.WithAttributes(attribute.Int64("chat.id", snapshot.ChatID)))
	defer span.End()

	slot := s.slot(snapshot.ChatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster != nil && slot.roster.Active {
		return nil, ErrRosterExists
	}
	restored := snapshot.Clone()
	if restored.Guests == nil {
		restored.Guests = map[string][]roster.Guest{}
	}
	if err := restored.Validate(); err != nil {
		return nil, err
	}
	slot.roster = restored
	if err := s.persist(ctx, restored); err != nil {
		return nil, err
	}
	s.queueDisplay(slot, restored)
	return restored.Clone(), nil
}

// Roster returns a snapshot of the chat's roster state. A memory miss falls
// back to the persisted snapshot before reporting no roster.
func (s *Service) Roster(ctx context.Context, chatID int64) (*roster.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slot := s.slot(chatID)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.roster == nil && s.store != nil {
		record, err := s.store.GetRoster(ctx, chatID)
		switch {
		case err == nil:
			slot.roster = record.ToRoster()
		case !errors.Is(err, storage.ErrNotFound):
			return nil, err
		}
	}
	if slot.roster == nil {
		return nil, ErrNoRoster
	}
	return slot.roster.Clone(), nil
}

// Rosters returns snapshots of every chat's roster state.
func (s *Service) Rosters(ctx context.Context) ([]*roster.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	slots := make(map[int64]*chatSlot, len(s.slots))
	for chatID, slot := range s.slots {
		slots[chatID] = slot
	}
	s.mu.Unlock()

	var out []*roster.Roster
	for _, slot := range slots {
		slot.mu.Lock()
		if slot.roster != nil {
			out = append(out, slot.roster.Clone())
		}
		slot.mu.Unlock()
	}
	return out, nil
}

// LoadFromStore hydrates in-memory slots from persisted snapshots. Called
// once at startup before updates are processed.
func (s *Service) LoadFromStore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "roster.load")
	defer span.End()

	records, err := s.store.ListRosters(ctx)
	if err != nil {
		return err
	}
	for _, record := range records {
		slot := s.slot(record.ChatID)
		slot.mu.Lock()
		slot.roster = record.ToRoster()
		slot.mu.Unlock()
	}
	return nil
}

func (s *Service) persist(ctx context.Context, r *roster.Roster) error {
	if s.store == nil {
		return nil
	}
	return s.store.PutRoster(ctx, storage.FromRoster(r, s.clock()))
}

// queueDisplay renders under the slot lock and hands the result to the slot's
// display worker. A full queue drops the update; the next mutation or an
// explicit refresh re-renders the full state anyway.
func (s *Service) queueDisplay(slot *chatSlot, r *roster.Roster) {
	if s.notifier == nil {
		return
	}
	text, controls := message.Render(r)
	update := displayUpdate{messageID: r.MessageID, text: text, controls: controls}
	select {
	case slot.updates <- update:
	default:
		log.Printf("display queue full, dropping update for chat %d", r.ChatID)
	}
}

func (s *Service) drainDisplay(chatID int64, slot *chatSlot) {
	for {
		select {
		case <-s.done:
			return
		case update := <-slot.updates:
			ctx, cancel := context.WithTimeout(context.Background(), timeouts.DisplayPush)
			err := s.notifier.Display(ctx, chatID, update.messageID, update.text, update.controls)
			cancel()
			if err != nil {
				log.Printf("display push failed for chat %d: %v", chatID, err)
			}
		}
	}
}
