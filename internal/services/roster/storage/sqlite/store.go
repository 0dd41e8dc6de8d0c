// Package sqlite provides SQLite-backed persistence for roster state.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/louisbranch/pickup.football/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/pickup.football/internal/services/roster/storage"
	"github.com/louisbranch/pickup.football/internal/services/roster/storage/sqlite/migrations"
)

// Store provides SQLite-backed persistence for roster snapshots.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a roster SQLite store at the provided path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutRoster replaces the stored snapshot for the record's chat atomically.
func (s *Store) PutRoster(ctx context.Context, record storage.RosterRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put roster: %w", err)
	}
	if err := putRosterExec(ctx, tx, record); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put roster: %w", err)
	}
	return nil
}

func putRosterExec(ctx context.Context, tx *sql.Tx, record storage.RosterRecord) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rosters (chat_id, message_id, last_message_id, capacity, active, description, updated_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id) DO UPDATE SET
			message_id = excluded.message_id,
			last_message_id = excluded.last_message_id,
			capacity = excluded.capacity,
			active = excluded.active,
			description = excluded.description,
			updated_at_ms = excluded.updated_at_ms`,
		record.ChatID,
		record.MessageID,
		record.LastMessageID,
		record.Capacity,
		boolToInt(record.Active),
		record.Description,
		record.UpdatedAt.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("upsert roster: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM roster_entries WHERE chat_id = ?", record.ChatID); err != nil {
		return fmt.Errorf("clear roster entries: %w", err)
	}
	for _, entry := range record.Entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO roster_entries (chat_id, list, position, participant_id, display_name, is_guest, sponsor_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.ChatID,
			entry.List,
			entry.Position,
			entry.ParticipantID,
			entry.DisplayName,
			boolToInt(entry.IsGuest),
			entry.SponsorID,
		); err != nil {
			return fmt.Errorf("insert roster entry: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM roster_guests WHERE chat_id = ?", record.ChatID); err != nil {
		return fmt.Errorf("clear roster guests: %w", err)
	}
	for _, guest := range record.Guests {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO roster_guests (chat_id, guest_id, sponsor_id, name, position)
			VALUES (?, ?, ?, ?, ?)`,
			record.ChatID,
			guest.GuestID,
			guest.SponsorID,
			guest.Name,
			guest.Position,
		); err != nil {
			return fmt.Errorf("insert roster guest: %w", err)
		}
	}
	return nil
}

// GetRoster loads the stored snapshot for one chat.
func (s *Store) GetRoster(ctx context.Context, chatID int64) (storage.RosterRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.RosterRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.RosterRecord{}, fmt.Errorf("storage is not configured")
	}

	record, err := scanRoster(s.sqlDB.QueryRowContext(ctx, `
		SELECT chat_id, message_id, last_message_id, capacity, active, description, updated_at_ms
		FROM rosters WHERE chat_id = ?`, chatID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RosterRecord{}, storage.ErrNotFound
		}
		return storage.RosterRecord{}, fmt.Errorf("select roster: %w", err)
	}
	if err := s.loadChildren(ctx, &record); err != nil {
		return storage.RosterRecord{}, err
	}
	return record, nil
}

// ListRosters loads every stored snapshot, ordered by chat.
func (s *Store) ListRosters(ctx context.Context) ([]storage.RosterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT chat_id, message_id, last_message_id, capacity, active, description, updated_at_ms
		FROM rosters ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("select rosters: %w", err)
	}
	defer rows.Close()

	var records []storage.RosterRecord
	for rows.Next() {
		record, err := scanRoster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan roster: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rosters: %w", err)
	}

	for i := range records {
		if err := s.loadChildren(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// DeleteRoster removes the stored snapshot for one chat. Deleting a missing
// chat is not an error.
func (s *Store) DeleteRoster(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := s.sqlDB.ExecContext(ctx, "DELETE FROM rosters WHERE chat_id = ?", chatID); err != nil {
		return fmt.Errorf("delete roster: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoster(row rowScanner) (storage.RosterRecord, error) {
	var record storage.RosterRecord
	var active int
	var updatedAtMillis int64
	if err := row.Scan(
		&record.ChatID,
		&record.MessageID,
		&record.LastMessageID,
		&record.Capacity,
		&active,
		&record.Description,
		&updatedAtMillis,
	); err != nil {
		return storage.RosterRecord{}, err
	}
	record.Active = active != 0
	record.UpdatedAt = time.UnixMilli(updatedAtMillis).UTC()
	return record, nil
}

func (s *Store) loadChildren(ctx context.Context, record *storage.RosterRecord) error {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT list, position, participant_id, display_name, is_guest, sponsor_id
		FROM roster_entries WHERE chat_id = ? ORDER BY list, position`, record.ChatID)
	if err != nil {
		return fmt.Errorf("select roster entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var entry storage.EntryRecord
		var isGuest int
		if err := rows.Scan(&entry.List, &entry.Position, &entry.ParticipantID, &entry.DisplayName, &isGuest, &entry.SponsorID); err != nil {
			return fmt.Errorf("scan roster entry: %w", err)
		}
		entry.IsGuest = isGuest != 0
		record.Entries = append(record.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate roster entries: %w", err)
	}

	guestRows, err := s.sqlDB.QueryContext(ctx, `
		SELECT guest_id, sponsor_id, name, position
		FROM roster_guests WHERE chat_id = ? ORDER BY sponsor_id, position`, record.ChatID)
	if err != nil {
		return fmt.Errorf("select roster guests: %w", err)
	}
	defer guestRows.Close()
	for guestRows.Next() {
		var guest storage.GuestRecord
		if err := guestRows.Scan(&guest.GuestID, &guest.SponsorID, &guest.Name, &guest.Position); err != nil {
			return fmt.Errorf("scan roster guest: %w", err)
		}
		record.Guests = append(record.Guests, guest)
	}
	if err := guestRows.Err(); err != nil {
		return fmt.Errorf("iterate roster guests: %w", err)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
