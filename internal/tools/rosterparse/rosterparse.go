// Package rosterparse recovers roster state from pasted message text. It
// backs the roster-parse utility used to inspect what the bot would restore
// from a given message before running /restore_state against production.
package rosterparse

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/louisbranch/pickup.football/internal/services/roster/domain/roster"
	"github.com/louisbranch/pickup.football/internal/services/roster/message"
)

// Config holds configuration for message text recovery.
type Config struct {
	ChatID    int64
	MessageID int
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{MessageID: 1}
	fs.Int64Var(&cfg.ChatID, "chat-id", cfg.ChatID, "chat id to anchor the recovered roster to")
	fs.IntVar(&cfg.MessageID, "message-id", cfg.MessageID, "message id to anchor the recovered roster to")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type participantView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest,omitempty"`
	SponsorID   string `json:"sponsor_id,omitempty"`
}

type rosterView struct {
	ChatID      int64             `json:"chat_id"`
	MessageID   int               `json:"message_id"`
	Capacity    int               `json:"capacity"`
	Active      bool              `json:"active"`
	Description string            `json:"description,omitempty"`
	Occupants   []participantView `json:"occupants"`
	Overflow    []participantView `json:"overflow,omitempty"`
}

func viewOf(r *roster.Roster) rosterView {
	view := rosterView{
		ChatID:      r.ChatID,
		MessageID:   r.MessageID,
		Capacity:    r.Capacity,
		Active:      r.Active,
		Description: r.Description,
		Occupants:   make([]participantView, 0, len(r.Occupants)),
	}
	for _, p := range r.Occupants {
		view.Occupants = append(view.Occupants, participantView(p))
	}
	for _, p := range r.Overflow {
		view.Overflow = append(view.Overflow, participantView(p))
	}
	return view
}

// Run reads message text from in and writes the recovered roster as JSON.
func Run(cfg Config, out io.Writer, in io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if in == nil {
		return errors.New("input is required")
	}

	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read message text: %w", err)
	}

	recovered := message.Parse(string(text), cfg.ChatID, cfg.MessageID)
	if recovered == nil {
		return errors.New("text does not contain a recoverable roster")
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(viewOf(recovered)); err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	return nil
}
