package rosterparse

import (
	"bytes"
	"encoding/json"
	"flag"
	"strings"
	"testing"
)

const sampleMessage = "⚽ Запись на игру\n" +
	"📝 Футбол в субботу\n" +
	"\n" +
	"Состав:\n" +
	"1. Анна (id:101)\n" +
	"2. Борис (id:102)\n" +
	"3.\n" +
	"\n" +
	"Нажмите кнопку ниже, чтобы записаться."

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("roster-parse", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.ChatID != 0 {
		t.Fatalf("chat id = %d, want 0", cfg.ChatID)
	}
	if cfg.MessageID != 1 {
		t.Fatalf("message id = %d, want 1", cfg.MessageID)
	}
}

func TestParseConfigFlags(t *testing.T) {
	fs := flag.NewFlagSet("roster-parse", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-chat-id", "-1001", "-message-id", "42"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.ChatID != -1001 {
		t.Fatalf("chat id = %d, want -1001", cfg.ChatID)
	}
	if cfg.MessageID != 42 {
		t.Fatalf("message id = %d, want 42", cfg.MessageID)
	}
}

func TestRunRecoversRoster(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{ChatID: -1001, MessageID: 42}
	if err := Run(cfg, &out, strings.NewReader(sampleMessage)); err != nil {
		t.Fatalf("run: %v", err)
	}

	var recovered struct {
		ChatID    int64 `json:"chat_id"`
		MessageID int   `json:"message_id"`
		Capacity  int   `json:"capacity"`
		Active    bool  `json:"active"`
	}
	if err := json.Unmarshal(out.Bytes(), &recovered); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if recovered.ChatID != -1001 {
		t.Fatalf("chat id = %d, want -1001", recovered.ChatID)
	}
	if recovered.MessageID != 42 {
		t.Fatalf("message id = %d, want 42", recovered.MessageID)
	}
	if recovered.Capacity != 3 {
		t.Fatalf("capacity = %d, want 3", recovered.Capacity)
	}
	if !recovered.Active {
		t.Fatal("recovered roster should be active")
	}
}

func TestRunRejectsForeignText(t *testing.T) {
	var out bytes.Buffer
	err := Run(Config{}, &out, strings.NewReader("nothing roster-shaped here"))
	if err == nil {
		t.Fatal("expected error for foreign text")
	}
	if out.Len() != 0 {
		t.Fatalf("output = %q, want empty", out.String())
	}
}

func TestRunRequiresInput(t *testing.T) {
	var out bytes.Buffer
	if err := Run(Config{}, &out, nil); err == nil {
		t.Fatal("expected error for nil input")
	}
}
