package telegram

import (
	"context"
	"testing"
)

func TestHealthMonitorTracksProbeResult(t *testing.T) {
	client, api := newTestClient(t)
	monitor := NewHealthMonitor(client)
	ctx := context.Background()

	if !monitor.LastCheck().IsZero() {
		t.Fatalf("last check = %v, want zero before any probe", monitor.LastCheck())
	}

	monitor.probe(ctx)
	if err := monitor.Err(); err != nil {
		t.Fatalf("err after healthy probe = %v, want nil", err)
	}
	firstCheck := monitor.LastCheck()
	if firstCheck.IsZero() {
		t.Fatal("last check still zero after successful probe")
	}

	api.failMethod = "getMe"
	api.failText = "Unauthorized"
	monitor.probe(ctx)
	if err := monitor.Err(); err == nil {
		t.Fatal("expected error after failed probe")
	}
	if got := monitor.LastCheck(); !got.Equal(firstCheck) {
		t.Fatalf("last check advanced on failed probe: %v", got)
	}

	api.failMethod = ""
	monitor.probe(ctx)
	if err := monitor.Err(); err != nil {
		t.Fatalf("err after recovery = %v, want nil", err)
	}
	if got := monitor.LastCheck(); !got.After(firstCheck) && !got.Equal(firstCheck) {
		t.Fatalf("last check = %v, want >= %v", got, firstCheck)
	}
}
