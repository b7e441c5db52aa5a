package config

import (
	"testing"
	"time"
)

func TestWatcher_DetectsThresholdChange(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "90")
	t.Setenv("REVIEW_THRESHOLD", "60")

	w := NewWatcher(time.Hour) // poll manually via checkOnce
	defer w.Close()
	ch := w.Subscribe()

	t.Setenv("MATCH_THRESHOLD", "95")
	w.checkOnce()

	select {
	case chg := <-ch:
		if chg.Err != nil {
			t.Fatalf("unexpected error: %v", chg.Err)
		}
		if len(chg.Fields) != 1 || chg.Fields[0] != "MatchThreshold" {
			t.Fatalf("unexpected fields: %v", chg.Fields)
		}
		if chg.New.MatchThreshold != 95 {
			t.Fatalf("unexpected new config: %+v", chg.New)
		}
	default:
		t.Fatalf("expected a change notification")
	}

	if w.Current().MatchThreshold != 95 {
		t.Fatalf("current config not updated: %+v", w.Current())
	}
}

func TestWatcher_NoChangeNoNotification(t *testing.T) {
	w := NewWatcher(time.Hour)
	defer w.Close()
	ch := w.Subscribe()

	w.checkOnce()
	select {
	case chg := <-ch:
		t.Fatalf("unexpected notification: %+v", chg)
	default:
	}
}

func TestWatcher_RejectsInvalidThresholds(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "90")
	t.Setenv("REVIEW_THRESHOLD", "60")

	w := NewWatcher(time.Hour)
	defer w.Close()
	ch := w.Subscribe()

	t.Setenv("REVIEW_THRESHOLD", "95")
	w.checkOnce()

	select {
	case chg := <-ch:
		if chg.Err == nil {
			t.Fatalf("expected a rejection, got %+v", chg)
		}
	default:
		t.Fatalf("expected a rejection notification")
	}
	// The invalid config must not replace the current one.
	if w.Current().ReviewThreshold != 60 {
		t.Fatalf("invalid config applied: %+v", w.Current())
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Port == "" || cfg.RunConfigPath == "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.GatePermits < 1 {
		t.Fatalf("unexpected gate permits: %d", cfg.GatePermits)
	}
}
