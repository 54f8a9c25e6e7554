package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCountersSnapshot(t *testing.T) {
	c := NewCounters()
	c.IncRequests()
	c.IncRequests()
	c.IncPredictions()
	c.IncValidationFailures()
	c.IncCacheHits()

	snap := c.Snapshot()
	if snap[MetricRequests] != 2 || snap[MetricPredictions] != 1 {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
	if snap[MetricValidationFailures] != 1 || snap[MetricCacheHits] != 1 || snap[MetricInternalErrors] != 0 {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
	if c.Uptime() < 0 {
		t.Fatal("expected non-negative uptime")
	}
}

func TestArtifactWatcherDetectsWrite(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "model.json")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{watched, other} {
		if err := os.WriteFile(p, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	aw, err := NewArtifactWatcher(nil, watched)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer aw.Close()

	if err := os.WriteFile(other, []byte("changed"), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if aw.Changed() {
		t.Fatal("unrelated file must not mark artifacts changed")
	}

	if err := os.WriteFile(watched, []byte(`{"intercept":1}`), 0o600); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for !aw.Changed() {
		if time.Now().After(deadline) {
			t.Fatal("expected watcher to report change")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestNilArtifactWatcher(t *testing.T) {
	var aw *ArtifactWatcher
	if aw.Changed() {
		t.Fatal("nil watcher must report unchanged")
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
