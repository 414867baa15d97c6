package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestCoalesce_BurstProducesOneTrigger(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ticks := make(chan struct{}, 1)
	stop := make(chan struct{})
	defer close(stop)

	go coalesce(events, errs, 20*time.Millisecond, nil, ticks, stop)

	for i := 0; i < 5; i++ {
		events <- fsnotify.Event{Name: "f.go", Op: fsnotify.Write}
	}

	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("expected a trigger after the burst settled")
	}

	// No further trigger without new events.
	select {
	case <-ticks:
		t.Fatal("unexpected second trigger")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCoalesce_StopEndsLoop(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ticks := make(chan struct{}, 1)
	stop := make(chan struct{})

	done := make(chan struct{})
	go func() {
		coalesce(events, errs, time.Minute, nil, ticks, stop)
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("coalesce did not stop")
	}
}

func TestCoalesce_CallsOnEvent(t *testing.T) {
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ticks := make(chan struct{}, 1)
	stop := make(chan struct{})
	defer close(stop)

	seen := make(chan fsnotify.Event, 1)
	go coalesce(events, errs, 10*time.Millisecond, func(ev fsnotify.Event) { seen <- ev }, ticks, stop)

	want := fsnotify.Event{Name: "sub", Op: fsnotify.Create}
	events <- want
	select {
	case got := <-seen:
		if got.Name != want.Name || got.Op != want.Op {
			t.Errorf("unexpected event: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("onEvent not called")
	}
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "gone"), 0)
	if err == nil {
		t.Fatal("expected an error for a nonexistent root")
	}
	if !os.IsNotExist(err) {
		t.Errorf("expected a not-exist error, got %v", err)
	}
}

func TestNew_RootIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path, 0); err == nil {
		t.Fatal("expected an error when the root is a regular file")
	}
}

func TestWatcher_DetectsWrite(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(dir, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	stop := make(chan struct{})
	defer close(stop)
	ticks := w.Triggers(stop)

	if err := os.WriteFile(filepath.Join(sub, "a.go"), []byte("package pkg\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ticks:
	case <-time.After(3 * time.Second):
		t.Fatal("no trigger for file write")
	}
}
