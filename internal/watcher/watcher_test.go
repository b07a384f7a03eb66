package watcher

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func startWatcher(t *testing.T, dir string, opts ...Option) *Watcher {
	t.Helper()
	opts = append([]Option{WithDebounce(50 * time.Millisecond)}, opts...)
	w, err := New(dir, opts...)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	t.Cleanup(func() { w.Stop() })

	if err := w.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}
	return w
}

func TestWatcher_ReportsImage(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	path := filepath.Join(dir, "photo.png")
	if err := imaging.Save(imaging.New(4, 4, color.White), path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Events():
		if got != path {
			t.Errorf("Expected %s, got %s", path, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for event")
	}

	// Many writes to one file collapse into one event
	select {
	case got := <-w.Events():
		t.Errorf("unexpected second event for %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_IgnoresNonImages(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	for _, name := range []string{"notes.txt", ".hidden.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case got := <-w.Events():
		t.Errorf("unexpected event for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_Wanted(t *testing.T) {
	w, err := New(t.TempDir(), WithIgnoreDir("/data/out"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tests := []struct {
		path string
		want bool
	}{
		{"/data/in/a.jpg", true},
		{"/data/in/a.JPEG", true},
		{"/data/in/a.webp", false},
		{"/data/in/.a.png", false},
		{"/data/out/a.png", false},
		{"/data/outside/a.png", true},
	}
	for _, tt := range tests {
		if got := w.wanted(tt.path); got != tt.want {
			t.Errorf("wanted(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestWatcher_RelativeWatchAbsoluteIgnore(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	w, err := New(".", WithIgnoreDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if w.wanted("abc.jpg") {
		t.Error("output file in the ignored folder was not ignored")
	}
	if w.dir != dir {
		t.Errorf("dir = %s, want %s", w.dir, dir)
	}

	// The reverse: absolute watch folder, relative ignore folder
	sub := filepath.Join(dir, "out")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	w2, err := New(dir, WithIgnoreDir("out"))
	if err != nil {
		t.Fatal(err)
	}
	defer w2.Stop()

	if w2.wanted(filepath.Join(sub, "abc.jpg")) {
		t.Error("absolute path under relative ignore folder was not ignored")
	}
	if !w2.wanted(filepath.Join(dir, "abc.jpg")) {
		t.Error("image in watch folder was ignored")
	}
}

func TestWatcher_RelativeWatchReportsAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	w := startWatcher(t, ".")

	if err := imaging.Save(imaging.New(4, 4, color.White), "rel.png"); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-w.Events():
		if got != filepath.Join(dir, "rel.png") {
			t.Errorf("Expected %s, got %s", filepath.Join(dir, "rel.png"), got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for event")
	}
}
