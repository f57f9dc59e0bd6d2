// Package watch drives the `run --watch` file-watch loop (spec.md §6). It
// is an external collaborator specified only at its interface (spec.md
// §1): the core (module graph + compiler + hot-patch) is fully specified
// elsewhere, and this package's only job is to decide "something changed,
// recompile". Grounded on other_examples/manifests/mleku-moxie's
// fsnotify-based compiler watch loop.
package watch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Event is a single change notification: a file under the watched root was
// created, written, renamed, or removed.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watch starts watching every directory under root and returns a channel of
// debounced Events. Multiple filesystem events for the same path within
// debounce are coalesced into one Event, matching the spec's framing of the
// watch driver as a polling loop that only cares "did anything change".
func Watch(root string, debounce time.Duration) (<-chan Event, func() error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		ch, stop := PollWatch(root, debounce)
		return ch, stop, nil
	}
	if err := addTree(w, root); err != nil {
		w.Close()
		return nil, nil, errors.Wrapf(err, "watch: adding %s", root)
	}

	out := make(chan Event)
	go debounceLoop(w, debounce, out)
	return out, w.Close, nil
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}

func debounceLoop(w *fsnotify.Watcher, debounce time.Duration, out chan<- Event) {
	defer close(out)
	pending := make(map[string]fsnotify.Op)
	var timer *time.Timer
	flush := func() {
		for path, op := range pending {
			out <- Event{Path: path, Op: op}
		}
		pending = make(map[string]fsnotify.Op)
	}
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			pending[ev.Name] = pending[ev.Name] | ev.Op
			if timer == nil {
				timer = time.AfterFunc(debounce, flush)
			} else {
				timer.Reset(debounce)
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

// PollWatch is the stat-based polling fallback used when fsnotify.NewWatcher
// fails (spec.md §6's "polling loop" framing, kept for platforms without
// inotify/kqueue). It rescans the tree's file modtimes every debounce
// interval and emits one Event per changed path.
func PollWatch(root string, debounce time.Duration) (<-chan Event, func() error) {
	out := make(chan Event)
	stopCh := make(chan struct{})
	go func() {
		defer close(out)
		last := snapshot(root)
		ticker := time.NewTicker(debounce)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				cur := snapshot(root)
				for path, mtime := range cur {
					if prev, ok := last[path]; !ok || !prev.Equal(mtime) {
						out <- Event{Path: path, Op: fsnotify.Write}
					}
				}
				for path := range last {
					if _, ok := cur[path]; !ok {
						out <- Event{Path: path, Op: fsnotify.Remove}
					}
				}
				last = cur
			}
		}
	}()
	stop := func() error {
		close(stopCh)
		return nil
	}
	return out, stop
}

func snapshot(root string) map[string]time.Time {
	m := make(map[string]time.Time)
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".rae" || filepath.Ext(path) == ".raepack" {
			m[path] = info.ModTime()
		}
		return nil
	})
	return m
}
