// Package watch reports changes to the directory currently on screen.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const changeBuffer = 8

// Watcher follows one directory at a time. Bursts of events are collapsed
// into a single change notification after the debounce window. A nil
// *Watcher never reports anything.
type Watcher struct {
	log      *zap.Logger
	debounce time.Duration
	fs       *fsnotify.Watcher

	mu    sync.Mutex
	dir   string
	timer *time.Timer

	changes chan string
	done    chan struct{}
}

func New(debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	w := &Watcher{
		log:      log.Named("watch"),
		debounce: debounce,
		fs:       fw,
		changes:  make(chan string, changeBuffer),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Watch switches to dir. Events for the previous directory stop.
func (w *Watcher) Watch(dir string) error {
	if w == nil {
		return nil
	}
	dir = filepath.Clean(dir)

	w.mu.Lock()
	defer w.mu.Unlock()
	if dir == w.dir {
		return nil
	}
	if w.dir != "" {
		_ = w.fs.Remove(w.dir)
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.dir = ""
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.dir = dir
	return nil
}

// Changes delivers the path of a directory whose contents changed.
func (w *Watcher) Changes() <-chan string {
	if w == nil {
		return nil
	}
	return w.changes
}

func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	err := w.fs.Close()
	<-w.done
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.log.Debug("event", zap.String("name", ev.Name), zap.Stringer("op", ev.Op))
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			w.schedule(filepath.Dir(ev.Name))

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("fsnotify error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if dir != w.dir {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.notify(dir) })
}

func (w *Watcher) notify(dir string) {
	select {
	case w.changes <- dir:
	default:
		w.log.Debug("change channel full, dropping notification", zap.String("dir", dir))
	}
}
