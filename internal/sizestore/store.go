// Package sizestore persists directory sizes and recent history across
// sessions.
//
// All writes go through one background goroutine fed by a bounded queue.
// Producers never block: when the queue is full the write is dropped. The
// store is a size accelerator, not a source of truth, so a lost write only
// costs a later recomputation. A nil *Store is valid and behaves as an
// always-empty store, which is what callers get when opening fails.
package sizestore

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var (
	ErrUnavailable = errors.New("sizestore: store unavailable")
	ErrQueueFull   = errors.New("sizestore: write queue full")
	ErrClosed      = errors.New("sizestore: store closed")
)

const (
	DefaultSizeTTL = time.Hour
	DefaultQueue   = 64
)

// Options configures Open.
type Options struct {
	Dir     string
	Driver  string // "bolt" (default) or "sqlite"
	SizeTTL time.Duration
	Queue   int
	Prune   string // cron spec for pruning expired sizes, empty disables
}

// FileName is the fixed store file name for a driver.
func FileName(driver string) string {
	if driver == "sqlite" {
		return "cache.sqlite"
	}
	return "cache.db"
}

type commandKind int

const (
	cmdWriteSize commandKind = iota
	cmdWriteHistory
	cmdPrune
)

type command struct {
	kind    commandKind
	path    string
	size    int64
	updated int64
	history []string
	cutoff  int64
}

// Store is the durable tier of the size cache.
type Store struct {
	backend Backend
	log     *zap.Logger
	sizeTTL time.Duration
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan command
	done   chan struct{}

	cron *cron.Cron
}

// Open creates or opens the store file under opts.Dir and starts the writer.
func Open(opts Options, log *zap.Logger) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("%w: no data directory", ErrUnavailable)
	}
	path := filepath.Join(opts.Dir, FileName(opts.Driver))

	var (
		backend Backend
		err     error
	)
	switch opts.Driver {
	case "sqlite":
		backend, err = openSQLite(path)
	default:
		backend, err = openBolt(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s := newStore(backend, opts, log)
	s.start()
	s.schedulePrune(opts.Prune)

	s.log.Info("persistent cache initialized", zap.String("path", path), zap.String("driver", opts.Driver))
	return s, nil
}

// newStore builds a store around backend without starting the writer.
func newStore(backend Backend, opts Options, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.SizeTTL <= 0 {
		opts.SizeTTL = DefaultSizeTTL
	}
	if opts.Queue <= 0 {
		opts.Queue = DefaultQueue
	}
	return &Store{
		backend: backend,
		log:     log.Named("sizestore"),
		sizeTTL: opts.SizeTTL,
		now:     time.Now,
		queue:   make(chan command, opts.Queue),
		done:    make(chan struct{}),
	}
}

func (s *Store) start() {
	go s.run()
}

// run is the only goroutine that writes to the backend. Commands are applied
// in the order they were queued.
func (s *Store) run() {
	defer close(s.done)
	for cmd := range s.queue {
		s.apply(cmd)
	}
}

func (s *Store) apply(cmd command) {
	var err error
	switch cmd.kind {
	case cmdWriteSize:
		err = s.backend.PutSize(cmd.path, cmd.size, cmd.updated)
	case cmdWriteHistory:
		err = s.backend.ReplaceHistory(cmd.history)
	case cmdPrune:
		var n int
		n, err = s.backend.Prune(cmd.cutoff)
		if err == nil && n > 0 {
			s.log.Debug("pruned expired sizes", zap.Int("count", n))
		}
	}
	if err != nil {
		s.log.Warn("persistent cache write failed", zap.Error(err))
	}
}

func (s *Store) schedulePrune(spec string) {
	if spec == "" {
		return
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		cutoff := s.now().Add(-s.sizeTTL).Unix()
		if err := s.enqueue(command{kind: cmdPrune, cutoff: cutoff}); err != nil {
			s.log.Debug("prune skipped", zap.Error(err))
		}
	})
	if err != nil {
		s.log.Warn("invalid prune schedule", zap.String("spec", spec), zap.Error(err))
		return
	}
	c.Start()
	s.cron = c
}

// enqueue hands cmd to the writer without blocking.
func (s *Store) enqueue(cmd command) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// GetSize returns the stored size of path if it was written within the size
// TTL. Reads run in their own read transaction and never wait on the writer.
func (s *Store) GetSize(path string) (int64, bool) {
	if s == nil {
		return 0, false
	}
	size, updated, ok, err := s.backend.Size(path)
	if err != nil {
		s.log.Debug("size lookup failed", zap.String("path", path), zap.Error(err))
		return 0, false
	}
	if !ok {
		return 0, false
	}
	if s.now().Unix()-updated > int64(s.sizeTTL/time.Second) {
		return 0, false
	}
	return size, true
}

// WriteSize queues a size write stamped with the current time. It never
// blocks; the write is dropped when the queue is full.
func (s *Store) WriteSize(path string, size int64) {
	if s == nil {
		return
	}
	err := s.enqueue(command{kind: cmdWriteSize, path: path, size: size, updated: s.now().Unix()})
	if errors.Is(err, ErrQueueFull) {
		s.log.Warn("persistent cache write channel full, dropping size write", zap.String("path", path))
	}
}

// WriteHistory queues a full replacement of the stored history, most recent
// first. It never blocks.
func (s *Store) WriteHistory(paths []string) {
	if s == nil {
		return
	}
	history := append([]string(nil), paths...)
	err := s.enqueue(command{kind: cmdWriteHistory, history: history})
	if errors.Is(err, ErrQueueFull) {
		s.log.Warn("persistent cache write channel full, dropping history write")
	}
}

// LoadHistory reads the stored history synchronously, most recent first.
func (s *Store) LoadHistory() []string {
	if s == nil {
		return nil
	}
	paths, err := s.backend.History()
	if err != nil {
		s.log.Warn("loading history failed", zap.Error(err))
		return nil
	}
	return paths
}

// Close stops the prune schedule, drains queued writes and closes the
// backend.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	<-s.done
	return s.backend.Close()
}
