package sizecalc

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultResults is the result channel capacity.
const DefaultResults = 100

// Result is the measured size of one dispatched path. A failed
// measurement reports Size 0.
type Result struct {
	Path string
	Size int64
}

// Dispatcher runs a Strategy off the caller's goroutine and publishes
// results on a bounded channel. Neither Dispatch nor result delivery ever
// blocks: a full channel drops the new result.
type Dispatcher struct {
	strategy Strategy
	results  chan Result
	log      *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	dropped atomic.Int64
}

func NewDispatcher(strategy Strategy, capacity int, log *zap.Logger) *Dispatcher {
	if capacity <= 0 {
		capacity = DefaultResults
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		strategy: strategy,
		results:  make(chan Result, capacity),
		log:      log.Named("sizecalc"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Strategy reports the strategy in use.
func (d *Dispatcher) Strategy() Strategy { return d.strategy }

// Results is drained by the foreground each tick.
func (d *Dispatcher) Results() <-chan Result { return d.results }

// Dropped counts results lost to a full channel.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Dispatch measures paths on one background goroutine, in order. Results
// for abandoned directories are still delivered; the consumer drops what it
// can no longer match.
func (d *Dispatcher) Dispatch(paths []string) {
	if len(paths) == 0 {
		return
	}
	batch := append([]string(nil), paths...)
	d.log.Debug("dispatching size calculations",
		zap.Int("count", len(batch)), zap.String("strategy", d.strategy.Name()))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, path := range batch {
			if d.ctx.Err() != nil {
				return
			}
			size, err := d.strategy.Size(d.ctx, path)
			if err != nil {
				d.log.Debug("size calculation failed", zap.String("path", path), zap.Error(err))
				size = 0
			}
			d.publish(Result{Path: path, Size: size})
		}
	}()
}

func (d *Dispatcher) publish(r Result) {
	select {
	case d.results <- r:
	default:
		d.dropped.Add(1)
		d.log.Warn("size result channel full, dropping result", zap.String("path", r.Path))
	}
}

// Wait blocks until every dispatched batch has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Close abandons in-flight batches and waits for their goroutines to exit.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
