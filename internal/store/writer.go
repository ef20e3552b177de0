package store

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/couch-lobby/internal/engine"
)

const saveTimeout = 5 * time.Second

type jobKind int

const (
	jobRoster jobKind = iota + 1
	jobMap
)

type job struct {
	kind   jobKind
	runID  string
	picks  []engine.Pick
	choice int
}

// Writer hands results to a Results store on its own goroutine so a slow
// database never stalls a lobby tick. Failed saves are logged and dropped.
type Writer struct {
	results Results
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan job
	wg     sync.WaitGroup

	dropped atomic.Int64
}

func NewWriter(results Results, log *zap.Logger, buffer int) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 64
	}
	w := &Writer{results: results, log: log, ch: make(chan job, buffer)}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop()
	}()
	return w
}

func (w *Writer) HandOffRoster(runID string, picks []engine.Pick) {
	w.enqueue(job{kind: jobRoster, runID: runID, picks: slices.Clone(picks)})
}

func (w *Writer) HandOffMap(runID string, choice int) {
	w.enqueue(job{kind: jobMap, runID: runID, choice: choice})
}

func (w *Writer) enqueue(j job) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped.Add(1)
		return
	}
	select {
	case w.ch <- j:
	default:
		w.dropped.Add(1)
		w.log.Warn("result queue full, dropping", zap.String("run", j.runID))
	}
}

// Dropped counts results that never reached the queue.
func (w *Writer) Dropped() int64 { return w.dropped.Load() }

// Close drains queued results and stops the worker.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Writer) loop() {
	for j := range w.ch {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		var err error
		switch j.kind {
		case jobRoster:
			err = w.results.SaveRoster(ctx, j.runID, j.picks)
		case jobMap:
			err = w.results.SaveMap(ctx, j.runID, j.choice)
		}
		cancel()
		if err != nil {
			w.log.Error("saving result failed", zap.String("run", j.runID), zap.Error(err))
			continue
		}
		w.log.Debug("result saved", zap.String("run", j.runID), zap.Int("kind", int(j.kind)))
	}
}
