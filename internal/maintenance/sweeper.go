// Package maintenance runs periodic background upkeep on the store: orphan
// sweeps and ordering repair.
package maintenance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/store"
)

// State is the current phase of the sweeper.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

// DefaultInterval is used when Options.Interval is not positive.
const DefaultInterval = time.Hour

// passTimeout bounds a single maintenance pass.
const passTimeout = 5 * time.Minute

// Result describes one maintenance pass.
type Result struct {
	Sweep    store.SweepReport
	Repair   store.RepairReport
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Status is the sweeper's current state and its last completed pass.
type Status struct {
	State State
	Last  *Result
	Runs  int
}

// Options configures a Sweeper.
type Options struct {
	Interval time.Duration
	Logger   zerolog.Logger

	// SkipInitial suppresses the pass Start otherwise runs immediately.
	SkipInitial bool
}

// Sweeper runs maintenance passes on a ticker and on demand.
type Sweeper struct {
	store    *store.Store
	engine   *ordering.Engine
	interval time.Duration
	initial  bool
	log      zerolog.Logger

	resultCh  chan Result
	triggerCh chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}

	mu      sync.Mutex
	running bool
	state   State
	last    *Result
	runs    int
}

// New creates a stopped Sweeper over s.
func New(s *store.Store, engine *ordering.Engine, opts Options) *Sweeper {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Sweeper{
		store:     s,
		engine:    engine,
		interval:  opts.Interval,
		initial:   !opts.SkipInitial,
		log:       opts.Logger.With().Str("component", "maintenance").Logger(),
		resultCh:  make(chan Result, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the background loop. Calling Start on a running or
// stopped sweeper does nothing.
func (w *Sweeper) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	select {
	case <-w.stopCh:
		return
	default:
	}
	w.running = true
	go w.loop()
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (w *Sweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
}

// Trigger requests an immediate pass. Requests made while one is already
// pending are coalesced.
func (w *Sweeper) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Results delivers every completed background pass. Results are dropped
// when nobody reads them.
func (w *Sweeper) Results() <-chan Result {
	return w.resultCh
}

// Status returns the current state and the last completed pass.
func (w *Sweeper) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := Status{State: w.state, Runs: w.runs}
	if w.last != nil {
		r := *w.last
		st.Last = &r
	}
	return st
}

// RunOnce performs one pass synchronously: orphan sweep then ordering
// repair. Both steps run even if the first fails.
func (w *Sweeper) RunOnce(ctx context.Context) Result {
	w.setState(StateRunning)

	res := Result{Started: time.Now()}
	sweep, sweepErr := w.store.SweepOrphans(ctx)
	repair, repairErr := w.store.RepairOrdering(ctx, w.engine)
	res.Sweep, res.Repair = sweep, repair
	res.Err = errors.Join(sweepErr, repairErr)
	res.Duration = time.Since(res.Started)

	w.mu.Lock()
	w.last = &res
	w.runs++
	if res.Err != nil {
		w.state = StateError
	} else {
		w.state = StateIdle
	}
	w.mu.Unlock()

	ev := w.log.Info()
	if res.Err != nil {
		ev = w.log.Error().Err(res.Err)
	} else if sweep.Total() == 0 && repair.Scopes == 0 {
		ev = w.log.Debug()
	}
	ev.Int("orphans", sweep.Total()).
		Int("scopes_repaired", repair.Scopes).
		Dur("took", res.Duration).
		Msg("maintenance pass finished")
	return res
}

func (w *Sweeper) loop() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	if w.initial {
		w.runAndSend()
	}
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runAndSend()
		case <-w.triggerCh:
			w.runAndSend()
		}
	}
}

func (w *Sweeper) runAndSend() {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	res := w.RunOnce(ctx)
	select {
	case w.resultCh <- res:
	default:
	}
}

func (w *Sweeper) setState(s State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}
