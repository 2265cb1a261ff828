// Package worker runs cleanup passes in the background, one at a time, and
// publishes their log lines and progress.
package worker

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/service"
	"github.com/sirupsen/logrus"
)

var (
	ErrBusy  = errors.New("a run is already in progress")
	ErrNoRun = errors.New("no run in progress")
)

const (
	maxLines   = 500
	eventQueue = 256
)

type EventKind string

const (
	EventLog      EventKind = "log"
	EventProgress EventKind = "progress"
	EventFinished EventKind = "finished"
)

type Event struct {
	Kind    EventKind
	RunID   uuid.UUID
	Time    time.Time
	Level   logrus.Level
	Message string
	State   domain.RunState
	Done    int
	Total   int
	Summary *domain.RunSummary
	Err     error
}

type Runner interface {
	Run(ctx context.Context, opts service.Options) (domain.RunSummary, error)
}

// Status is a copy of the current or last run's state.
type Status struct {
	RunID     uuid.UUID
	Mode      domain.RunMode
	Running   bool
	State     domain.RunState
	Done      int
	Total     int
	Lines     []string
	Summary   *domain.RunSummary
	Err       string
	StartedAt time.Time
}

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
	status Status
}

type Worker struct {
	runner Runner
	log    *logrus.Entry
	events chan Event

	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	cur    *job
}

func New(r Runner, log *logrus.Logger) *Worker {
	base, stop := context.WithCancel(context.Background())
	return &Worker{
		runner: r,
		log:    log.WithField("name", "worker"),
		events: make(chan Event, eventQueue),
		base:   base,
		stop:   stop,
	}
}

// Events delivers run events. Events are dropped rather than block a run
// when nobody reads.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Submit starts a run unless one is already going.
func (w *Worker) Submit(opts service.Options) (uuid.UUID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return uuid.Nil, context.Canceled
	}
	if w.cur != nil && w.cur.status.Running {
		return uuid.Nil, ErrBusy
	}
	ctx, cancel := context.WithCancel(w.base)
	j := &job{
		cancel: cancel,
		done:   make(chan struct{}),
		status: Status{
			RunID:     uuid.New(),
			Mode:      opts.Mode,
			Running:   true,
			State:     domain.StateIdle,
			StartedAt: time.Now(),
		},
	}
	w.cur = j
	opts.RunID = j.status.RunID
	opts.Reporter = &reporter{w: w, j: j}

	w.wg.Add(1)
	go w.execute(ctx, j, opts)
	w.log.WithFields(logrus.Fields{
		"run":  j.status.RunID,
		"mode": opts.Mode,
	}).Info("run submitted")
	return j.status.RunID, nil
}

func (w *Worker) execute(ctx context.Context, j *job, opts service.Options) {
	defer w.wg.Done()
	defer close(j.done)
	defer j.cancel()

	sum, err := w.runner.Run(ctx, opts)

	w.mu.Lock()
	j.status.Running = false
	j.status.Summary = &sum
	if sum.State != "" {
		j.status.State = sum.State
	}
	if err != nil {
		j.status.Err = err.Error()
		j.status.Lines = appendLine(j.status.Lines, "error: "+err.Error())
	}
	runID := j.status.RunID
	w.mu.Unlock()

	if err != nil {
		w.log.WithError(err).WithField("run", runID).Error("run failed")
	} else {
		w.log.WithFields(logrus.Fields{
			"run":     runID,
			"state":   sum.State,
			"removed": sum.Removed,
			"kept":    sum.Kept,
		}).Info("run finished")
	}
	w.publish(Event{Kind: EventFinished, RunID: runID, Time: time.Now(), Summary: &sum, Err: err})
}

// Cancel stops the current run between two players.
func (w *Worker) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil || !w.cur.status.Running {
		return ErrNoRun
	}
	w.cur.cancel()
	w.cur.status.Lines = appendLine(w.cur.status.Lines, "cancel requested")
	return nil
}

// Status reports the current run, or the last finished one.
func (w *Worker) Status() (Status, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil {
		return Status{}, false
	}
	st := w.cur.status
	st.Lines = slices.Clone(st.Lines)
	return st, true
}

// Wait blocks until the current run finishes or ctx ends.
func (w *Worker) Wait(ctx context.Context) error {
	w.mu.Lock()
	j := w.cur
	w.mu.Unlock()
	if j == nil {
		return nil
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any run, waits for it and closes the event channel.
func (w *Worker) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.stop()
	w.wg.Wait()
	close(w.events)
}

// publish never blocks. The last slot of the queue is kept for finished events.
func (w *Worker) publish(e Event) {
	if e.Kind != EventFinished && len(w.events) >= eventQueue-1 {
		w.log.WithField("kind", e.Kind).Debug("event dropped")
		return
	}
	select {
	case w.events <- e:
	default:
		w.log.WithField("kind", e.Kind).Debug("event dropped")
	}
}

func appendLine(lines []string, line string) []string {
	lines = append(lines, line)
	if len(lines) > maxLines {
		lines = slices.Delete(lines, 0, len(lines)-maxLines)
	}
	return lines
}

type reporter struct {
	w *Worker
	j *job
}

func (r *reporter) Log(level logrus.Level, msg string) {
	r.w.mu.Lock()
	r.j.status.Lines = appendLine(r.j.status.Lines, msg)
	runID := r.j.status.RunID
	r.w.mu.Unlock()

	r.w.log.WithField("run", runID).Log(level, msg)
	r.w.publish(Event{Kind: EventLog, RunID: runID, Time: time.Now(), Level: level, Message: msg})
}

func (r *reporter) Progress(state domain.RunState, done, total int) {
	r.w.mu.Lock()
	r.j.status.State = state
	r.j.status.Done = done
	r.j.status.Total = total
	runID := r.j.status.RunID
	r.w.mu.Unlock()

	r.w.publish(Event{Kind: EventProgress, RunID: runID, Time: time.Now(), State: state, Done: done, Total: total})
}
