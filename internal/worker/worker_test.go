package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRunner reports once, then waits for release or cancellation.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingRunner) Run(ctx context.Context, opts service.Options) (domain.RunSummary, error) {
	opts.Reporter.Progress(domain.StateProcessing, 1, 3)
	opts.Reporter.Log(logrus.InfoLevel, "checking Foo#BR1 (1/3)")
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return domain.RunSummary{RunID: opts.RunID, Mode: opts.Mode, State: domain.StateDone}, nil
	}
	return domain.RunSummary{RunID: opts.RunID, Mode: opts.Mode, State: domain.StateDone, Removed: 1}, b.err
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestWorker_SingleRun(t *testing.T) {
	r := newBlockingRunner()
	w := New(r, testLogger())
	defer w.Close()

	id, err := w.Submit(service.Options{Mode: domain.ModeClean})
	require.NoError(t, err)
	<-r.started

	_, err = w.Submit(service.Options{Mode: domain.ModeAnalyze})
	assert.ErrorIs(t, err, ErrBusy)

	st, ok := w.Status()
	require.True(t, ok)
	assert.Equal(t, id, st.RunID)
	assert.True(t, st.Running)
	assert.Equal(t, domain.StateProcessing, st.State)
	assert.Equal(t, 1, st.Done)
	assert.Equal(t, []string{"checking Foo#BR1 (1/3)"}, st.Lines)

	close(r.release)
	require.NoError(t, w.Wait(waitCtx(t)))

	st, _ = w.Status()
	assert.False(t, st.Running)
	require.NotNil(t, st.Summary)
	assert.Equal(t, 1, st.Summary.Removed)
	assert.Equal(t, id, st.Summary.RunID)
	assert.Equal(t, domain.StateDone, st.State)

	r2 := newBlockingRunner()
	close(r2.release)
	w.runner = r2
	_, err = w.Submit(service.Options{Mode: domain.ModeAnalyze})
	assert.NoError(t, err, "a new run is accepted once the previous finished")
	require.NoError(t, w.Wait(waitCtx(t)))
}

func TestWorker_Events(t *testing.T) {
	r := newBlockingRunner()
	close(r.release)
	w := New(r, testLogger())
	defer w.Close()

	id, err := w.Submit(service.Options{Mode: domain.ModeAnalyze})
	require.NoError(t, err)

	var kinds []EventKind
	ctx := waitCtx(t)
	for {
		select {
		case e := <-w.Events():
			assert.Equal(t, id, e.RunID)
			kinds = append(kinds, e.Kind)
			if e.Kind == EventFinished {
				require.NotNil(t, e.Summary)
				assert.Equal(t, []EventKind{EventProgress, EventLog, EventFinished}, kinds)
				return
			}
		case <-ctx.Done():
			t.Fatal("no finished event")
		}
	}
}

func TestWorker_Cancel(t *testing.T) {
	assert.ErrorIs(t, New(newBlockingRunner(), testLogger()).Cancel(), ErrNoRun)

	r := newBlockingRunner()
	w := New(r, testLogger())
	defer w.Close()

	_, err := w.Submit(service.Options{Mode: domain.ModeClean})
	require.NoError(t, err)
	<-r.started

	require.NoError(t, w.Cancel())
	require.NoError(t, w.Wait(waitCtx(t)))
	st, _ := w.Status()
	assert.False(t, st.Running)
	assert.Contains(t, st.Lines, "cancel requested")
}

func TestWorker_RunError(t *testing.T) {
	r := newBlockingRunner()
	r.err = errors.New("local client service not found")
	close(r.release)
	w := New(r, testLogger())
	defer w.Close()

	_, err := w.Submit(service.Options{})
	require.NoError(t, err)
	require.NoError(t, w.Wait(waitCtx(t)))

	st, _ := w.Status()
	assert.Equal(t, "local client service not found", st.Err)
}

func TestWorker_Close(t *testing.T) {
	r := newBlockingRunner()
	w := New(r, testLogger())
	_, err := w.Submit(service.Options{})
	require.NoError(t, err)
	<-r.started

	w.Close()
	for range w.Events() {
	}
	_, open := <-w.Events()
	assert.False(t, open)
	_, err = w.Submit(service.Options{})
	assert.Error(t, err)
}
