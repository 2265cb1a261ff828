package service

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/resolver"
	"github.com/goserg/blockcleaner/internal/session"
	"github.com/goserg/blockcleaner/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

// fakeClient plays both the live blocked list and the unblock endpoint, so
// a removal is visible to the next Load.
type fakeClient struct {
	mu       sync.Mutex
	live     []domain.BlockedEntry
	saved    []domain.BlockedEntry
	saveErr  error
	failIDs  map[string]bool
	unblocks []string
	loads    int
}

func (f *fakeClient) Load(context.Context) []domain.BlockedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return slices.Clone(f.live)
}

func (f *fakeClient) Save(_ context.Context, entries []domain.BlockedEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = slices.Clone(entries)
	return nil
}

func (f *fakeClient) Unblock(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unblocks = append(f.unblocks, id)
	if f.failIDs[id] {
		return session.ErrTransport
	}
	f.live = slices.DeleteFunc(f.live, func(e domain.BlockedEntry) bool { return e.LocalID == id })
	return nil
}

type fakeResolver struct {
	mu       sync.Mutex
	standing map[string]*domain.RankStanding
	calls    int
}

func (f *fakeResolver) Resolve(_ context.Context, e domain.BlockedEntry) resolver.Resolution {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	s, ok := f.standing[e.LocalID]
	if !ok {
		return resolver.Resolution{Reason: resolver.ErrResolutionExhausted, Attempts: []string{"riot_id: not found"}}
	}
	return resolver.Resolution{
		Resolved: true,
		Identity: resolver.Identity{PUUID: "p-" + e.LocalID, SummonerID: "s-" + e.LocalID},
		Standing: s,
		Strategy: "riot_id",
	}
}

type recorder struct {
	mu     sync.Mutex
	states []domain.RunState
	lines  []string
}

func (r *recorder) Log(_ logrus.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, msg)
}

func (r *recorder) Progress(state domain.RunState, _, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 || r.states[len(r.states)-1] != state {
		r.states = append(r.states, state)
	}
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

var (
	platinum1 = domain.NewStanding(domain.TierPlatinum, domain.DivisionI)
	gold2     = domain.NewStanding(domain.TierGold, domain.DivisionII)
	iron4     = domain.NewStanding(domain.TierIron, domain.DivisionIV)

	entryGold  = domain.BlockedEntry{LocalID: "g", DisplayName: "Gold", TagLine: "BR1"}
	entryIron  = domain.BlockedEntry{LocalID: "i", DisplayName: "Iron", TagLine: "BR1"}
	entryGhost = domain.BlockedEntry{LocalID: "x", DisplayName: "Ghost", TagLine: "BR1"}
)

func scenario() (*fakeClient, *fakeResolver) {
	client := &fakeClient{live: []domain.BlockedEntry{entryGold, entryIron, entryGhost}}
	res := &fakeResolver{standing: map[string]*domain.RankStanding{
		"g": gold2,
		"i": iron4,
	}}
	return client, res
}

func newEngine(client *fakeClient, res *fakeResolver, opts ...Option) *Engine {
	opts = append([]Option{
		WithRemover(client),
		WithSelfRanker(SelfRankerFunc(func(context.Context) (*domain.RankStanding, error) { return platinum1, nil })),
		WithRemovalPause(0),
	}, opts...)
	return New(client, res, testLogger(), opts...)
}

func verdictFor(t *testing.T, sum domain.RunSummary, id string) domain.Verdict {
	t.Helper()
	for _, v := range sum.Verdicts {
		if v.Entry.LocalID == id {
			return v
		}
	}
	t.Fatalf("no verdict for %s", id)
	return domain.Verdict{}
}

func TestEngine_CleanScenario(t *testing.T) {
	client, res := scenario()
	rec := &recorder{}
	sum, err := newEngine(client, res).Run(context.Background(), Options{
		Mode:      domain.ModeClean,
		Threshold: 3,
		Reporter:  rec,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StateDone, sum.State)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 3, sum.Examined)
	assert.Equal(t, 1, sum.Removed)
	assert.Equal(t, 2, sum.Kept)
	assert.Equal(t, 0, sum.FailedToRemove)
	assert.Equal(t, "PLATINUM I", sum.SelfStanding.String())

	gold := verdictFor(t, sum, "g")
	assert.True(t, gold.Keep)
	assert.Equal(t, 1, gold.EloDistance)
	assert.Equal(t, domain.ReasonEloDistance, gold.Reason)

	iron := verdictFor(t, sum, "i")
	assert.False(t, iron.Keep)
	assert.Equal(t, 4, iron.EloDistance)
	assert.Equal(t, "s-i", iron.SummonerID)

	ghost := verdictFor(t, sum, "x")
	assert.True(t, ghost.Keep)
	assert.Equal(t, domain.ReasonUnresolved, ghost.Reason)

	assert.Equal(t, []string{"i"}, client.unblocks)
	assert.Equal(t, []domain.BlockedEntry{entryGold, entryGhost}, client.saved)
	assert.Equal(t, sum.KeepSet, client.saved)
	assert.Equal(t, []domain.RunState{
		domain.StateLoading,
		domain.StateProcessing,
		domain.StateRemoving,
		domain.StatePersisting,
		domain.StateDone,
	}, rec.states)
}

func TestEngine_AnalyzeRemovesNothing(t *testing.T) {
	client, res := scenario()
	sum, err := newEngine(client, res).Run(context.Background(), Options{Mode: domain.ModeAnalyze, Threshold: 3})
	require.NoError(t, err)

	assert.Equal(t, domain.StateDone, sum.State)
	assert.Equal(t, 1, sum.Candidates)
	assert.Equal(t, 0, sum.Removed)
	assert.Equal(t, 3, sum.Kept)
	assert.Empty(t, client.unblocks)
	assert.Nil(t, client.saved)
}

func TestEngine_EmptyBlocklist(t *testing.T) {
	client := &fakeClient{}
	res := &fakeResolver{}
	selfCalls := 0
	e := New(client, res, testLogger(),
		WithRemover(client),
		WithSelfRanker(SelfRankerFunc(func(context.Context) (*domain.RankStanding, error) {
			selfCalls++
			return platinum1, nil
		})),
	)
	sum, err := e.Run(context.Background(), Options{Mode: domain.ModeClean})
	require.NoError(t, err)

	assert.Equal(t, domain.StateDone, sum.State)
	assert.Zero(t, sum.Total)
	assert.Zero(t, sum.Removed)
	assert.Zero(t, sum.Kept)
	assert.Zero(t, res.calls)
	assert.Zero(t, selfCalls)
	assert.Empty(t, client.unblocks)
	assert.Nil(t, client.saved)
	assert.Equal(t, 1, client.loads)
}

func TestEngine_FailedRemoval(t *testing.T) {
	client, res := scenario()
	client.failIDs = map[string]bool{"i": true}
	sum, err := newEngine(client, res).Run(context.Background(), Options{Mode: domain.ModeClean, Threshold: 3})
	require.NoError(t, err)

	assert.Equal(t, domain.StateDone, sum.State)
	assert.Equal(t, 0, sum.Removed)
	assert.Equal(t, 1, sum.FailedToRemove)
	require.Len(t, sum.Failures, 1)
	assert.Equal(t, entryIron, sum.Failures[0].Entry)

	iron := verdictFor(t, sum, "i")
	assert.True(t, iron.Keep)
	assert.Equal(t, domain.ReasonRemoveFailed, iron.Reason)
	assert.Contains(t, client.saved, entryIron)
	assert.Len(t, client.saved, 3)
}

func TestEngine_Idempotent(t *testing.T) {
	client, res := scenario()
	e := newEngine(client, res)
	ctx := context.Background()

	first, err := e.Run(ctx, Options{Mode: domain.ModeClean, Threshold: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Removed)

	second, err := e.Run(ctx, Options{Mode: domain.ModeClean, Threshold: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Removed)
	assert.Equal(t, first.KeepSet, second.KeepSet)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestEngine_PersistFailure(t *testing.T) {
	client, res := scenario()
	client.saveErr = storage.ErrPersistence
	sum, err := newEngine(client, res).Run(context.Background(), Options{Mode: domain.ModeClean, Threshold: 3})
	require.NoError(t, err)

	assert.Equal(t, domain.StatePartialFailure, sum.State)
	assert.NotEmpty(t, sum.PersistError)
	assert.Equal(t, 1, sum.Removed, "removals are not rolled back")
}

func TestEngine_Limit(t *testing.T) {
	tests := []struct {
		name         string
		limit        int
		wantExamined int
	}{
		{name: "all", limit: 0, wantExamined: 3},
		{name: "one", limit: 1, wantExamined: 1},
		{name: "beyond total", limit: 10, wantExamined: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, res := scenario()
			sum, err := newEngine(client, res).Run(context.Background(), Options{
				Mode:      domain.ModeClean,
				Threshold: 3,
				Limit:     tt.limit,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantExamined, sum.Examined)
			assert.Equal(t, tt.wantExamined, res.calls)
			assert.Len(t, sum.Verdicts, 3)
			assert.Len(t, client.saved, 3-sum.Removed)
			if tt.limit == 1 {
				assert.Equal(t, domain.ReasonNotExamined, verdictFor(t, sum, "i").Reason)
				assert.Equal(t, domain.ReasonNotExamined, verdictFor(t, sum, "x").Reason)
			}
		})
	}
}

func TestEngine_ThresholdDefaultsToThree(t *testing.T) {
	client, res := scenario()
	sum, err := newEngine(client, res).Run(context.Background(), Options{Mode: domain.ModeAnalyze})
	require.NoError(t, err)
	assert.Equal(t, DefaultThreshold, sum.Threshold)
	assert.Equal(t, 1, sum.Candidates)
}

func TestEngine_SelfOverrideAndUnrankedSelf(t *testing.T) {
	client, res := scenario()
	e := New(client, res, testLogger(), WithRemover(client), WithRemovalPause(0))

	sum, err := e.Run(context.Background(), Options{Mode: domain.ModeClean, Threshold: 1})
	require.NoError(t, err)
	assert.Nil(t, sum.SelfStanding)
	assert.Zero(t, sum.Removed, "unranked self removes nothing")

	sum, err = e.Run(context.Background(), Options{Mode: domain.ModeAnalyze, Threshold: 1, SelfOverride: iron4})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Candidates)
	assert.True(t, verdictFor(t, sum, "i").Keep)
	assert.False(t, verdictFor(t, sum, "g").Keep)
}

func TestEngine_SelfRankError(t *testing.T) {
	client, res := scenario()
	e := newEngine(client, res, WithSelfRanker(SelfRankerFunc(func(context.Context) (*domain.RankStanding, error) {
		return nil, session.ErrTransport
	})))
	sum, err := e.Run(context.Background(), Options{Mode: domain.ModeClean, Threshold: 1})
	require.NoError(t, err)
	assert.Zero(t, sum.Removed)
}

type connectorFunc func(ctx context.Context) error

func (f connectorFunc) Connect(ctx context.Context) error { return f(ctx) }

func TestEngine_ConnectFailureHalts(t *testing.T) {
	for _, want := range []error{session.ErrServiceNotFound, session.ErrCredentialMissing} {
		client, res := scenario()
		e := newEngine(client, res, WithConnector(connectorFunc(func(context.Context) error { return want })))
		sum, err := e.Run(context.Background(), Options{Mode: domain.ModeClean})
		assert.ErrorIs(t, err, want)
		assert.Equal(t, domain.StateIdle, sum.State)
		assert.Zero(t, client.loads)
	}
}

func TestEngine_CleanUnsupported(t *testing.T) {
	client, res := scenario()
	e := New(client, res, testLogger())
	assert.False(t, e.CanClean())
	_, err := e.Run(context.Background(), Options{Mode: domain.ModeClean})
	assert.ErrorIs(t, err, ErrCleanUnsupported)
}

type cancelingResolver struct {
	*fakeResolver
	cancel context.CancelFunc
}

func (c cancelingResolver) Resolve(ctx context.Context, e domain.BlockedEntry) resolver.Resolution {
	res := c.fakeResolver.Resolve(ctx, e)
	c.cancel()
	return res
}

func TestEngine_CancelKeepsUnprocessed(t *testing.T) {
	client, res := scenario()
	client.live = []domain.BlockedEntry{entryIron, entryGold, entryGhost}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := New(client, cancelingResolver{fakeResolver: res, cancel: cancel}, testLogger(),
		WithRemover(client),
		WithSelfRanker(SelfRankerFunc(func(context.Context) (*domain.RankStanding, error) { return platinum1, nil })),
	)
	sum, err := e.Run(ctx, Options{Mode: domain.ModeClean, Threshold: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Examined)
	assert.Equal(t, domain.ReasonNotExamined, verdictFor(t, sum, "g").Reason)
	assert.Equal(t, domain.ReasonRemoveFailed, verdictFor(t, sum, "i").Reason)
	assert.Empty(t, client.unblocks)
	assert.Len(t, client.saved, 3, "snapshot still written after cancel")
}

func TestEngine_Timestamps(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fc := clocktesting.NewFakePassiveClock(start)
	client, res := scenario()
	sum, err := newEngine(client, res, WithClock(fc)).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, start, sum.StartedAt)
	assert.Equal(t, start, sum.FinishedAt)
	assert.Equal(t, domain.ModeAnalyze, sum.Mode)
}

func TestEngine_RunID(t *testing.T) {
	client, res := scenario()
	e := newEngine(client, res)

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	sum, err := e.Run(context.Background(), Options{RunID: id})
	require.NoError(t, err)
	assert.Equal(t, id, sum.RunID)

	sum, err = e.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, sum.RunID)
	assert.NotEqual(t, id, sum.RunID)
}

func TestResolvedSelf(t *testing.T) {
	res := &fakeResolver{standing: map[string]*domain.RankStanding{}}
	_, err := ResolvedSelf(res, "Me", "BR1").SelfStanding(context.Background())
	assert.True(t, errors.Is(err, resolver.ErrResolutionExhausted))
}
