// Package service runs cleanup passes over the blocked list: resolve every
// player's standing, decide keep or remove, unblock, and save what is left.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/elo"
	"github.com/goserg/blockcleaner/internal/metrics"
	"github.com/goserg/blockcleaner/internal/resolver"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
)

const DefaultThreshold = 3

var (
	ErrCleanUnsupported = errors.New("clean needs a client that can unblock players")
	errNoLocalID        = errors.New("entry has no local id")
)

type Blocklist interface {
	Load(ctx context.Context) []domain.BlockedEntry
	Save(ctx context.Context, entries []domain.BlockedEntry) error
}

type Resolver interface {
	Resolve(ctx context.Context, e domain.BlockedEntry) resolver.Resolution
}

type Remover interface {
	Unblock(ctx context.Context, id string) error
}

type Connector interface {
	Connect(ctx context.Context) error
}

type SelfRanker interface {
	SelfStanding(ctx context.Context) (*domain.RankStanding, error)
}

// SelfRankerFunc adapts a function such as lcu.Client.CurrentRank.
type SelfRankerFunc func(ctx context.Context) (*domain.RankStanding, error)

func (f SelfRankerFunc) SelfStanding(ctx context.Context) (*domain.RankStanding, error) {
	return f(ctx)
}

// ResolvedSelf finds the current player's standing through the resolver,
// for clients that have no current-player endpoint.
func ResolvedSelf(r Resolver, name, tag string) SelfRanker {
	return SelfRankerFunc(func(ctx context.Context) (*domain.RankStanding, error) {
		res := r.Resolve(ctx, domain.BlockedEntry{DisplayName: name, TagLine: tag})
		if !res.Resolved {
			return nil, fmt.Errorf("self %s#%s: %w", name, tag, res.Reason)
		}
		return res.Standing, nil
	})
}

type Options struct {
	// RunID names the run. A new one is generated when it is nil.
	RunID     uuid.UUID
	Mode      domain.RunMode
	Threshold int
	// Limit caps how many entries are examined. 0 means all.
	Limit        int
	SelfOverride *domain.RankStanding
	Reporter     Reporter
}

type Engine struct {
	blocklist Blocklist
	resolver  Resolver
	remover   Remover
	connector Connector
	self      SelfRanker
	pause     time.Duration
	clock     clock.PassiveClock
	log       *logrus.Entry
}

type Option func(*Engine)

func WithRemover(r Remover) Option {
	return func(e *Engine) {
		e.remover = r
	}
}

func WithConnector(c Connector) Option {
	return func(e *Engine) {
		e.connector = c
	}
}

func WithSelfRanker(s SelfRanker) Option {
	return func(e *Engine) {
		e.self = s
	}
}

// WithRemovalPause sets the gap between two unblock calls.
func WithRemovalPause(d time.Duration) Option {
	return func(e *Engine) {
		e.pause = d
	}
}

func WithClock(c clock.PassiveClock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

func New(bl Blocklist, res Resolver, log *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		blocklist: bl,
		resolver:  res,
		pause:     500 * time.Millisecond,
		clock:     clock.RealClock{},
		log:       log.WithField("name", "engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanClean reports whether clean runs are possible with this engine.
func (e *Engine) CanClean() bool {
	return e.remover != nil
}

type run struct {
	*Engine
	opts     Options
	reporter Reporter
	sum      domain.RunSummary
}

// Run executes one pass. Only a failure to connect returns an error; every
// per-player problem ends up in the summary.
func (e *Engine) Run(ctx context.Context, opts Options) (domain.RunSummary, error) {
	if opts.Threshold < 1 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Mode == "" {
		opts.Mode = domain.ModeAnalyze
	}
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}
	r := &run{
		Engine:   e,
		opts:     opts,
		reporter: opts.Reporter,
		sum: domain.RunSummary{
			RunID:     opts.RunID,
			Mode:      opts.Mode,
			State:     domain.StateIdle,
			Threshold: opts.Threshold,
			StartedAt: e.clock.Now(),
		},
	}
	if r.reporter == nil {
		r.reporter = NewLogReporter(e.log)
	}
	if opts.Mode == domain.ModeClean && e.remover == nil {
		return r.sum, ErrCleanUnsupported
	}
	if e.connector != nil {
		if err := e.connector.Connect(ctx); err != nil {
			r.reporter.Log(logrus.ErrorLevel, fmt.Sprintf("cannot connect: %v", err))
			return r.sum, fmt.Errorf("connect: %w", err)
		}
	}
	r.execute(ctx)
	return r.sum, nil
}

func (r *run) execute(ctx context.Context) {
	defer func() {
		r.sum.FinishedAt = r.clock.Now()
		metrics.Runs.WithLabelValues(string(r.sum.Mode), string(r.sum.State)).Inc()
	}()

	r.enter(domain.StateLoading, 0, 0)
	entries := r.blocklist.Load(ctx)
	r.sum.Total = len(entries)
	if len(entries) == 0 {
		r.reporter.Log(logrus.InfoLevel, "no blocked players found")
		r.enter(domain.StateDone, 0, 0)
		return
	}
	r.reporter.Log(logrus.InfoLevel, fmt.Sprintf("%d blocked players loaded", len(entries)))

	self := r.selfStanding(ctx)
	r.sum.SelfStanding = self

	r.process(ctx, entries, self)
	if r.opts.Mode == domain.ModeAnalyze {
		r.sum.Kept = r.sum.Total
		r.enter(domain.StateDone, r.sum.Total, r.sum.Total)
		return
	}
	r.remove(ctx)
	r.persist(ctx)
}

func (r *run) enter(state domain.RunState, done, total int) {
	r.sum.State = state
	r.reporter.Progress(state, done, total)
}

func (r *run) selfStanding(ctx context.Context) *domain.RankStanding {
	if r.opts.SelfOverride != nil {
		return r.opts.SelfOverride
	}
	if r.self == nil {
		r.reporter.Log(logrus.WarnLevel, "own rank unknown, nothing will be removed")
		return nil
	}
	self, err := r.self.SelfStanding(ctx)
	if err != nil {
		r.reporter.Log(logrus.WarnLevel, fmt.Sprintf("own rank unavailable (%v), nothing will be removed", err))
		return nil
	}
	r.reporter.Log(logrus.InfoLevel, "own rank: "+self.String())
	return self
}

func (r *run) process(ctx context.Context, entries []domain.BlockedEntry, self *domain.RankStanding) {
	k := len(entries)
	if r.opts.Limit > 0 {
		k = min(r.opts.Limit, len(entries))
	}
	r.sum.Verdicts = make([]domain.Verdict, 0, len(entries))

	for i, entry := range entries {
		if i >= k {
			r.addVerdict(domain.Verdict{Entry: entry, Keep: true, Reason: domain.ReasonNotExamined})
			continue
		}
		if ctx.Err() != nil {
			r.addVerdict(domain.Verdict{Entry: entry, Keep: true, Reason: domain.ReasonNotExamined, Detail: "canceled"})
			continue
		}
		r.enter(domain.StateProcessing, i, k)
		r.reporter.Log(logrus.InfoLevel, fmt.Sprintf("checking %s (%d/%d)", entry.RiotID(), i+1, k))
		v := r.decide(entry, r.resolver.Resolve(ctx, entry), self)
		r.sum.Examined++
		if !v.Keep {
			r.sum.Candidates++
		}
		r.reporter.Log(logrus.InfoLevel, describe(v))
		r.addVerdict(v)
	}
	r.enter(domain.StateProcessing, k, k)
}

func (r *run) decide(entry domain.BlockedEntry, res resolver.Resolution, self *domain.RankStanding) domain.Verdict {
	v := domain.Verdict{
		Entry:      entry,
		PUUID:      res.Identity.PUUID,
		SummonerID: res.Identity.SummonerID,
		Keep:       true,
	}
	switch {
	case !res.Resolved:
		v.Reason = domain.ReasonUnresolved
		v.Detail = strings.Join(res.Attempts, "; ")
	case res.Standing == nil:
		v.Reason = domain.ReasonUnranked
	default:
		v.Standing = res.Standing
		v.EloDistance = elo.Distance(res.Standing, self)
		v.Keep = elo.Decide(res.Standing, v.EloDistance, r.opts.Threshold) == elo.Keep
		v.Reason = domain.ReasonEloDistance
		v.Detail = fmt.Sprintf("elo distance %d", v.EloDistance)
	}
	return v
}

func (r *run) addVerdict(v domain.Verdict) {
	action := elo.Keep
	if !v.Keep {
		action = elo.Remove
	}
	metrics.Verdicts.WithLabelValues(action.String(), string(v.Reason)).Inc()
	r.sum.Verdicts = append(r.sum.Verdicts, v)
}

func (r *run) remove(ctx context.Context) {
	var targets []int
	for i, v := range r.sum.Verdicts {
		if !v.Keep {
			targets = append(targets, i)
		}
	}
	limit := rate.Inf
	if r.pause > 0 {
		limit = rate.Every(r.pause)
	}
	pacer := rate.NewLimiter(limit, 1)

	for j, idx := range targets {
		r.enter(domain.StateRemoving, j, len(targets))
		v := &r.sum.Verdicts[idx]
		err := pacer.Wait(ctx)
		if err == nil {
			err = r.unblock(ctx, v.Entry)
		}
		if err != nil {
			v.Keep = true
			v.Reason = domain.ReasonRemoveFailed
			v.Detail = err.Error()
			r.sum.FailedToRemove++
			r.sum.Failures = append(r.sum.Failures, domain.Failure{Entry: v.Entry, Reason: err.Error()})
			metrics.Removals.WithLabelValues("failed").Inc()
			r.reporter.Log(logrus.WarnLevel, fmt.Sprintf("failed to remove %s: %v", v.Entry.RiotID(), err))
			continue
		}
		r.sum.Removed++
		metrics.Removals.WithLabelValues("removed").Inc()
		r.reporter.Log(logrus.InfoLevel, "removed "+v.Entry.RiotID())
	}
	r.enter(domain.StateRemoving, len(targets), len(targets))
}

func (r *run) unblock(ctx context.Context, e domain.BlockedEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.LocalID == "" {
		return errNoLocalID
	}
	return r.remover.Unblock(ctx, e.LocalID)
}

func (r *run) persist(ctx context.Context) {
	r.enter(domain.StatePersisting, 0, 1)
	keep := make([]domain.BlockedEntry, 0, len(r.sum.Verdicts))
	for _, v := range r.sum.Verdicts {
		if v.Keep {
			keep = append(keep, v.Entry)
		}
	}
	r.sum.KeepSet = keep
	r.sum.Kept = len(keep)

	// removals already happened, so the snapshot is written even after cancel
	if err := r.blocklist.Save(context.WithoutCancel(ctx), keep); err != nil {
		r.sum.PersistError = err.Error()
		r.reporter.Log(logrus.ErrorLevel, fmt.Sprintf("saving blocked list failed: %v", err))
		r.enter(domain.StatePartialFailure, 1, 1)
		return
	}
	r.reporter.Log(logrus.InfoLevel, fmt.Sprintf("done: %d removed, %d kept", r.sum.Removed, r.sum.Kept))
	r.enter(domain.StateDone, 1, 1)
}

func describe(v domain.Verdict) string {
	action := "keeping"
	if !v.Keep {
		action = "removing"
	}
	detail := string(v.Reason)
	if v.Detail != "" && v.Reason != domain.ReasonUnresolved {
		detail = v.Detail
	}
	return fmt.Sprintf(" - %s %s (%s, %s)", action, v.Entry.RiotID(), v.Standing.String(), detail)
}
