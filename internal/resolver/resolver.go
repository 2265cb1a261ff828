// Package resolver finds a blocked player's durable identity and current
// solo queue standing by trying lookup strategies in order.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/goserg/blockcleaner/internal/cache/mem"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/metrics"
	"github.com/goserg/blockcleaner/internal/normalize"
	"github.com/sirupsen/logrus"
)

var (
	ErrResolutionExhausted = errors.New("no strategy resolved the player")

	errNoIdentity = errors.New("lookup returned no identity")
	errSkipped    = errors.New("not applicable")
)

const outcomeExhausted = "exhausted"

// Identity is what a strategy yields. SummonerID may be empty, in which case
// the Ranker derives it from PUUID.
type Identity struct {
	PUUID      string
	SummonerID string
}

func (i Identity) empty() bool {
	return i.PUUID == "" && i.SummonerID == ""
}

type Strategy struct {
	Name   string
	Lookup func(ctx context.Context, e domain.BlockedEntry) (Identity, error)
}

// Ranker turns an identity into a standing.
type Ranker interface {
	SummonerID(ctx context.Context, puuid string) (string, error)
	Standing(ctx context.Context, summonerID string) (*domain.RankStanding, error)
}

// Resolution is the result of Resolve. An unresolved player is data, not an
// error: Resolved is false and Reason is ErrResolutionExhausted.
type Resolution struct {
	Resolved bool
	Identity Identity
	Standing *domain.RankStanding
	Strategy string
	Reason   error
	Attempts []string
}

type Resolver struct {
	strategies []Strategy
	ranker     Ranker
	cache      *mem.Cache[Resolution]
	log        *logrus.Entry
}

type Option func(*Resolver)

func WithCache(c *mem.Cache[Resolution]) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

func New(strategies []Strategy, ranker Ranker, log *logrus.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		strategies: strategies,
		ranker:     ranker,
		log:        log.WithField("name", "resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, e domain.BlockedEntry) Resolution {
	key := normalize.RiotID(e.DisplayName, e.TagLine)
	useCache := r.cache != nil && key != ""
	if useCache {
		if res, ok := r.cache.Get(key); ok {
			return res
		}
	}
	log := r.log.WithField("player", e.RiotID())

	var attempts []string
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			attempts = append(attempts, ctx.Err().Error())
			break
		}
		id, err := s.Lookup(ctx, e)
		if err == nil && id.empty() {
			err = errNoIdentity
		}
		if err != nil {
			if !errors.Is(err, errSkipped) {
				log.WithError(err).WithField("strategy", s.Name).Debug("lookup failed")
				attempts = append(attempts, fmt.Sprintf("%s: %v", s.Name, err))
			}
			continue
		}
		id, standing, err := r.rank(ctx, id)
		if err != nil {
			log.WithError(err).WithField("strategy", s.Name).Debug("rank lookup failed")
			attempts = append(attempts, fmt.Sprintf("%s: %v", s.Name, err))
			continue
		}
		res := Resolution{
			Resolved: true,
			Identity: id,
			Standing: standing,
			Strategy: s.Name,
		}
		metrics.ResolverOutcomes.WithLabelValues(s.Name).Inc()
		log.WithFields(logrus.Fields{
			"strategy": s.Name,
			"rank":     standing.String(),
		}).Debug("resolved")
		if useCache {
			r.cache.Put(key, res)
		}
		return res
	}

	metrics.ResolverOutcomes.WithLabelValues(outcomeExhausted).Inc()
	log.WithField("attempts", len(attempts)).Info("player not resolved")
	return Resolution{
		Reason:   ErrResolutionExhausted,
		Attempts: attempts,
	}
}

func (r *Resolver) rank(ctx context.Context, id Identity) (Identity, *domain.RankStanding, error) {
	if id.SummonerID == "" {
		sid, err := r.ranker.SummonerID(ctx, id.PUUID)
		if err != nil {
			return id, nil, fmt.Errorf("summoner id: %w", err)
		}
		if sid == "" {
			return id, nil, fmt.Errorf("summoner id: %w", errNoIdentity)
		}
		id.SummonerID = sid
	}
	standing, err := r.ranker.Standing(ctx, id.SummonerID)
	if err != nil {
		return id, nil, fmt.Errorf("standing: %w", err)
	}
	return id, standing, nil
}

// FromEntry uses identifiers the blocked-list payload already carries.
func FromEntry() Strategy {
	return Strategy{
		Name: "entry",
		Lookup: func(_ context.Context, e domain.BlockedEntry) (Identity, error) {
			if e.PUUID == "" && e.SummonerID == "" {
				return Identity{}, errSkipped
			}
			return Identity{PUUID: e.PUUID, SummonerID: e.SummonerID}, nil
		},
	}
}

func sameName(a, b string) bool {
	return a != "" && normalize.Name(a) == normalize.Name(b)
}
