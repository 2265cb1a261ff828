package main

import (
	"context"
	"fmt"

	"github.com/goserg/blockcleaner/internal/blocklist"
	"github.com/goserg/blockcleaner/internal/cache/mem"
	"github.com/goserg/blockcleaner/internal/config"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/lcu"
	"github.com/goserg/blockcleaner/internal/ratelimit"
	"github.com/goserg/blockcleaner/internal/resolver"
	"github.com/goserg/blockcleaner/internal/riotapi"
	"github.com/goserg/blockcleaner/internal/service"
	"github.com/goserg/blockcleaner/internal/session"
	"github.com/goserg/blockcleaner/internal/storage"
	"github.com/goserg/blockcleaner/internal/storage/jsonfile"
	redisstorage "github.com/goserg/blockcleaner/internal/storage/redis"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// app holds everything one process needs, wired for the configured mode.
type app struct {
	cfg       config.Config
	session   *session.Client
	connector service.Connector
	store     *blocklist.Store
	engine    *service.Engine
	self      service.SelfRanker
	whoami    func(ctx context.Context) (string, error)
	cache     *mem.Cache[resolver.Resolution]
	defaults  service.Options
	closers   []func() error
}

func newApp(cfg config.Config, log *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg}

	snap, err := a.snapshot()
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.Client.Limits, ratelimit.WithName(cfg.Client.Mode))
	sessOpts := []session.Option{
		session.WithLimiter(limiter),
		session.WithTimeout(cfg.Client.Timeout),
	}
	a.cache = mem.New[resolver.Resolution]()
	cache := resolver.WithCache(a.cache)
	engineOpts := []service.Option{service.WithRemovalPause(cfg.Cleanup.RemovalPause)}

	switch cfg.Client.Mode {
	case config.ModeLocal:
		a.session = session.NewLocal(session.ProcessTable{}, cfg.Client.ProcessNames, log, sessOpts...)
		api := lcu.New(a.session)
		a.store = blocklist.New(api, snap, log)
		res := resolver.New(resolver.LocalStrategies(api), resolver.LocalRanker(api), log, cache)
		a.self = service.SelfRankerFunc(api.CurrentRank)
		a.whoami = func(ctx context.Context) (string, error) {
			s, err := api.CurrentSummoner(ctx)
			if err != nil {
				return "", err
			}
			if s.TagLine == "" {
				return s.Name(), nil
			}
			return s.Name() + "#" + s.TagLine, nil
		}
		a.connector = a.session
		engineOpts = append(engineOpts,
			service.WithRemover(api),
			service.WithConnector(a.connector),
			service.WithSelfRanker(a.self),
		)
		a.engine = service.New(a.store, res, log, engineOpts...)
	case config.ModeRemote:
		regional := session.NewRemote(cfg.Remote.RegionalURL, cfg.Remote.APIKey, log, sessOpts...)
		a.session = session.NewRemote(cfg.Remote.PlatformURL, cfg.Remote.APIKey, log, sessOpts...)
		api := riotapi.New(regional, a.session)
		a.store = blocklist.New(nil, snap, log)
		res := resolver.New(resolver.RemoteStrategies(api), resolver.RemoteRanker(api), log, cache)
		a.self = service.ResolvedSelf(res, cfg.Remote.SelfGameName, cfg.Remote.SelfTagLine)
		a.whoami = func(context.Context) (string, error) {
			return domain.BlockedEntry{DisplayName: cfg.Remote.SelfGameName, TagLine: cfg.Remote.SelfTagLine}.RiotID(), nil
		}
		a.connector = session.Group{regional, a.session}
		engineOpts = append(engineOpts,
			service.WithConnector(a.connector),
			service.WithSelfRanker(a.self),
		)
		a.engine = service.New(a.store, res, log, engineOpts...)
	default:
		return nil, fmt.Errorf("%w, got %q", config.ErrInvalidMode, cfg.Client.Mode)
	}

	a.defaults = service.Options{
		Threshold: cfg.Cleanup.Threshold,
		Limit:     cfg.Cleanup.Limit,
	}
	if cfg.Cleanup.SelfRank != "" {
		self, err := domain.ParseStanding(cfg.Cleanup.SelfRank)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidSelfRank, err)
		}
		a.defaults.SelfOverride = self
	}
	return a, nil
}

func (a *app) snapshot() (storage.SnapshotStorage, error) {
	switch a.cfg.Snapshot.Backend {
	case config.BackendFile:
		return jsonfile.New(a.cfg.Snapshot.Path), nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Snapshot.RedisAddr,
			Password: a.cfg.Snapshot.RedisPassword,
			DB:       a.cfg.Snapshot.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		return redisstorage.New(client, a.cfg.Snapshot.RedisKey), nil
	}
	return nil, fmt.Errorf("%w, got %q", config.ErrInvalidBackend, a.cfg.Snapshot.Backend)
}

// selfStanding prefers the configured rank over asking the service.
func (a *app) selfStanding(ctx context.Context) (*domain.RankStanding, error) {
	if a.defaults.SelfOverride != nil {
		return a.defaults.SelfOverride, nil
	}
	return a.self.SelfStanding(ctx)
}

func (a *app) Close(log *logrus.Logger) {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.WithError(err).Warn("close")
		}
	}
}
