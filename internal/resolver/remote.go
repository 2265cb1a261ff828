package resolver

import (
	"context"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/riotapi"
)

// RemoteAPI is the subset of the public API used for resolution.
type RemoteAPI interface {
	AccountByRiotID(ctx context.Context, name, tag string) (riotapi.Account, error)
	SummonerByName(ctx context.Context, name string) (riotapi.Summoner, error)
	SummonerByPUUID(ctx context.Context, puuid string) (riotapi.Summoner, error)
	SoloStanding(ctx context.Context, summonerID string) (*domain.RankStanding, error)
}

func RemoteStrategies(api RemoteAPI) []Strategy {
	return []Strategy{
		{
			Name: "account",
			Lookup: func(ctx context.Context, e domain.BlockedEntry) (Identity, error) {
				if e.DisplayName == "" || e.TagLine == "" {
					return Identity{}, errSkipped
				}
				a, err := api.AccountByRiotID(ctx, e.DisplayName, e.TagLine)
				if err != nil {
					return Identity{}, err
				}
				return Identity{PUUID: a.PUUID}, nil
			},
		},
		{
			Name: "name",
			Lookup: func(ctx context.Context, e domain.BlockedEntry) (Identity, error) {
				if e.DisplayName == "" {
					return Identity{}, errSkipped
				}
				s, err := api.SummonerByName(ctx, e.DisplayName)
				if err != nil {
					return Identity{}, err
				}
				return Identity{PUUID: s.PUUID, SummonerID: s.ID}, nil
			},
		},
		FromEntry(),
	}
}

type remoteRanker struct {
	api RemoteAPI
}

func RemoteRanker(api RemoteAPI) Ranker {
	return remoteRanker{api: api}
}

func (r remoteRanker) SummonerID(ctx context.Context, puuid string) (string, error) {
	s, err := r.api.SummonerByPUUID(ctx, puuid)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

func (r remoteRanker) Standing(ctx context.Context, summonerID string) (*domain.RankStanding, error) {
	return r.api.SoloStanding(ctx, summonerID)
}
