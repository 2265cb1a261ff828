package resolver

import (
	"context"
	"errors"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/lcu"
)

// LocalAPI is the subset of the local client used for resolution.
type LocalAPI interface {
	SummonerByRiotID(ctx context.Context, name, tag string) (lcu.Summoner, error)
	SummonersByName(ctx context.Context, name string) ([]lcu.Summoner, error)
	Friends(ctx context.Context) ([]lcu.Friend, error)
	BlockedPlayer(ctx context.Context, id string) (lcu.Summoner, error)
	SummonerByPUUID(ctx context.Context, puuid string) (lcu.Summoner, error)
	RankedStats(ctx context.Context, summonerID string) (*domain.RankStanding, error)
}

var errNoMatch = errors.New("no matching player")

// LocalStrategies is the cascade against the local client: Riot ID, name
// search, chat friends, the blocked-list entry itself, then the payload.
func LocalStrategies(api LocalAPI) []Strategy {
	return []Strategy{
		{
			Name: "riot_id",
			Lookup: func(ctx context.Context, e domain.BlockedEntry) (Identity, error) {
				if e.DisplayName == "" || e.TagLine == "" {
					return Identity{}, errSkipped
				}
				s, err := api.SummonerByRiotID(ctx, e.DisplayName, e.TagLine)
				if err != nil {
					return Identity{}, err
				}
				return Identity{PUUID: s.PUUID, SummonerID: s.Identifier()}, nil
			},
		},
		{
			Name: "name",
			Lookup: func(ctx context.Context, e domain.BlockedEntry) (Identity, error) {
				if e.DisplayName == "" {
					return Identity{}, errSkipped
				}
				list, err := api.SummonersByName(ctx, e.DisplayName)
				if err != nil {
					return Identity{}, err
				}
				if len(list) == 0 {
					return Identity{}, errNoMatch
				}
				pick := list[0]
				for _, s := range list {
					if sameName(s.Name(), e.DisplayName) {
						pick = s
						break
					}
				}
				return Identity{PUUID: pick.PUUID, SummonerID: pick.Identifier()}, nil
			},
		},
		{
			Name: "friends",
			Lookup: func(ctx context.Context, e domain.BlockedEntry) (Identity, error) {
				if e.DisplayName == "" {
					return Identity{}, errSkipped
				}
				friends, err := api.Friends(ctx)
				if err != nil {
					return Identity{}, err
				}
				for _, f := range friends {
					if (sameName(f.Name, e.DisplayName) || sameName(f.GameName, e.DisplayName)) && f.PUUID != "" {
						return Identity{PUUID: f.PUUID, SummonerID: string(f.ID)}, nil
					}
				}
				return Identity{}, errNoMatch
			},
		},
		{
			Name: "blocked_entry",
			Lookup: func(ctx context.Context, e domain.BlockedEntry) (Identity, error) {
				if e.LocalID == "" {
					return Identity{}, errSkipped
				}
				s, err := api.BlockedPlayer(ctx, e.LocalID)
				if err != nil {
					return Identity{}, err
				}
				return Identity{PUUID: s.PUUID, SummonerID: s.Identifier()}, nil
			},
		},
		FromEntry(),
	}
}

type localRanker struct {
	api LocalAPI
}

func LocalRanker(api LocalAPI) Ranker {
	return localRanker{api: api}
}

func (r localRanker) SummonerID(ctx context.Context, puuid string) (string, error) {
	s, err := r.api.SummonerByPUUID(ctx, puuid)
	if err != nil {
		return "", err
	}
	return s.Identifier(), nil
}

func (r localRanker) Standing(ctx context.Context, summonerID string) (*domain.RankStanding, error) {
	return r.api.RankedStats(ctx, summonerID)
}
