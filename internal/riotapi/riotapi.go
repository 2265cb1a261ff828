// Package riotapi wraps the public ranked ladder API. Account lookups go to
// the regional host, summoner and league lookups to the platform host.
package riotapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/session"
)

const (
	pathAccountByRiotID   = "/riot/account/v1/accounts/by-riot-id/%s/%s"
	pathSummonerByPUUID   = "/lol/summoner/v4/summoners/by-puuid/%s"
	pathSummonerByName    = "/lol/summoner/v4/summoners/by-name/%s"
	pathEntriesBySummoner = "/lol/league/v4/entries/by-summoner/%s"
)

type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type Summoner struct {
	ID    string `json:"id"`
	PUUID string `json:"puuid"`
	Name  string `json:"name"`
}

type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type Client struct {
	regional session.Requester
	platform session.Requester
}

func New(regional, platform session.Requester) *Client {
	return &Client{
		regional: regional,
		platform: platform,
	}
}

func (c *Client) AccountByRiotID(ctx context.Context, name, tag string) (Account, error) {
	var a Account
	err := session.GetJSON(ctx, c.regional, fmt.Sprintf(pathAccountByRiotID, url.PathEscape(name), url.PathEscape(tag)), &a)
	return a, err
}

func (c *Client) SummonerByPUUID(ctx context.Context, puuid string) (Summoner, error) {
	var s Summoner
	err := session.GetJSON(ctx, c.platform, fmt.Sprintf(pathSummonerByPUUID, url.PathEscape(puuid)), &s)
	return s, err
}

func (c *Client) SummonerByName(ctx context.Context, name string) (Summoner, error) {
	var s Summoner
	err := session.GetJSON(ctx, c.platform, fmt.Sprintf(pathSummonerByName, url.PathEscape(name)), &s)
	return s, err
}

func (c *Client) LeagueEntries(ctx context.Context, summonerID string) ([]LeagueEntry, error) {
	var entries []LeagueEntry
	err := session.GetJSON(ctx, c.platform, fmt.Sprintf(pathEntriesBySummoner, url.PathEscape(summonerID)), &entries)
	return entries, err
}

// SoloStanding returns the solo queue standing, nil when there is no such entry.
func (c *Client) SoloStanding(ctx context.Context, summonerID string) (*domain.RankStanding, error) {
	entries, err := c.LeagueEntries(ctx, summonerID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.QueueType != string(domain.QueueRankedSolo) {
			continue
		}
		return domain.StandingFromLadder(e.QueueType, e.Tier, e.Rank, e.LeaguePoints, e.Wins, e.Losses)
	}
	return nil, nil
}
