// Package lcu wraps the game client's local service endpoints.
package lcu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/session"
)

const (
	pathCurrentSummoner = "/lol-summoner/v1/current-summoner"
	pathCurrentRanked   = "/lol-ranked/v1/current-ranked-stats"
	pathBlockedPlayers  = "/lol-chat/v1/blocked-players"
	pathFriends         = "/lol-chat/v1/friends"
	pathSummoners       = "/lol-summoner/v1/summoners"
	pathByRiotID        = "/lol-summoner/v2/summoners/by-riot-id/%s/%s"
	pathByPUUID         = "/lol-summoner/v1/summoners/by-puuid/%s"
	pathRankedStats     = "/lol-ranked/v1/ranked-stats/%s"
)

// ID is an identifier the service sends either as a string or as a number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID(n.String())
		return nil
	}
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if s != nil {
		*id = ID(*s)
	}
	return nil
}

type Summoner struct {
	ID          ID     `json:"id"`
	SummonerID  ID     `json:"summonerId"`
	PUUID       string `json:"puuid"`
	DisplayName string `json:"displayName"`
	GameName    string `json:"gameName"`
	TagLine     string `json:"tagLine"`
}

// Identifier returns the summoner id under whichever key the payload used.
func (s Summoner) Identifier() string {
	if s.ID != "" {
		return string(s.ID)
	}
	return string(s.SummonerID)
}

// Name returns the Riot ID game name, or the legacy display name.
func (s Summoner) Name() string {
	if s.GameName != "" {
		return s.GameName
	}
	return s.DisplayName
}

type Friend struct {
	Name     string `json:"name"`
	GameName string `json:"gameName"`
	GameTag  string `json:"gameTag"`
	PUUID    string `json:"puuid"`
	ID       ID     `json:"summonerId"`
}

type queueStats struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Division     string `json:"division"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

type rankedStats struct {
	QueueMap map[string]queueStats `json:"queueMap"`
}

// solo returns the solo queue standing, or nil when the player has none.
func (r rankedStats) solo() (*domain.RankStanding, error) {
	q, ok := r.QueueMap[string(domain.QueueRankedSolo)]
	if !ok {
		return nil, nil
	}
	return domain.StandingFromLadder(string(domain.QueueRankedSolo), q.Tier, q.Division, q.LeaguePoints, q.Wins, q.Losses)
}

type Client struct {
	s session.Requester
}

func New(s session.Requester) *Client {
	return &Client{s: s}
}

func (c *Client) CurrentSummoner(ctx context.Context) (Summoner, error) {
	var s Summoner
	err := session.GetJSON(ctx, c.s, pathCurrentSummoner, &s)
	return s, err
}

// CurrentRank returns the logged-in player's solo queue standing.
func (c *Client) CurrentRank(ctx context.Context) (*domain.RankStanding, error) {
	var stats rankedStats
	if err := session.GetJSON(ctx, c.s, pathCurrentRanked, &stats); err != nil {
		return nil, err
	}
	return stats.solo()
}

func (c *Client) BlockedPlayers(ctx context.Context) ([]domain.BlockedEntry, error) {
	var entries []domain.BlockedEntry
	if err := session.GetJSON(ctx, c.s, pathBlockedPlayers, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) BlockedPlayer(ctx context.Context, id string) (Summoner, error) {
	var s Summoner
	err := session.GetJSON(ctx, c.s, pathBlockedPlayers+"/"+url.PathEscape(id), &s)
	return s, err
}

// Unblock removes one player from the blocked list.
func (c *Client) Unblock(ctx context.Context, id string) error {
	path := pathBlockedPlayers + "/" + url.PathEscape(id)
	resp, err := c.s.Do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: DELETE %s: %d", session.ErrUnexpectedStatus, path, resp.StatusCode)
	}
	return nil
}

func (c *Client) SummonerByRiotID(ctx context.Context, name, tag string) (Summoner, error) {
	var s Summoner
	err := session.GetJSON(ctx, c.s, fmt.Sprintf(pathByRiotID, url.PathEscape(name), url.PathEscape(tag)), &s)
	return s, err
}

func (c *Client) SummonersByName(ctx context.Context, name string) ([]Summoner, error) {
	var list []Summoner
	err := session.GetJSON(ctx, c.s, pathSummoners+"?name="+url.QueryEscape(name), &list)
	return list, err
}

func (c *Client) SummonerByPUUID(ctx context.Context, puuid string) (Summoner, error) {
	var s Summoner
	err := session.GetJSON(ctx, c.s, fmt.Sprintf(pathByPUUID, url.PathEscape(puuid)), &s)
	return s, err
}

func (c *Client) Friends(ctx context.Context) ([]Friend, error) {
	var friends []Friend
	err := session.GetJSON(ctx, c.s, pathFriends, &friends)
	return friends, err
}

// RankedStats returns the solo queue standing of summonerID, nil if unranked.
func (c *Client) RankedStats(ctx context.Context, summonerID string) (*domain.RankStanding, error) {
	var stats rankedStats
	if err := session.GetJSON(ctx, c.s, fmt.Sprintf(pathRankedStats, url.PathEscape(summonerID)), &stats); err != nil {
		return nil, err
	}
	return stats.solo()
}
