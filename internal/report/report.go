// Package report renders run results: a spreadsheet of every verdict and a
// short summary as a table, JSON or YAML.
package report

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/elo"
)

// Row is one verdict flattened for output.
type Row struct {
	Name        string `json:"name" yaml:"name"`
	ID          string `json:"id" yaml:"id"`
	SummonerID  string `json:"summonerId,omitempty" yaml:"summonerId,omitempty"`
	PUUID       string `json:"puuid,omitempty" yaml:"puuid,omitempty"`
	Queue       string `json:"queue,omitempty" yaml:"queue,omitempty"`
	Elo         string `json:"elo" yaml:"elo"`
	LP          string `json:"lp,omitempty" yaml:"lp,omitempty"`
	Wins        string `json:"wins,omitempty" yaml:"wins,omitempty"`
	Losses      string `json:"losses,omitempty" yaml:"losses,omitempty"`
	WinRate     string `json:"winrate,omitempty" yaml:"winrate,omitempty"`
	EloDistance int    `json:"eloDistance" yaml:"eloDistance"`
	Action      string `json:"action" yaml:"action"`
	Reason      string `json:"reason" yaml:"reason"`
	Detail      string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Rows flattens verdicts, highest rank first and unranked last.
func Rows(verdicts []domain.Verdict) []Row {
	sorted := slices.Clone(verdicts)
	elo.Sort(sorted)
	rows := make([]Row, 0, len(sorted))
	for _, v := range sorted {
		rows = append(rows, rowOf(v))
	}
	return rows
}

func rowOf(v domain.Verdict) Row {
	action := elo.Keep
	if !v.Keep {
		action = elo.Remove
	}
	r := Row{
		Name:        v.Entry.RiotID(),
		ID:          v.Entry.LocalID,
		SummonerID:  v.SummonerID,
		PUUID:       v.PUUID,
		Elo:         v.Standing.String(),
		EloDistance: v.EloDistance,
		Action:      action.String(),
		Reason:      string(v.Reason),
		Detail:      v.Detail,
	}
	if s := v.Standing; s != nil {
		r.Queue = string(s.Queue)
		r.LP = strconv.Itoa(s.LeaguePoints)
		r.Wins = strconv.Itoa(s.Wins)
		r.Losses = strconv.Itoa(s.Losses)
		if wr, ok := s.WinRate(); ok {
			r.WinRate = fmt.Sprintf("%.2f%%", wr)
		}
	}
	return r
}
