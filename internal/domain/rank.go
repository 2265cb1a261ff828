package domain

import (
	"fmt"
	"strings"
)

type Queue string

const (
	QueueRankedSolo Queue = "RANKED_SOLO_5x5"
	QueueOther      Queue = "OTHER"
)

type Tier int

const (
	TierIron Tier = iota
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
	TierEmerald
	TierDiamond
	TierMaster
	TierGrandmaster
	TierChallenger
)

var tierNames = [...]string{
	"IRON", "BRONZE", "SILVER", "GOLD", "PLATINUM",
	"EMERALD", "DIAMOND", "MASTER", "GRANDMASTER", "CHALLENGER",
}

// Tiers lists every tier from lowest to highest.
func Tiers() []Tier {
	tiers := make([]Tier, len(tierNames))
	for i := range tierNames {
		tiers[i] = Tier(i)
	}
	return tiers
}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "UNKNOWN"
	}
	return tierNames[t]
}

// HasDivisions reports whether the tier is split into IV..I.
func (t Tier) HasDivisions() bool {
	return t < TierMaster
}

func ParseTier(s string) (Tier, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range tierNames {
		if name == s {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

// Division is IV (lowest) to I (highest). DivisionNone is used by apex tiers.
type Division int

const (
	DivisionNone Division = iota - 1
	DivisionIV
	DivisionIII
	DivisionII
	DivisionI
)

var divisionNames = [...]string{"IV", "III", "II", "I"}

// Divisions lists IV..I.
func Divisions() []Division {
	return []Division{DivisionIV, DivisionIII, DivisionII, DivisionI}
}

func (d Division) String() string {
	if d < 0 || int(d) >= len(divisionNames) {
		return ""
	}
	return divisionNames[d]
}

func ParseDivision(s string) (Division, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "NA" {
		return DivisionNone, nil
	}
	for i, name := range divisionNames {
		if name == s {
			return Division(i), nil
		}
	}
	return DivisionNone, fmt.Errorf("unknown division %q", s)
}

// RankStanding is a ranked queue entry. A nil *RankStanding means unranked.
type RankStanding struct {
	Queue        Queue
	Tier         Tier
	Division     Division
	LeaguePoints int
	Wins         int
	Losses       int
}

// NewStanding builds a solo queue standing, dropping the division for apex tiers.
func NewStanding(tier Tier, division Division) *RankStanding {
	if !tier.HasDivisions() {
		division = DivisionNone
	}
	return &RankStanding{
		Queue:    QueueRankedSolo,
		Tier:     tier,
		Division: division,
	}
}

func (s *RankStanding) String() string {
	if s == nil {
		return "UNRANKED"
	}
	if !s.Tier.HasDivisions() || s.Division == DivisionNone {
		return s.Tier.String()
	}
	return s.Tier.String() + " " + s.Division.String()
}

// WinRate returns the win percentage and false when no games were played.
func (s *RankStanding) WinRate() (float64, bool) {
	if s == nil || s.Wins+s.Losses == 0 {
		return 0, false
	}
	return float64(s.Wins) / float64(s.Wins+s.Losses) * 100, true
}

// ParseStanding parses "GOLD II", "MASTER" or "UNRANKED". Unranked yields nil.
func ParseStanding(s string) (*RankStanding, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || strings.EqualFold(fields[0], "UNRANKED") {
		return nil, nil
	}
	if len(fields) > 2 {
		return nil, fmt.Errorf("invalid rank %q", s)
	}
	tier, err := ParseTier(fields[0])
	if err != nil {
		return nil, err
	}
	division := DivisionNone
	if len(fields) == 2 {
		division, err = ParseDivision(fields[1])
		if err != nil {
			return nil, err
		}
	}
	if tier.HasDivisions() && division == DivisionNone {
		return nil, fmt.Errorf("rank %q needs a division", s)
	}
	return NewStanding(tier, division), nil
}

// StandingFromLadder converts a ladder entry. An empty, NONE or UNRANKED tier
// yields nil. A divisioned tier without a division is read as I.
func StandingFromLadder(queue, tier, division string, lp, wins, losses int) (*RankStanding, error) {
	switch strings.ToUpper(strings.TrimSpace(tier)) {
	case "", "NONE", "UNRANKED":
		return nil, nil
	}
	t, err := ParseTier(tier)
	if err != nil {
		return nil, err
	}
	d, err := ParseDivision(division)
	if err != nil {
		return nil, err
	}
	if t.HasDivisions() && d == DivisionNone {
		d = DivisionI
	}
	s := NewStanding(t, d)
	if queue != string(QueueRankedSolo) {
		s.Queue = QueueOther
	}
	s.LeaguePoints = max(lp, 0)
	s.Wins = max(wins, 0)
	s.Losses = max(losses, 0)
	return s, nil
}
