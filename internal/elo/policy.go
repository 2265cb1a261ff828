package elo

import (
	"slices"

	"github.com/goserg/blockcleaner/internal/domain"
)

const divisionsPerTier = 4

type Action int

const (
	Keep Action = iota
	Remove
)

func (a Action) String() string {
	if a == Remove {
		return "remove"
	}
	return "keep"
}

// Ordinal maps a standing to tier*4 + division. Apex tiers use division 0.
// Unranked has no ordinal and reports false.
func Ordinal(s *domain.RankStanding) (int, bool) {
	if s == nil {
		return 0, false
	}
	division := 0
	if s.Tier.HasDivisions() && s.Division != domain.DivisionNone {
		division = int(s.Division)
	}
	return int(s.Tier)*divisionsPerTier + division, true
}

// Compare orders standings by tier then division. Unranked is lowest.
func Compare(a, b *domain.RankStanding) int {
	oa, okA := Ordinal(a)
	ob, okB := Ordinal(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	case oa < ob:
		return -1
	case oa > ob:
		return 1
	}
	return 0
}

// Distance is the whole-tier gap between two standings.
// It is 0 when either side is unranked.
func Distance(player, self *domain.RankStanding) int {
	op, okP := Ordinal(player)
	os, okS := Ordinal(self)
	if !okP || !okS {
		return 0
	}
	diff := op - os
	if diff < 0 {
		diff = -diff
	}
	return diff / divisionsPerTier
}

// Decide removes a ranked player whose distance reaches the threshold.
func Decide(player *domain.RankStanding, distance, threshold int) Action {
	if player == nil {
		return Keep
	}
	if distance >= threshold {
		return Remove
	}
	return Keep
}

// Sort orders verdicts from the highest rank down, unranked last.
func Sort(verdicts []domain.Verdict) {
	slices.SortStableFunc(verdicts, func(a, b domain.Verdict) int {
		return Compare(b.Standing, a.Standing)
	})
}
