package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReasonCode string

const (
	ReasonEloDistance  ReasonCode = "elo_distance"
	ReasonUnranked     ReasonCode = "unranked"
	ReasonUnresolved   ReasonCode = "unresolved"
	ReasonNotExamined  ReasonCode = "not_examined"
	ReasonRemoveFailed ReasonCode = "remove_failed"
)

type Verdict struct {
	Entry       BlockedEntry
	Standing    *RankStanding
	PUUID       string
	SummonerID  string
	EloDistance int
	Keep        bool
	Reason      ReasonCode
	Detail      string
}

type RunMode string

const (
	ModeAnalyze RunMode = "analyze"
	ModeClean   RunMode = "clean"
)

type RunState string

const (
	StateIdle           RunState = "idle"
	StateLoading        RunState = "loading"
	StateProcessing     RunState = "processing"
	StateRemoving       RunState = "removing"
	StatePersisting     RunState = "persisting"
	StateDone           RunState = "done"
	StatePartialFailure RunState = "partial_failure"
)

// Terminal reports whether a run in this state has finished.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StatePartialFailure
}

type Failure struct {
	Entry  BlockedEntry
	Reason string
}

type RunSummary struct {
	RunID          uuid.UUID
	Mode           RunMode
	State          RunState
	Threshold      int
	SelfStanding   *RankStanding
	Total          int
	Examined       int
	Candidates     int
	Kept           int
	Removed        int
	FailedToRemove int
	Verdicts       []Verdict
	Failures       []Failure
	KeepSet        []BlockedEntry
	PersistError   string
	StartedAt      time.Time
	FinishedAt     time.Time
}
