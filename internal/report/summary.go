package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/goserg/blockcleaner/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Summary is the printable form of a run.
type Summary struct {
	RunID          string    `json:"runId" yaml:"runId"`
	Mode           string    `json:"mode" yaml:"mode"`
	State          string    `json:"state" yaml:"state"`
	Threshold      int       `json:"threshold" yaml:"threshold"`
	Self           string    `json:"self" yaml:"self"`
	Total          int       `json:"total" yaml:"total"`
	Examined       int       `json:"examined" yaml:"examined"`
	Candidates     int       `json:"candidates" yaml:"candidates"`
	Kept           int       `json:"kept" yaml:"kept"`
	Removed        int       `json:"removed" yaml:"removed"`
	FailedToRemove int       `json:"failedToRemove" yaml:"failedToRemove"`
	PersistError   string    `json:"persistError,omitempty" yaml:"persistError,omitempty"`
	StartedAt      time.Time `json:"startedAt" yaml:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt" yaml:"finishedAt"`
	Players        []Row     `json:"players,omitempty" yaml:"players,omitempty"`
}

func NewSummary(sum domain.RunSummary) Summary {
	return Summary{
		RunID:          sum.RunID.String(),
		Mode:           string(sum.Mode),
		State:          string(sum.State),
		Threshold:      sum.Threshold,
		Self:           sum.SelfStanding.String(),
		Total:          sum.Total,
		Examined:       sum.Examined,
		Candidates:     sum.Candidates,
		Kept:           sum.Kept,
		Removed:        sum.Removed,
		FailedToRemove: sum.FailedToRemove,
		PersistError:   sum.PersistError,
		StartedAt:      sum.StartedAt,
		FinishedAt:     sum.FinishedAt,
		Players:        Rows(sum.Verdicts),
	}
}

// Write renders sum in format: table, json or yaml.
func Write(w io.Writer, sum domain.RunSummary, format string) error {
	s := NewSummary(sum)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return writeTable(w, s)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeTable(w io.Writer, s Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "Mode\t%s\n", s.Mode)
	fmt.Fprintf(tw, "State\t%s\n", s.State)
	fmt.Fprintf(tw, "Own rank\t%s\n", s.Self)
	fmt.Fprintf(tw, "Threshold\t%d\n", s.Threshold)
	fmt.Fprintf(tw, "Blocked\t%d\n", s.Total)
	fmt.Fprintf(tw, "Examined\t%d\n", s.Examined)
	fmt.Fprintf(tw, "Distance >= threshold\t%d\n", s.Candidates)
	fmt.Fprintf(tw, "Removed\t%d\n", s.Removed)
	fmt.Fprintf(tw, "Failed to remove\t%d\n", s.FailedToRemove)
	fmt.Fprintf(tw, "Kept\t%d\n", s.Kept)
	if s.PersistError != "" {
		fmt.Fprintf(tw, "Persist error\t%s\n", s.PersistError)
	}
	if len(s.Players) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "PLAYER\tELO\tDIST\tACTION\tREASON")
		for _, r := range s.Players {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", r.Name, r.Elo, r.EloDistance, r.Action, r.Reason)
		}
	}
	return tw.Flush()
}
