package web

import (
	"errors"
	"time"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/report"
	"github.com/goserg/blockcleaner/internal/service"
	"github.com/goserg/blockcleaner/internal/worker"
)

type runRequest struct {
	Mode      string `json:"mode" form:"mode"`
	Threshold int    `json:"threshold" form:"threshold"`
	Limit     int    `json:"limit" form:"limit"`
}

var (
	ErrUnknownMode      = errors.New("mode must be analyze or clean")
	ErrBadThreshold     = errors.New("threshold must be positive, or 0 for the default")
	ErrBadLimit         = errors.New("limit must not be negative")
	ErrCleanUnsupported = errors.New("clean is not available with this client")
)

func (r runRequest) Validate(canClean bool) error {
	var err error
	switch domain.RunMode(r.Mode) {
	case domain.ModeAnalyze:
	case domain.ModeClean:
		if !canClean {
			err = errors.Join(err, ErrCleanUnsupported)
		}
	default:
		err = errors.Join(err, ErrUnknownMode)
	}
	if r.Threshold < 0 {
		err = errors.Join(err, ErrBadThreshold)
	}
	if r.Limit < 0 {
		err = errors.Join(err, ErrBadLimit)
	}
	return err
}

// options fills unset fields from the configured defaults.
func (r runRequest) options(defaults service.Options) service.Options {
	opts := defaults
	opts.Mode = domain.RunMode(r.Mode)
	if r.Threshold > 0 {
		opts.Threshold = r.Threshold
	}
	if r.Limit > 0 {
		opts.Limit = r.Limit
	}
	return opts
}

type runResponse struct {
	RunID     string          `json:"runId"`
	Mode      string          `json:"mode"`
	Running   bool            `json:"running"`
	State     string          `json:"state"`
	Done      int             `json:"done"`
	Total     int             `json:"total"`
	Lines     []string        `json:"lines"`
	Error     string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"startedAt"`
	Summary   *report.Summary `json:"summary,omitempty"`
}

func newRunResponse(st worker.Status) runResponse {
	resp := runResponse{
		RunID:     st.RunID.String(),
		Mode:      string(st.Mode),
		Running:   st.Running,
		State:     string(st.State),
		Done:      st.Done,
		Total:     st.Total,
		Lines:     st.Lines,
		Error:     st.Err,
		StartedAt: st.StartedAt,
	}
	if resp.Lines == nil {
		resp.Lines = []string{}
	}
	if st.Summary != nil && !st.Running {
		s := report.NewSummary(*st.Summary)
		resp.Summary = &s
	}
	return resp
}

type statusResponse struct {
	Connected bool         `json:"connected"`
	Mode      string       `json:"mode"`
	CanClean  bool         `json:"canClean"`
	Threshold int          `json:"threshold"`
	Run       *runResponse `json:"run,omitempty"`
}

type errorResponse struct {
	Errors []string `json:"errors"`
}
