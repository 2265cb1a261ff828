package web

import (
	"testing"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/goserg/blockcleaner/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_runRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		req      runRequest
		canClean bool
		wantErrs []error
	}{
		{
			name: "analyze",
			req:  runRequest{Mode: "analyze"},
		},
		{
			name:     "clean",
			req:      runRequest{Mode: "clean", Threshold: 2, Limit: 10},
			canClean: true,
		},
		{
			name:     "clean without remover",
			req:      runRequest{Mode: "clean"},
			wantErrs: []error{ErrCleanUnsupported},
		},
		{
			name:     "unknown mode",
			req:      runRequest{Mode: "purge"},
			canClean: true,
			wantErrs: []error{ErrUnknownMode},
		},
		{
			name:     "everything wrong",
			req:      runRequest{Threshold: -1, Limit: -5},
			wantErrs: []error{ErrUnknownMode, ErrBadThreshold, ErrBadLimit},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(tt.canClean)
			if len(tt.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Len(t, unwrap(err), len(tt.wantErrs))
			for _, want := range tt.wantErrs {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func Test_runRequest_options(t *testing.T) {
	defaults := service.Options{Threshold: 3, Limit: 50}

	got := runRequest{Mode: "clean"}.options(defaults)
	assert.Equal(t, service.Options{Mode: domain.ModeClean, Threshold: 3, Limit: 50}, got)

	got = runRequest{Mode: "analyze", Threshold: 1, Limit: 5}.options(defaults)
	assert.Equal(t, service.Options{Mode: domain.ModeAnalyze, Threshold: 1, Limit: 5}, got)
}
