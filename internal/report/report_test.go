package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

func sampleSummary() domain.RunSummary {
	gold := domain.NewStanding(domain.TierGold, domain.DivisionII)
	gold.Wins, gold.Losses, gold.LeaguePoints = 3, 1, 50
	iron := domain.NewStanding(domain.TierIron, domain.DivisionIV)
	return domain.RunSummary{
		RunID:        uuid.MustParse("5f0c7a3e-2b1d-4c6e-9a8f-0123456789ab"),
		Mode:         domain.ModeClean,
		State:        domain.StateDone,
		Threshold:    3,
		SelfStanding: domain.NewStanding(domain.TierPlatinum, domain.DivisionI),
		Total:        3,
		Examined:     3,
		Candidates:   1,
		Kept:         2,
		Removed:      1,
		Verdicts: []domain.Verdict{
			{Entry: domain.BlockedEntry{LocalID: "x", DisplayName: "Ghost", TagLine: "BR1"}, Keep: true, Reason: domain.ReasonUnresolved},
			{Entry: domain.BlockedEntry{LocalID: "i", DisplayName: "Iron", TagLine: "BR1"}, Standing: iron, EloDistance: 4, Reason: domain.ReasonEloDistance},
			{Entry: domain.BlockedEntry{LocalID: "g", DisplayName: "Gold", TagLine: "BR1"}, Standing: gold, EloDistance: 1, Keep: true, Reason: domain.ReasonEloDistance},
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows(sampleSummary().Verdicts)
	require.Len(t, rows, 3)
	assert.Equal(t, "Gold#BR1", rows[0].Name)
	assert.Equal(t, "75.00%", rows[0].WinRate)
	assert.Equal(t, "keep", rows[0].Action)
	assert.Equal(t, "Iron#BR1", rows[1].Name)
	assert.Equal(t, "remove", rows[1].Action)
	assert.Equal(t, "", rows[1].WinRate)
	assert.Equal(t, "UNRANKED", rows[2].Elo)
}

func TestWrite_Formats(t *testing.T) {
	sum := sampleSummary()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sum, FormatJSON))
	var fromJSON Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, 1, fromJSON.Removed)
	assert.Equal(t, "PLATINUM I", fromJSON.Self)

	buf.Reset()
	require.NoError(t, Write(&buf, sum, FormatYAML))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "clean", fromYAML["mode"])
	assert.Equal(t, 2, fromYAML["kept"])

	buf.Reset()
	require.NoError(t, Write(&buf, sum, FormatTable))
	out := buf.String()
	assert.Contains(t, out, "Own rank")
	assert.Contains(t, out, "PLATINUM I")
	assert.True(t, strings.Index(out, "Gold#BR1") < strings.Index(out, "Iron#BR1"))

	assert.Error(t, Write(&buf, sum, "xml"))
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, SaveXLSX(path, sampleSummary().Verdicts))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Gold#BR1", rows[1][0])
	assert.Equal(t, "GOLD II", rows[1][5])
	assert.Equal(t, "remove", rows[2][11])
}
