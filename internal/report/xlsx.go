package report

import (
	"fmt"
	"io"
	"os"

	"github.com/goserg/blockcleaner/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Blocked"

var header = []any{
	"Name", "ID", "Summoner ID", "PUUID", "Queue", "Elo", "LP",
	"Wins", "Losses", "Winrate", "Elo Distance", "Action", "Reason",
}

// WriteXLSX writes one row per verdict, sorted by rank.
func WriteXLSX(w io.Writer, verdicts []domain.Verdict) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	for i, r := range Rows(verdicts) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		reason := r.Reason
		if r.Detail != "" {
			reason += ": " + r.Detail
		}
		row := []any{
			r.Name, r.ID, r.SummonerID, r.PUUID, r.Queue, r.Elo, r.LP,
			r.Wins, r.Losses, r.WinRate, r.EloDistance, r.Action, reason,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write spreadsheet: %w", err)
	}
	return nil
}

// SaveXLSX writes the spreadsheet to path.
func SaveXLSX(path string, verdicts []domain.Verdict) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := WriteXLSX(f, verdicts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
