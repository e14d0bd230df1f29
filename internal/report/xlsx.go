package report

import (
	"fmt"
	"io"

	"github.com/burns-20/bwrank/internal/domain/progression"
	"github.com/burns-20/bwrank/pkg/metrics"
	excelize "github.com/xuri/excelize/v2"
)

const (
	progressionSheet  = "Progression"
	distributionSheet = "Races"
)

var xlsxHeader = []string{"Nom", "Serveur", "Race", "Position", "Points début", "Points fin", "Progression"}

// WriteXLSX writes rows and their race distribution as a workbook to w.
func WriteXLSX(w io.Writer, start, end string, rows []progression.Row) error {
	xl := excelize.NewFile()
	defer xl.Close()

	if err := xl.SetSheetName("Sheet1", progressionSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := xl.SetCellStr(progressionSheet, "A1", fmt.Sprintf("Progression du %s au %s", start, end)); err != nil {
		return err
	}
	for col, h := range xlsxHeader {
		if err := setCell(xl, progressionSheet, col, 2, h); err != nil {
			return err
		}
	}
	for i, r := range rows {
		line := i + 3
		values := []any{r.Name, r.ServerName, r.Race, r.Position, r.StartScore, r.EndScore, r.Progression}
		for col, v := range values {
			if err := setCell(xl, progressionSheet, col, line, v); err != nil {
				return err
			}
		}
	}
	if err := xl.SetColWidth(progressionSheet, "A", "C", 24); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := xl.AutoFilter(progressionSheet, fmt.Sprintf("A2:G%d", len(rows)+2), nil); err != nil {
		return fmt.Errorf("set auto filter: %w", err)
	}

	if _, err := xl.NewSheet(distributionSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	_ = xl.SetCellStr(distributionSheet, "A1", "Race")
	_ = xl.SetCellStr(distributionSheet, "B1", "Joueurs")
	for i, e := range progression.RaceDistribution(rows).Entries() {
		if err := setCell(xl, distributionSheet, 0, i+2, e.Race); err != nil {
			return err
		}
		if err := setCell(xl, distributionSheet, 1, i+2, e.Count); err != nil {
			return err
		}
	}

	if _, err := xl.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	metrics.RecordReportGenerated("xlsx")
	return nil
}

func setCell(xl *excelize.File, sheet string, col, row int, v any) error {
	index, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return err
	}
	return xl.SetCellValue(sheet, index, v)
}
