package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/epanner/shipfast-hack-25/internal/models"
)

const sheet = "Call History"

var headers = []string{
	"Call ID", "Phone Number", "Caller", "Location", "Language",
	"Emergency Type", "Priority", "Duration (s)", "Dispatched Services",
	"Summary", "Started At", "Ended At",
}

// WriteCallHistory renders finished calls as an xlsx workbook for shift
// reports.
func WriteCallHistory(w io.Writer, records []models.CallRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, rec := range records {
		row := []any{
			rec.ID, rec.PhoneNumber, rec.CallerName, rec.Location, rec.Language,
			rec.EmergencyType, string(rec.Priority), rec.DurationSeconds,
			strings.Join(rec.DispatchedServices, ", "),
			rec.Summary,
			rec.StartedAt.Format("2006-01-02 15:04:05"),
			rec.EndedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}
		}
	}

	return f.Write(w)
}
