// Package export renders extraction results into downloadable formats.
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fieldlens/fieldlens/internal/extraction"
	"github.com/fieldlens/fieldlens/internal/session"
)

// Service produces export payloads from a session's extraction history.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ResultJSON serializes the session's latest result in its wire shape,
// preserving schema field order.
func (s *Service) ResultJSON(sess *session.Session) ([]byte, error) {
	latest := sess.Latest()
	if latest == nil {
		return nil, fmt.Errorf("session %s has no extraction results", sess.ID)
	}
	return latest.Export()
}

// SessionXLSX returns an XLSX workbook for the session: one Fields sheet with
// the latest round's values and one History sheet with every round.
func (s *Service) SessionXLSX(sess *session.Session) ([]byte, error) {
	start := time.Now()

	latest := sess.Latest()
	if latest == nil {
		return nil, fmt.Errorf("session %s has no extraction results", sess.ID)
	}

	f := excelize.NewFile()
	const fieldsSheet = "Fields"
	const historySheet = "History"

	if err := f.SetSheetName("Sheet1", fieldsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, err
	}
	if index, err := f.GetSheetIndex(fieldsSheet); err == nil {
		f.SetActiveSheet(index)
	}

	if err := writeFieldsSheet(f, fieldsSheet, latest); err != nil {
		return nil, err
	}
	if err := writeHistorySheet(f, historySheet, sess.History); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(fieldsSheet, "A", "A", 24) // field
	_ = f.SetColWidth(fieldsSheet, "B", "B", 40) // value
	_ = f.SetColWidth(fieldsSheet, "C", "C", 12) // confidence
	_ = f.SetColWidth(fieldsSheet, "D", "D", 60) // rationale
	_ = f.SetColWidth(historySheet, "A", "B", 12)
	_ = f.SetColWidth(historySheet, "C", "C", 24)
	_ = f.SetColWidth(historySheet, "D", "D", 40)
	_ = f.SetColWidth(historySheet, "E", "E", 12)
	_ = f.SetColWidth(historySheet, "F", "F", 40) // feedback

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"session_id", sess.ID,
		"rounds", sess.Rounds(),
		"fields", len(latest.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeFieldsSheet(f *excelize.File, sheet string, res *extraction.Result) error {
	headers := []string{"Field", "Value", "Confidence", "Rationale"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, fv := range res.Fields {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, fv.Name)
		write(2, cellValue(fv.Value))
		write(3, fv.Confidence)
		write(4, fv.Rationale)
		row++
	}
	return nil
}

func writeHistorySheet(f *excelize.File, sheet string, history []*extraction.Result) error {
	headers := []string{"Round", "Valid", "Field", "Value", "Confidence", "Feedback"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, res := range history {
		for _, fv := range res.Fields {
			write := func(col int, v any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, v)
			}
			write(1, res.Round)
			write(2, res.Valid)
			write(3, fv.Name)
			write(4, cellValue(fv.Value))
			write(5, fv.Confidence)
			write(6, res.Feedback)
			row++
		}
	}
	return nil
}

// cellValue flattens an extracted value into something a spreadsheet cell can
// hold. Scalars pass through; arrays and objects become compact JSON.
func cellValue(v any) any {
	switch v.(type) {
	case nil:
		return ""
	case string, bool, float64, float32, int, int32, int64, json.Number:
		return v
	default:
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(body)
	}
}
