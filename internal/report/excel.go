// Package report renders reservation listings as Excel workbooks, one sheet
// per space, for the monthly administration export.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"clubspace/internal/model"
	"clubspace/internal/pricing"
	"clubspace/internal/timeutil"
)

var headerColumns = []string{
	"Ref", "Kind", "Date", "Start", "End", "Member", "Phone", "Price", "Status",
}

// Writer builds an xlsx workbook sheet by sheet.
type Writer struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewWriter creates an empty workbook.
func NewWriter() *Writer {
	return &Writer{file: excelize.NewFile()}
}

// AddSheet starts a sheet named after a space. The first sheet replaces the
// workbook's default one.
func (w *Writer) AddSheet(name string) error {
	// Excel caps sheet names at 31 chars.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return w.writeHeader()
}

func (w *Writer) writeHeader() error {
	for i, col := range headerColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, col); err != nil {
			return err
		}
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(headerColumns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

// WriteReservation appends one reservation row to the current sheet.
func (w *Writer) WriteReservation(r *model.Reservation) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	values := []interface{}{
		r.Ref,
		r.Kind,
		timeutil.FormatDate(r.Date),
		timeutil.TimeOfDay(r.StartMinute).String(),
		timeutil.TimeOfDay(r.EndMinute).String(),
		r.MemberName,
		r.MemberPhone,
		pricing.Money(r.PriceCents).String(),
		r.Status,
	}
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

// Save writes the workbook to wr.
func (w *Writer) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases workbook resources.
func (w *Writer) Close() error {
	return w.file.Close()
}

// Build renders reservations grouped per space into a workbook. Spaces
// without reservations still get a sheet with just the header, so the
// export always lists every known space.
func Build(spaces []model.Space, reservations []model.Reservation) (*Writer, error) {
	bySpace := make(map[int64][]model.Reservation, len(spaces))
	for _, r := range reservations {
		bySpace[r.SpaceID] = append(bySpace[r.SpaceID], r)
	}

	w := NewWriter()
	for _, sp := range spaces {
		if err := w.AddSheet(sp.Name); err != nil {
			w.Close()
			return nil, err
		}
		for i := range bySpace[sp.ID] {
			if err := w.WriteReservation(&bySpace[sp.ID][i]); err != nil {
				w.Close()
				return nil, err
			}
		}
	}
	return w, nil
}
