// Package reports renders branch evaluation statistics for download. The
// dashboard offers the same table as CSV, XLSX and PDF.
package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"upr360/internal/domain/evaluation"
)

var columns = []string{"Branch", "Total", "Evaluated", "A", "B", "C", "Progress %"}

func statsRow(name string, stats evaluation.Stats) []string {
	return []string{
		name,
		strconv.Itoa(stats.Total),
		strconv.Itoa(stats.Evaluated),
		strconv.Itoa(stats.RatingA),
		strconv.Itoa(stats.RatingB),
		strconv.Itoa(stats.RatingC),
		strconv.Itoa(evaluation.Percent(stats.Evaluated, stats.Total)),
	}
}

func overall(branches []evaluation.BranchStats) evaluation.Stats {
	var sum evaluation.Stats
	for _, b := range branches {
		sum.Total += b.Total
		sum.Evaluated += b.Evaluated
		sum.RatingA += b.RatingA
		sum.RatingB += b.RatingB
		sum.RatingC += b.RatingC
	}
	return sum
}

func BranchStatsCSV(w io.Writer, branches []evaluation.BranchStats) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, b := range branches {
		if err := writer.Write(statsRow(b.BranchName, b.Stats)); err != nil {
			return err
		}
	}
	if err := writer.Write(statsRow("Overall", overall(branches))); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func BranchStatsXLSX(w io.Writer, branches []evaluation.BranchStats) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Branch stats"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	writeRow := func(rowIdx int, name string, stats evaluation.Stats) error {
		values := []any{
			name, stats.Total, stats.Evaluated, stats.RatingA, stats.RatingB, stats.RatingC,
			evaluation.Percent(stats.Evaluated, stats.Total),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
		return nil
	}

	row := 2
	for _, b := range branches {
		if err := writeRow(row, b.BranchName, b.Stats); err != nil {
			return err
		}
		row++
	}
	if err := writeRow(row, "Overall", overall(branches)); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func BranchStatsPDF(w io.Writer, branches []evaluation.BranchStats) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Branch evaluation report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	widths := []float64{60, 20, 25, 15, 15, 15, 25}
	for i, header := range columns {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	writeRow := func(name string, stats evaluation.Stats) {
		row := statsRow(name, stats)
		for i, value := range row {
			pdf.CellFormat(widths[i], 7, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	for _, b := range branches {
		writeRow(b.BranchName, b.Stats)
	}
	pdf.SetFont("Helvetica", "B", 10)
	writeRow("Overall", overall(branches))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
