package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type ExcelExporter interface {
	GetCellValues() []interface{}
}

var payoutReportHeadings = []string{
	"Request Id", "Pilot", "Ship", "Killmail Id", "Status", "Payout (ISK)", "Processed By", "Processed At",
}

// WritePayoutReportExcel renders a payout summary as an xlsx workbook.
func WritePayoutReportExcel(w io.Writer, summary *SRPPayoutSummary) error {
	exporters := make([]ExcelExporter, 0, len(summary.Rows))
	for _, row := range summary.Rows {
		exporters = append(exporters, row)
	}
	return writeExcel(w, exporters, payoutReportHeadings...)
}

func writeExcel(w io.Writer, data []ExcelExporter, headings ...string) error {
	f := excelize.NewFile()
	sheetName := "Sheet1"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	rowNo := 2
	for _, d := range data {
		for i, value := range d.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(i+1, rowNo)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
		rowNo++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
