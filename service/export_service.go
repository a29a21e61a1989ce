package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dheryaagarwal/energy-bill-extractor/dto"
	"github.com/dheryaagarwal/energy-bill-extractor/utils/energybill"
)

// HistoryLister supplies the records an export covers.
type HistoryLister interface {
	ListAll(ctx context.Context) ([]dto.BillRecord, error)
}

type ExportService struct {
	history HistoryLister
}

func NewExportService(history HistoryLister) *ExportService {
	return &ExportService{history: history}
}

const exportSheet = "Bills"

// ExportXLSX renders the full extraction history as an XLSX workbook.
func (s *ExportService) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	records, err := s.history.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load bill history: %w", err)
	}

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(exportSheet); index == -1 {
		if _, err := f.NewSheet(exportSheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(exportSheet)
	f.SetActiveSheet(activeIndex)

	headers := append([]string{"Filename"}, energybill.Keys()...)
	headers = append(headers, "Method", "OCR Confidence", "Processed At")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}

	row := 2
	for _, r := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}

		write(1, r.Filename)
		write(2, r.Month)
		write(3, r.UnitsConsumed)
		write(4, r.SanctionedLoad)
		write(5, r.ContractDemand)
		write(6, r.MaxDemand)
		write(7, string(r.Method))
		write(8, r.OcrConfidence)
		if !r.CreatedAt.IsZero() {
			write(9, r.CreatedAt.Format("2006-01-02 15:04:05"))
		} else {
			write(9, "")
		}

		row++
	}

	// Widen the value-bearing columns
	_ = f.SetColWidth(exportSheet, "A", "A", 32)
	_ = f.SetColWidth(exportSheet, "B", "F", 18)
	_ = f.SetColWidth(exportSheet, "G", "I", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	log.Printf("exported %d bill records in %dms", len(records), time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
