package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dheryaagarwal/energy-bill-extractor/dto"
)

type fakeLister struct {
	records []dto.BillRecord
	err     error
}

func (f *fakeLister) ListAll(ctx context.Context) ([]dto.BillRecord, error) {
	return f.records, f.err
}

func TestExportXLSX(t *testing.T) {
	lister := &fakeLister{records: []dto.BillRecord{
		{
			ID:             "rec-1",
			Filename:       "march.pdf",
			Month:          "MAR-2025",
			UnitsConsumed:  "4018",
			SanctionedLoad: "35.0",
			ContractDemand: "30.0",
			MaxDemand:      "28",
			Method:         dto.MethodTextLayer,
			CreatedAt:      time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:             "rec-2",
			Filename:       "april.png",
			Month:          "APR-2025",
			UnitsConsumed:  "3642",
			SanctionedLoad: "15.0",
			ContractDemand: "12.5",
			MaxDemand:      "11.40",
			Method:         dto.MethodPaddleOCR,
			OcrConfidence:  88.5,
		},
	}}

	data, err := NewExportService(lister).ExportXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		value, err := f.GetCellValue(exportSheet, cell)
		require.NoError(t, err)
		return value
	}

	// Header row: filename, the five fields, then provenance columns
	assert.Equal(t, "Filename", get("A1"))
	assert.Equal(t, "Month", get("B1"))
	assert.Equal(t, "Units Consumed", get("C1"))
	assert.Equal(t, "Sanctioned Load (kW)", get("D1"))
	assert.Equal(t, "Contract Demand (kW)", get("E1"))
	assert.Equal(t, "Maximum Demand (kW)", get("F1"))
	assert.Equal(t, "Method", get("G1"))
	assert.Equal(t, "OCR Confidence", get("H1"))
	assert.Equal(t, "Processed At", get("I1"))

	assert.Equal(t, "march.pdf", get("A2"))
	assert.Equal(t, "MAR-2025", get("B2"))
	assert.Equal(t, "4018", get("C2"))
	assert.Equal(t, "35.0", get("D2"))
	assert.Equal(t, "30.0", get("E2"))
	assert.Equal(t, "28", get("F2"))
	assert.Equal(t, "pdf_text_layer", get("G2"))
	assert.Equal(t, "2025-04-01 09:30:00", get("I2"))

	assert.Equal(t, "april.png", get("A3"))
	assert.Equal(t, "11.40", get("F3"))
	assert.Equal(t, "paddleocr", get("G3"))
	assert.Equal(t, "88.5", get("H3"))
	assert.Equal(t, "", get("I3"))
}

func TestExportXLSXEmptyHistory(t *testing.T) {
	data, err := NewExportService(&fakeLister{}).ExportXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(exportSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Filename", header)

	firstRow, err := f.GetCellValue(exportSheet, "A2")
	require.NoError(t, err)
	assert.Empty(t, firstRow)
}

func TestExportXLSXListError(t *testing.T) {
	_, err := NewExportService(&fakeLister{err: errors.New("db is locked")}).ExportXLSX(context.Background())
	assert.Error(t, err)
}
