package dto

import "time"

type ExtractionMethod string

const (
	MethodTextLayer ExtractionMethod = "pdf_text_layer"
	MethodPaddleOCR ExtractionMethod = "paddleocr"
	MethodTesseract ExtractionMethod = "tesseract"
	MethodNone      ExtractionMethod = "none"
)

// BillRecord is one processed bill as stored in extraction history.
type BillRecord struct {
	ID             string           `json:"id"`
	Filename       string           `json:"filename"`
	Month          string           `json:"month"`
	UnitsConsumed  string           `json:"units_consumed"`
	SanctionedLoad string           `json:"sanctioned_load_kw"`
	ContractDemand string           `json:"contract_demand_kw"`
	MaxDemand      string           `json:"maximum_demand_kw"`
	Method         ExtractionMethod `json:"method"`
	OcrConfidence  float64          `json:"ocr_confidence"`
	CreatedAt      time.Time        `json:"created_at"`
}
