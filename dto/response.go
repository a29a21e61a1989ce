package dto

import (
	"errors"

	"github.com/dheryaagarwal/energy-bill-extractor/utils/upiqr"
)

// Custom errors
var (
	ErrFileRequired    = errors.New("file is required")
	ErrNoFilesProvided = errors.New("at least one file is required")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// OCRInfo describes how the bill text was obtained and how much to
// trust it
type OCRInfo struct {
	Method     ExtractionMethod `json:"method"`
	Confidence float64          `json:"confidence"`
	TextScore  float64          `json:"text_score"`
	Issues     []string         `json:"issues,omitempty"`
}

// BillExtractResponse is the result of extracting one bill
type BillExtractResponse struct {
	Filename    string             `json:"filename"`
	Fields      map[string]string  `json:"fields"`
	Sources     map[string]string  `json:"sources"`
	OCR         OCRInfo            `json:"ocr"`
	PaymentQR   *upiqr.PaymentInfo `json:"payment_qr,omitempty"`
	RawText     string             `json:"raw_text,omitempty"`
	ProcessedAt string             `json:"processed_at"`
}

// BatchFailure reports one file that could not be processed
type BatchFailure struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// BatchExtractResponse is the final response for a batch request
type BatchExtractResponse struct {
	Results     []BillExtractResponse `json:"results"`
	Failures    []BatchFailure        `json:"failures,omitempty"`
	ProcessedAt string                `json:"processed_at"`
}

// HistoryResponse lists previously processed bills
type HistoryResponse struct {
	Records []BillRecord `json:"records"`
	Count   int          `json:"count"`
}
