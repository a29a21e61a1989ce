package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/sync/errgroup"

	"github.com/dheryaagarwal/energy-bill-extractor/dto"
	"github.com/dheryaagarwal/energy-bill-extractor/repository"
	"github.com/dheryaagarwal/energy-bill-extractor/utils/energybill"
	"github.com/dheryaagarwal/energy-bill-extractor/utils/upiqr"
)

// PaddleOCR recognizes text on an image via the PaddleOCR service.
type PaddleOCR interface {
	ExtractTextAndConfidence(imageBytes []byte) (string, float64, error)
}

// TesseractOCR recognizes text on an image with a local Tesseract install.
type TesseractOCR interface {
	ExtractTextAndQualityFromBytes(imageBytes []byte, ext string) (string, float64, error)
}

// Text below this score is treated as unusable and sent through OCR
const textQualityThreshold = 50.0

// Cap on bills OCRed at once in a batch
const maxBatchWorkers = 4

type BillService struct {
	tesseract TesseractOCR
	paddle    PaddleOCR
	pdf       PDFProcessor
	extractor *energybill.Extractor
	history   *repository.BillHistory
}

// NewBillService wires the extraction pipeline. paddle and history may be
// nil; the service then skips those stages.
func NewBillService(tesseract TesseractOCR, paddle PaddleOCR, pdf PDFProcessor, extractor *energybill.Extractor, history *repository.BillHistory) *BillService {
	if extractor == nil {
		extractor = energybill.New()
	}
	return &BillService{
		tesseract: tesseract,
		paddle:    paddle,
		pdf:       pdf,
		extractor: extractor,
		history:   history,
	}
}

// ExtractFromUpload processes one uploaded bill end to end.
func (s *BillService) ExtractFromUpload(ctx context.Context, fileHeader *multipart.FileHeader, password string, includeRawText bool) (*dto.BillExtractResponse, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return s.ExtractFromBytes(ctx, fileHeader.Filename, data, password, includeRawText), nil
}

// ExtractFromBytes recovers the billing fields from raw file bytes.
// Extraction never fails: an unreadable document comes back with every
// field set to the NotFound sentinel rather than an error.
func (s *BillService) ExtractFromBytes(ctx context.Context, filename string, data []byte, password string, includeRawText bool) *dto.BillExtractResponse {
	var (
		text       string
		method     dto.ExtractionMethod
		confidence float64
		payment    *upiqr.PaymentInfo
	)

	if isPDF(filename) {
		text, method, confidence, payment = s.processPDF(data, password)
	} else {
		text, method, confidence, payment = s.processImage(data, filename)
	}

	result := s.extractor.ExtractDetailed(text)

	// Values read off the KW/KVA column order carry no label evidence,
	// so they are flagged rather than silently trusted
	for _, key := range result.Positional() {
		log.Printf("WARN: %s: %q taken from KW/KVA pair order in %s", filename, result.Fields[key], key)
	}

	response := &dto.BillExtractResponse{
		Filename: filename,
		Fields:   result.Fields,
		Sources:  sourceStrings(result.Sources),
		OCR: dto.OCRInfo{
			Method:     method,
			Confidence: confidence,
			TextScore:  evaluateTextQuality(text),
			Issues:     qualityIssues(text, method, confidence),
		},
		PaymentQR:   payment,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}
	if includeRawText {
		response.RawText = text
	}

	if s.history != nil {
		record := buildRecord(filename, result, method, confidence)
		if err := s.history.Save(ctx, record); err != nil {
			// History is best effort; the extraction itself succeeded
			log.Printf("WARN: failed to save history for %s: %v", filename, err)
		}
	}

	return response
}

// ExtractBatch processes several uploaded bills concurrently. Files that
// cannot be read are reported in Failures without aborting the rest.
func (s *BillService) ExtractBatch(ctx context.Context, files []*multipart.FileHeader, password string) *dto.BatchExtractResponse {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBatchWorkers)

	var mu sync.Mutex
	var results []dto.BillExtractResponse
	var failures []dto.BatchFailure

	for _, fileHeader := range files {
		g.Go(func() error {
			response, err := s.ExtractFromUpload(ctx, fileHeader, password, false)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, dto.BatchFailure{
					Filename: fileHeader.Filename,
					Error:    err.Error(),
				})
				return nil
			}
			results = append(results, *response)
			return nil
		})
	}
	_ = g.Wait()

	// Completion order depends on scheduling; present files in name order
	sort.Slice(results, func(i, j int) bool { return results[i].Filename < results[j].Filename })
	sort.Slice(failures, func(i, j int) bool { return failures[i].Filename < failures[j].Filename })

	return &dto.BatchExtractResponse{
		Results:     results,
		Failures:    failures,
		ProcessedAt: time.Now().Format(time.RFC3339),
	}
}

// History returns the most recent extraction records.
func (s *BillService) History(ctx context.Context, limit int) ([]dto.BillRecord, error) {
	if s.history == nil {
		return nil, fmt.Errorf("extraction history is not configured")
	}
	return s.history.ListRecent(ctx, limit)
}

// HistoryRecord returns one stored extraction by id.
func (s *BillService) HistoryRecord(ctx context.Context, id string) (*dto.BillRecord, error) {
	if s.history == nil {
		return nil, fmt.Errorf("extraction history is not configured")
	}
	return s.history.GetByID(ctx, id)
}

// ---------------- PDF pipeline ----------------

func (s *BillService) processPDF(data []byte, password string) (string, dto.ExtractionMethod, float64, *upiqr.PaymentInfo) {
	// 1. Digital text layer first
	text, err := s.pdf.ExtractText(data, password)
	if err != nil {
		log.Printf("WARN: PDF text layer extraction failed: %v", err)
		text = ""
	}

	// 2. Page images serve two purposes: the payment QR lives on them
	// even in digital bills, and scanned bills have no other text source
	images, err := s.pdf.ExtractImages(data, password)
	if err != nil {
		log.Printf("WARN: PDF image extraction failed: %v", err)
	}
	payment := s.scanPaymentQR(images)

	if evaluateTextQuality(text) >= textQualityThreshold {
		return text, dto.MethodTextLayer, 0, payment
	}

	// 3. Weak or empty text layer, OCR the page images
	ocrText, ocrMethod, ocrConfidence := s.ocrImages(images)

	// Keep whichever text scores better
	if evaluateTextQuality(ocrText) > evaluateTextQuality(text) {
		return ocrText, ocrMethod, ocrConfidence, payment
	}
	if strings.TrimSpace(text) == "" {
		return "", dto.MethodNone, 0, payment
	}
	return text, dto.MethodTextLayer, 0, payment
}

func (s *BillService) processImage(data []byte, filename string) (string, dto.ExtractionMethod, float64, *upiqr.PaymentInfo) {
	var payment *upiqr.PaymentInfo
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		payment = s.scanPaymentQR([]image.Image{img})
	} else {
		log.Printf("WARN: could not decode %s for QR scan: %v", filename, err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	text, method, confidence := s.ocrImageBytes(data, ext)
	return text, method, confidence, payment
}

// ---------------- OCR ladder ----------------

// ocrImages OCRs each extracted page image and joins the results.
func (s *BillService) ocrImages(images []image.Image) (string, dto.ExtractionMethod, float64) {
	var combined strings.Builder
	var totalConf float64
	var pages int
	method := dto.MethodNone

	for i, img := range images {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			log.Printf("WARN: failed to encode page image %d: %v", i+1, err)
			continue
		}

		pageText, pageMethod, pageConf := s.ocrImageBytes(buf.Bytes(), ".png")
		if strings.TrimSpace(pageText) == "" {
			continue
		}

		combined.WriteString(pageText)
		combined.WriteString("\n")
		totalConf += pageConf
		pages++
		if method == dto.MethodNone {
			method = pageMethod
		}
	}

	if pages == 0 {
		return "", dto.MethodNone, 0
	}
	return combined.String(), method, totalConf / float64(pages)
}

// ocrImageBytes tries PaddleOCR first and falls back to Tesseract.
func (s *BillService) ocrImageBytes(imageBytes []byte, ext string) (string, dto.ExtractionMethod, float64) {
	if s.paddle != nil {
		text, confidence, err := s.paddle.ExtractTextAndConfidence(imageBytes)
		if err == nil && strings.TrimSpace(text) != "" {
			return text, dto.MethodPaddleOCR, confidence
		}
		if err != nil {
			log.Printf("WARN: PaddleOCR failed, falling back to Tesseract: %v", err)
		}
	}

	if s.tesseract != nil {
		text, confidence, err := s.tesseract.ExtractTextAndQualityFromBytes(imageBytes, ext)
		if err != nil {
			log.Printf("WARN: Tesseract OCR failed: %v", err)
			return "", dto.MethodNone, 0
		}
		return text, dto.MethodTesseract, confidence
	}

	return "", dto.MethodNone, 0
}

// ---------------- payment QR ----------------

// scanPaymentQR looks for a UPI payment QR on the given page images and
// returns the first one that parses.
func (s *BillService) scanPaymentQR(images []image.Image) *upiqr.PaymentInfo {
	for _, img := range images {
		raw, err := decodeQR(img)
		if err != nil || raw == "" {
			continue
		}
		if info, ok := upiqr.Parse(raw); ok {
			return &info
		}
	}
	return nil
}

func decodeQR(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", err
	}

	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", err
	}

	return result.GetText(), nil
}

// ---------------- scoring and helpers ----------------

// evaluateTextQuality scores extracted text by length and by how much
// billing vocabulary it contains.
func evaluateTextQuality(text string) float64 {
	score := 0.0

	if len(text) > 500 {
		score += 40
	} else if len(text) > 100 {
		score += 20
	} else if len(text) > 20 {
		score += 10
	}

	keywords := []string{"units", "kwh", "demand", "bill", "consumer", "tariff", "month", "meter", "kva"}
	lower := strings.ToLower(text)
	matched := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matched++
		}
	}
	score += float64(matched) * 6.67

	if score > 100 {
		score = 100
	}
	return score
}

func qualityIssues(text string, method dto.ExtractionMethod, confidence float64) []string {
	var issues []string
	if strings.TrimSpace(text) == "" {
		issues = append(issues, "no text could be extracted from the document")
		return issues
	}
	if evaluateTextQuality(text) < textQualityThreshold {
		issues = append(issues, "extracted text is sparse, fields may be unreliable")
	}
	if method == dto.MethodPaddleOCR || method == dto.MethodTesseract {
		if confidence > 0 && confidence < 60 {
			issues = append(issues, "low OCR confidence")
		}
	}
	return issues
}

func buildRecord(filename string, result energybill.Result, method dto.ExtractionMethod, confidence float64) *dto.BillRecord {
	return &dto.BillRecord{
		ID:             uuid.NewString(),
		Filename:       filename,
		Month:          result.Fields[energybill.KeyMonth],
		UnitsConsumed:  result.Fields[energybill.KeyUnitsConsumed],
		SanctionedLoad: result.Fields[energybill.KeySanctionedLoad],
		ContractDemand: result.Fields[energybill.KeyContractDemand],
		MaxDemand:      result.Fields[energybill.KeyMaxDemand],
		Method:         method,
		OcrConfidence:  confidence,
	}
}

func sourceStrings(sources map[string]energybill.Source) map[string]string {
	out := make(map[string]string, len(sources))
	for key, source := range sources {
		out[key] = string(source)
	}
	return out
}

func isPDF(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
