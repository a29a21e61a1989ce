package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// PaddleClient calls a PaddleOCR HTTP service for text extraction from
// scanned bill images. The service hosts the detection and recognition
// models; this client only ships image bytes and collects lines back.
type PaddleClient struct {
	apiURL string
}

// NewPaddleClient creates a client against the given PaddleOCR endpoint.
func NewPaddleClient(apiURL string) *PaddleClient {
	log.Printf("PaddleOCR client initialized with endpoint: %s", apiURL)
	return &PaddleClient{apiURL: apiURL}
}

type ocrLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// ExtractText extracts text from image bytes using the PaddleOCR HTTP API
func (p *PaddleClient) ExtractText(imageBytes []byte) (string, error) {
	text, _, err := p.ExtractTextAndConfidence(imageBytes)
	return text, err
}

// ExtractTextAndConfidence extracts text and reports the mean line
// confidence the recognition model assigned.
func (p *PaddleClient) ExtractTextAndConfidence(imageBytes []byte) (string, float64, error) {
	lines, err := p.recognize(imageBytes)
	if err != nil {
		return "", 0, err
	}

	var textBuilder strings.Builder
	var totalConf float64
	for _, line := range lines {
		textBuilder.WriteString(line.Text)
		textBuilder.WriteString("\n")
		totalConf += line.Confidence
	}

	extractedText := textBuilder.String()
	if extractedText == "" {
		return "", 0, fmt.Errorf("PaddleOCR extracted no text from image")
	}

	// PaddleOCR reports confidence in 0..1, scale to percent
	avgConf := totalConf / float64(len(lines)) * 100

	log.Printf("PaddleOCR API extracted %d characters from %d lines", len(extractedText), len(lines))
	return extractedText, avgConf, nil
}

// recognize posts one image to the PaddleOCR endpoint and returns the
// recognized lines in reading order.
func (p *PaddleClient) recognize(imageBytes []byte) ([]ocrLine, error) {
	// Encode image bytes to base64
	encodedImage := base64.StdEncoding.EncodeToString(imageBytes)

	// Prepare request payload
	payload := map[string]interface{}{
		"images": []string{encodedImage},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	// Make HTTP POST request
	resp, err := http.Post(p.apiURL, "application/json", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to call PaddleOCR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("PaddleOCR API returned status %d: %s", resp.StatusCode, string(body))
	}

	// Parse response
	var result struct {
		Results [][]ocrLine `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode PaddleOCR response: %w", err)
	}

	if len(result.Results) == 0 {
		return nil, nil
	}
	return result.Results[0], nil
}
