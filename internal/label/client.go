package label

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client posts a label photo to the vision service and parses the returned
// text. The service only does OCR; all structure extraction happens locally
// in Parse.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

type visionResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error"`
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
		log:     log,
	}
}

func (c *Client) Enabled() bool { return c.baseURL != "" }

// ScanImage uploads the photo and returns the extraction. Callers treat any
// error as "fill the form in by hand".
func (c *Client) ScanImage(ctx context.Context, image []byte) (Extraction, error) {
	if !c.Enabled() {
		return Extraction{}, fmt.Errorf("label: vision service not configured")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "label.jpg")
	if err != nil {
		return Extraction{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err = io.Copy(part, bytes.NewReader(image)); err != nil {
		return Extraction{}, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Extraction{}, fmt.Errorf("close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/scan-label", body)
	if err != nil {
		return Extraction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Extraction{}, fmt.Errorf("call vision service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Extraction{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Extraction{}, fmt.Errorf("vision service returned status %d: %s", resp.StatusCode, raw)
	}

	var result visionResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return Extraction{}, fmt.Errorf("parse vision response: %w", err)
	}
	if !result.Success {
		return Extraction{}, fmt.Errorf("vision service failed: %s", result.Error)
	}

	ex := Parse(result.Text)
	c.log.Info("label scanned",
		zap.Int("text_len", len(result.Text)),
		zap.String("name", ex.Name),
		zap.String("frequency", ex.Frequency))
	return ex, nil
}
