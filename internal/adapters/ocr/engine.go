// Package ocr implements the TextExtractor port over Tesseract
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/mikey/llm-mail-ingest/internal/config"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"github.com/mikey/llm-mail-ingest/internal/utils"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// Engine is a Tesseract-backed text extractor. The underlying client is
// created on first use and reused across extractions; gosseract clients
// are not safe for concurrent calls, so a mutex serializes access.
type Engine struct {
	cfg    config.OCRConfig
	logger *zap.Logger

	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine creates a new recognition engine
func NewEngine(cfg config.OCRConfig, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger,
	}
}

// Extract runs recognition over the image bytes and returns every
// recognized line verbatim
func (e *Engine) Extract(ctx context.Context, image []byte) (*core.OcrResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("empty image")
	}

	if e.cfg.Preprocess {
		if processed, err := preprocess(image); err == nil {
			image = processed
		} else {
			e.logger.Debug("Image preprocessing failed, using original bytes", zap.Error(err))
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	client, err := e.clientLocked()
	if err != nil {
		return nil, err
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to load image into tesseract: %w", err)
	}

	raw, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to recognize text: %w", err)
	}

	result := &core.OcrResult{
		RawText:        raw,
		NormalizedText: utils.NormalizeWhitespace(utils.SanitizeUTF8(raw)),
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		// Line geometry is best effort; fall back to bare text lines
		e.logger.Debug("Bounding box extraction failed", zap.Error(err))
		for _, line := range splitLines(raw) {
			result.Lines = append(result.Lines, core.OcrLine{Text: line})
		}
		return result, nil
	}

	for _, box := range boxes {
		text := utils.NormalizeWhitespace(utils.SanitizeUTF8(box.Word))
		if text == "" {
			continue
		}
		result.Lines = append(result.Lines, core.OcrLine{
			Text: text,
			X0:   box.Box.Min.X,
			Y0:   box.Box.Min.Y,
			X1:   box.Box.Max.X,
			Y1:   box.Box.Max.Y,
		})
	}
	return result, nil
}

// Close releases the Tesseract client
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

// clientLocked lazily initializes the Tesseract client. Callers hold e.mu.
func (e *Engine) clientLocked() (*gosseract.Client, error) {
	if e.client != nil {
		return e.client, nil
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(e.cfg.Language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set tesseract language %q: %w", e.cfg.Language, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	e.logger.Info("Initialized OCR engine",
		zap.String("language", e.cfg.Language),
		zap.Int("page_seg_mode", e.cfg.PageSegMode))
	e.client = client
	return client, nil
}

// preprocess grayscales, boosts contrast and sharpens the scan, then
// re-encodes it as PNG for the recognizer
func preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 20)
	img = imaging.Sharpen(img, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// splitLines breaks raw recognizer output into trimmed non-empty lines
func splitLines(raw string) []string {
	var lines []string
	for _, line := range bytes.Split([]byte(raw), []byte("\n")) {
		if text := utils.NormalizeWhitespace(string(line)); text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}
