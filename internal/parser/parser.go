// Package parser extracts mail-piece candidates from delivery digest HTML.
//
// Digest templates are messy nested-table email markup, so everything here
// is best effort: every heuristic that misses degrades to an empty field
// and Parse never fails on malformed input.
package parser

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mikey/llm-mail-ingest/internal/config"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"go.uber.org/zap"
)

// Extractor finds mail-piece tiles in digest HTML
type Extractor struct {
	cfg    config.ParserConfig
	logger *zap.Logger
}

// New creates a new tile extractor
func New(cfg config.ParserConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		logger: logger,
	}
}

// Parse returns the mail-piece candidates found in the HTML, in document
// order, deduplicated by image locator (first occurrence wins)
func (e *Extractor) Parse(html string) []core.MailPieceCandidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Warn("Failed to parse digest HTML", zap.Error(err))
		return nil
	}

	digestDate := e.digestDate(doc)

	var candidates []core.MailPieceCandidate
	seen := make(map[string]bool)

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return
		}

		locator, ok := e.classifyLocator(src)
		if !ok {
			return
		}

		alt, _ := img.Attr("alt")
		if e.isDecorative(src, alt) {
			return
		}
		if e.belowSizeThreshold(img) {
			return
		}
		if seen[locator.Key()] {
			return
		}
		seen[locator.Key()] = true

		sender := e.resolveSender(img)
		section, date := e.resolveSection(img, digestDate)

		candidates = append(candidates, core.MailPieceCandidate{
			Locator:      locator,
			SenderGuess:  sender,
			DeliveryDate: date,
			SectionHint:  section,
		})
	})

	return candidates
}

// classifyLocator maps an img src to one of the two locator kinds. Data
// URIs and anything else unrecognized are rejected.
func (e *Extractor) classifyLocator(src string) (core.ImageLocator, bool) {
	switch {
	case strings.HasPrefix(src, "cid:"):
		return core.InlineLocator(strings.TrimPrefix(src, "cid:")), true
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		if !e.cfg.AcceptRemoteImages {
			return core.ImageLocator{}, false
		}
		return core.RemoteLocator(src), true
	default:
		return core.ImageLocator{}, false
	}
}

// isDecorative rejects logos, icons, social buttons and other digest
// chrome by denylist match over the locator and alt text
func (e *Extractor) isDecorative(src, alt string) bool {
	src = strings.ToLower(src)
	alt = strings.ToLower(alt)
	for _, word := range e.cfg.Denylist {
		word = strings.ToLower(word)
		if strings.Contains(src, word) || strings.Contains(alt, word) {
			return true
		}
	}
	return false
}

// belowSizeThreshold rejects images with a declared dimension under the
// minimum pixel size; those are spacers and tracking markers, not scans.
// Images without declared dimensions pass.
func (e *Extractor) belowSizeThreshold(img *goquery.Selection) bool {
	for _, attr := range []string{"width", "height"} {
		if raw, ok := img.Attr(attr); ok {
			if px, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(raw), "px")); err == nil {
				if px > 0 && px < e.cfg.MinImagePx {
					return true
				}
			}
		}
	}
	return false
}

// containsAnyFold reports whether text contains any of the markers,
// case-insensitively
func containsAnyFold(text string, markers []string) bool {
	text = strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(text, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
