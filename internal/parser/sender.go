package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mikey/llm-mail-ingest/internal/utils"
)

// How far up the tree the sender heuristics will look
const senderWalkDepth = 5

var (
	// "FROM: Acme Corp" possibly followed by template noise
	reFromLabel = regexp.MustCompile(`(?i)\bFROM:?\s+([A-Za-z0-9][A-Za-z0-9&,.'\- ]{1,79}?)(?:\s+campaign\b|\s+Learn\b|$)`)

	// Consecutive capitalized words, the shape of a company name
	reCapitalized = regexp.MustCompile(`\b([A-Z][A-Za-z0-9]*(?:\s+[A-Z][A-Za-z0-9]*)+)\b`)

	reTrailingCampaign = regexp.MustCompile(`(?i)\s*campaign\s*$`)
)

// senderStrategy is one step of the resolution chain; "" means no match
type senderStrategy func(img *goquery.Selection) string

// resolveSender walks the ordered strategy chain and returns the first
// non-empty sender guess. Strong signals (the template's own sender label)
// come before progressively looser text scans.
func (e *Extractor) resolveSender(img *goquery.Selection) string {
	strategies := []senderStrategy{
		e.senderFromTableLabel,
		e.senderFromAncestorLabel,
		e.senderFromTableRows,
		e.senderFromOwnRow,
		e.senderFromAncestorText,
		e.senderFromSiblings,
		e.senderFromCapitalizedText,
		e.senderFromContainerText,
	}
	for _, strategy := range strategies {
		if sender := strategy(img); sender != "" {
			return sender
		}
	}
	return ""
}

// senderFromTableLabel looks for the template's dedicated sender span
// within the table enclosing the image
func (e *Extractor) senderFromTableLabel(img *goquery.Selection) string {
	table := img.Closest("table")
	if table.Length() == 0 {
		return ""
	}
	label := table.Find(`span[id="` + e.cfg.CampaignSenderID + `"]`).First()
	return e.cleanSender(label.Text())
}

// senderFromAncestorLabel widens the label search by walking a bounded
// number of ancestor levels; some template revisions put the label outside
// the tile's own table
func (e *Extractor) senderFromAncestorLabel(img *goquery.Selection) string {
	var sender string
	walkAncestors(img, senderWalkDepth, func(ancestor *goquery.Selection) bool {
		label := ancestor.Find(`span[id="` + e.cfg.CampaignSenderID + `"]`).First()
		sender = e.cleanSender(label.Text())
		return sender != ""
	})
	return sender
}

// senderFromTableRows scans each row of the enclosing table for a FROM:
// text pattern; the label usually sits in a different row than the scan
func (e *Extractor) senderFromTableRows(img *goquery.Selection) string {
	table := img.Closest("table")
	if table.Length() == 0 {
		return ""
	}
	var sender string
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		sender = e.extractFromPattern(row.Text())
		return sender == ""
	})
	return sender
}

// senderFromOwnRow scans just the row containing the image
func (e *Extractor) senderFromOwnRow(img *goquery.Selection) string {
	row := img.Closest("tr")
	if row.Length() == 0 {
		return ""
	}
	return e.extractFromPattern(row.Text())
}

// senderFromAncestorText scans the free text of a bounded number of
// ancestors for the FROM: pattern
func (e *Extractor) senderFromAncestorText(img *goquery.Selection) string {
	var sender string
	walkAncestors(img, senderWalkDepth, func(ancestor *goquery.Selection) bool {
		sender = e.extractFromPattern(ancestor.Text())
		return sender != ""
	})
	return sender
}

// senderFromSiblings scans the siblings of the image's container; some
// templates put the sender in an adjacent cell
func (e *Extractor) senderFromSiblings(img *goquery.Selection) string {
	container := closestContainer(img)
	if container.Length() == 0 {
		return ""
	}
	var sender string
	container.Siblings().EachWithBreak(func(_ int, sibling *goquery.Selection) bool {
		sender = e.extractFromPattern(sibling.Text())
		return sender == ""
	})
	return sender
}

// senderFromCapitalizedText falls back to a generic capitalized-multi-word
// pattern over the container text, rejecting template boilerplate
func (e *Extractor) senderFromCapitalizedText(img *goquery.Selection) string {
	container := closestContainer(img)
	if container.Length() == 0 {
		return ""
	}
	text := utils.NormalizeWhitespace(container.Text())
	for _, match := range reCapitalized.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(match[1])
		if len(candidate) < 3 || len(candidate) >= 80 {
			continue
		}
		if len(strings.Fields(candidate)) > 5 {
			continue
		}
		if e.isBoilerplate(candidate) {
			continue
		}
		return e.cleanSender(candidate)
	}
	return ""
}

// senderFromContainerText is the loosest fallback: the truncated container
// text itself, accepted only when it starts with a capital letter and
// carries no boilerplate
func (e *Extractor) senderFromContainerText(img *goquery.Selection) string {
	container := closestContainer(img)
	if container.Length() == 0 {
		return ""
	}
	text := e.cleanSender(utils.TruncateText(utils.NormalizeWhitespace(container.Text()), 120))
	if len(text) <= 2 {
		return ""
	}
	if text[0] < 'A' || text[0] > 'Z' {
		return ""
	}
	if e.isBoilerplate(text) {
		return ""
	}
	return text
}

// extractFromPattern pulls a sender out of a FROM:-prefixed text fragment
func (e *Extractor) extractFromPattern(text string) string {
	text = utils.NormalizeWhitespace(text)
	match := reFromLabel.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	sender := strings.TrimSpace(match[1])
	if len(sender) <= 1 || e.isBoilerplate(sender) {
		return ""
	}
	return e.cleanSender(sender)
}

// isBoilerplate reports whether the candidate contains any template
// boilerplate token
func (e *Extractor) isBoilerplate(candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, token := range e.cfg.BoilerplateTokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			return true
		}
	}
	return false
}

// cleanSender normalizes whitespace, strips trailing campaign-label noise
// and caps the length
func (e *Extractor) cleanSender(text string) string {
	text = utils.NormalizeWhitespace(text)
	text = reTrailingCampaign.ReplaceAllString(text, "")
	return utils.TruncateText(strings.TrimSpace(text), 120)
}
