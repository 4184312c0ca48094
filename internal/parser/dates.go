package parser

import (
	"net/url"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// How far up the tree section classification will look
const sectionWalkDepth = 15

const isoDate = "2006-01-02"

var (
	reWeekdayShortDate = regexp.MustCompile(`(?i)\b(Mon|Tue|Wed|Thu|Fri|Sat|Sun)[a-z]*,\s+(\d{1,2})/(\d{1,2})\b`)
	reWeekdayLongDate  = regexp.MustCompile(`(?i)\b(Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday),?\s+(\d{1,2})\s+([A-Z][a-z]+)\s+(\d{4})\b`)
	reMonthDayYear     = regexp.MustCompile(`\b([A-Z][a-z]+ \d{1,2}, \d{4})\b`)
)

// digestDate recovers the digest's main delivery date. Strategies run in
// order until one succeeds; all of them failing leaves the date empty.
func (e *Extractor) digestDate(doc *goquery.Document) string {
	if d := e.dateFromTrackingPixel(doc); d != "" {
		return d
	}
	if d := e.dateFromMarkerElements(doc); d != "" {
		return d
	}
	if d := e.dateFromBodyText(doc); d != "" {
		return d
	}
	e.logger.Debug("No digest date recovered")
	return ""
}

// dateFromTrackingPixel scans every image URL for a delivery-date query
// parameter. Tracking pixels carry the digest date even when the visible
// markup does not.
func (e *Extractor) dateFromTrackingPixel(doc *goquery.Document) string {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok {
			return true
		}
		u, err := url.Parse(src)
		if err != nil {
			return true
		}
		query := u.Query()
		for _, key := range e.cfg.DateParamKeys {
			if d := normalizeDate(query.Get(key)); d != "" {
				found = d
				return false
			}
		}
		return true
	})
	return found
}

// dateFromMarkerElements reads the template's explicit day/month/year spans
func (e *Extractor) dateFromMarkerElements(doc *goquery.Document) string {
	day := doc.Find(`span[id="` + e.cfg.DateDayID + `"]`).First().Text()
	month := doc.Find(`span[id="` + e.cfg.DateMonthID + `"]`).First().Text()
	year := doc.Find(`span[id="` + e.cfg.DateYearID + `"]`).First().Text()
	if day == "" || month == "" || year == "" {
		return ""
	}
	for _, layout := range []string{"January 2 2006", "Jan 2 2006", "1 2 2006"} {
		if t, err := time.Parse(layout, month+" "+day+" "+year); err == nil {
			return t.Format(isoDate)
		}
	}
	return ""
}

// dateFromBodyText runs loose weekday/date regexes over the whole body
func (e *Extractor) dateFromBodyText(doc *goquery.Document) string {
	body := doc.Find("body").Text()
	if body == "" {
		body = doc.Text()
	}

	// "Daily Digest for Sat, 11/15" (or a bare "Sat, 11/15"); no year in
	// the template, assume the current one
	if m := reWeekdayShortDate.FindStringSubmatch(body); m != nil {
		if t, err := time.Parse("1/2/2006", m[2]+"/"+m[3]+"/"+time.Now().Format("2006")); err == nil {
			return t.Format(isoDate)
		}
	}

	// "Saturday, 15 November 2025"
	if m := reWeekdayLongDate.FindStringSubmatch(body); m != nil {
		for _, layout := range []string{"2 January 2006", "2 Jan 2006"} {
			if t, err := time.Parse(layout, m[2]+" "+m[3]+" "+m[4]); err == nil {
				return t.Format(isoDate)
			}
		}
	}

	return ""
}

// resolveSection classifies the candidate's enclosing region and derives
// its delivery date. "Expected today" inherits the digest date; "expected
// this week" looks for a nearby week-range label; anything unresolved falls
// back to the digest date.
func (e *Extractor) resolveSection(img *goquery.Selection, digestDate string) (section, date string) {
	var weekScope *goquery.Selection

	walkAncestors(img, sectionWalkDepth, func(ancestor *goquery.Selection) bool {
		text := ancestor.Text()
		today := containsAnyFold(text, e.cfg.TodayMarkers)
		week := containsAnyFold(text, e.cfg.WeekMarkers)
		switch {
		case today && week:
			// This ancestor spans both sections; nothing closer decided, so
			// the region is ambiguous
			return true
		case today:
			section = "today"
			return true
		case week:
			section = "week"
			weekScope = ancestor
			return true
		}
		return false
	})

	if section == "week" && weekScope != nil {
		if d := weekLabelDate(weekScope.Text()); d != "" {
			return section, d
		}
		e.logger.Debug("Week section without parseable range label",
			zap.String("fallback_date", digestDate))
	}

	return section, digestDate
}

// weekLabelDate parses a loose "Month D, YYYY" label out of free text
func weekLabelDate(text string) string {
	m := reMonthDayYear.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	for _, layout := range []string{"January 2, 2006", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, m[1]); err == nil {
			return t.Format(isoDate)
		}
	}
	return ""
}

// normalizeDate coerces the few date shapes seen in tracking URLs to ISO
func normalizeDate(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range []string{isoDate, "01/02/2006", "1/2/2006", "20060102"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(isoDate)
		}
	}
	return ""
}
