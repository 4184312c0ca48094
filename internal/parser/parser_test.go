package parser

import (
	"testing"

	"github.com/mikey/llm-mail-ingest/internal/config"
	"github.com/mikey/llm-mail-ingest/internal/core"
	"go.uber.org/zap"
)

func testConfig() config.ParserConfig {
	return config.ParserConfig{
		MinImagePx:       50,
		CampaignSenderID: "campaign-from-span-id",
		Denylist: []string{
			"logo", "icon", "facebook", "twitter", "share", "dashboard",
			"banner", "footer", "social", "pixel", "spacer",
		},
		BoilerplateTokens: []string{
			"Learn", "Dashboard", "Expected", "Today", "Week", "Mail",
			"View", "Share", "Click", "Icon", "Button",
		},
		TodayMarkers:       []string{"expected today", "arriving today"},
		WeekMarkers:        []string{"expected this week", "coming this week"},
		DateParamKeys:      []string{"date", "mailDate", "deliveryDate"},
		DateDayID:          "date-day-span-id",
		DateMonthID:        "date-month-span-id",
		DateYearID:         "date-year-span-id",
		AcceptRemoteImages: true,
	}
}

func newTestExtractor(cfg config.ParserConfig) *Extractor {
	return New(cfg, zap.NewNop())
}

func TestParse_DecorativeImagesExcluded(t *testing.T) {
	html := `<html><body>
		<img src="cid:scan-1" width="300" alt="Scanned image of your mail piece"/>
		<img src="https://cdn.example.com/fb.png" width="300" alt="Facebook icon"/>
		<img src="https://cdn.example.com/usps-logo.png" width="300" alt=""/>
	</body></html>`

	tiles := newTestExtractor(testConfig()).Parse(html)
	if len(tiles) != 1 {
		t.Fatalf("Expected 1 tile, got %d", len(tiles))
	}
	if tiles[0].Locator.Key() != "cid:scan-1" {
		t.Errorf("Unexpected tile locator %s", tiles[0].Locator.Key())
	}
}

func TestParse_SmallImagesExcluded(t *testing.T) {
	html := `<html><body>
		<img src="cid:tiny" width="30" height="30"/>
		<img src="cid:scan-1" width="120"/>
		<img src="cid:scan-2"/>
	</body></html>`

	tiles := newTestExtractor(testConfig()).Parse(html)
	if len(tiles) != 2 {
		t.Fatalf("Expected 2 tiles, got %d", len(tiles))
	}
	for _, tile := range tiles {
		if tile.Locator.ContentID == "tiny" {
			t.Error("Expected sub-threshold image to be excluded")
		}
	}
}

func TestParse_RemoteImagesRespectConfig(t *testing.T) {
	html := `<html><body>
		<img src="https://informeddelivery.usps.com/scans/abc.jpg" width="300"/>
		<img src="data:image/png;base64,AAAA" width="300"/>
	</body></html>`

	tiles := newTestExtractor(testConfig()).Parse(html)
	if len(tiles) != 1 {
		t.Fatalf("Expected 1 tile with remote images accepted, got %d", len(tiles))
	}
	if tiles[0].Locator.Kind != core.LocatorRemote {
		t.Error("Expected a remote locator")
	}

	cfg := testConfig()
	cfg.AcceptRemoteImages = false
	tiles = newTestExtractor(cfg).Parse(html)
	if len(tiles) != 0 {
		t.Fatalf("Expected 0 tiles with remote images rejected, got %d", len(tiles))
	}
}

func TestParse_DedupFirstWins(t *testing.T) {
	html := `<html><body>
		<table><tr><td><img src="cid:dup" width="300"/></td></tr><tr><td>FROM: Acme Corp</td></tr></table>
		<table><tr><td><img src="cid:dup" width="300"/></td></tr><tr><td>FROM: Other Co</td></tr></table>
	</body></html>`

	tiles := newTestExtractor(testConfig()).Parse(html)
	if len(tiles) != 1 {
		t.Fatalf("Expected 1 tile after dedup, got %d", len(tiles))
	}
	if tiles[0].SenderGuess != "Acme Corp" {
		t.Errorf("Expected first occurrence to win, got sender %q", tiles[0].SenderGuess)
	}
}

func TestParse_SenderFromLabelRow(t *testing.T) {
	html := `<html><body>
		<table>
			<tr><td><img src="cid:scan-1" width="300"/></td></tr>
			<tr><td>FROM: Acme Corp</td></tr>
		</table>
	</body></html>`

	tiles := newTestExtractor(testConfig()).Parse(html)
	if len(tiles) != 1 {
		t.Fatalf("Expected 1 tile, got %d", len(tiles))
	}
	if tiles[0].SenderGuess != "Acme Corp" {
		t.Errorf("Expected sender %q, got %q", "Acme Corp", tiles[0].SenderGuess)
	}
}

func TestParse_CampaignLabelBeatsFromRow(t *testing.T) {
	html := `<html><body>
		<table>
			<tr><td><span id="campaign-from-span-id">Widgets Inc</span></td></tr>
			<tr><td><img src="cid:scan-1" width="300"/></td></tr>
			<tr><td>FROM: Other Co</td></tr>
		</table>
	</body></html>`

	tiles := newTestExtractor(testConfig()).Parse(html)
	if len(tiles) != 1 {
		t.Fatalf("Expected 1 tile, got %d", len(tiles))
	}
	if tiles[0].SenderGuess != "Widgets Inc" {
		t.Errorf("Expected the template label to win, got %q", tiles[0].SenderGuess)
	}
}

func TestParse_SenderStripsTrailingCampaign(t *testing.T) {
	html := `<html><body>
		<table>
			<tr><td><span id="campaign-from-span-id">Widgets Inc campaign</span></td></tr>
			<tr><td><img src="cid:scan-1" width="300"/></td></tr>
		</table>
	</body></html>`

	tiles := newTestExtractor(testConfig()).Parse(html)
	if len(tiles) != 1 {
		t.Fatalf("Expected 1 tile, got %d", len(tiles))
	}
	if tiles[0].SenderGuess != "Widgets Inc" {
		t.Errorf("Expected trailing campaign noise stripped, got %q", tiles[0].SenderGuess)
	}
}

func TestParse_FullDigest(t *testing.T) {
	html := `<html><body>
		<img src="https://tracking.example.com/open?date=2025-11-15" width="1" height="1" alt="pixel"/>
		<table>
			<tr><td>Expected Today</td></tr>
			<tr><td>
				<table>
					<tr><td><img src="cid:scan-today" width="300" alt="Scanned image of your mail piece"/></td></tr>
					<tr><td>FROM: Acme Corp</td></tr>
				</table>
			</td></tr>
		</table>
		<table>
			<tr><td>Expected This Week</td><td>Week of November 17, 2025</td></tr>
			<tr><td>
				<table>
					<tr><td><img src="cid:scan-week" width="300" alt="Scanned image of your mail piece"/></td></tr>
					<tr><td>FROM: Widgets Inc</td></tr>
				</table>
			</td></tr>
		</table>
		<img src="https://cdn.example.com/usps-logo.png" width="200" alt="USPS logo"/>
	</body></html>`

	tiles := newTestExtractor(testConfig()).Parse(html)
	if len(tiles) != 2 {
		t.Fatalf("Expected exactly 2 tiles, got %d", len(tiles))
	}

	today := tiles[0]
	if today.Locator.Key() != "cid:scan-today" {
		t.Fatalf("Expected document order, first tile is %s", today.Locator.Key())
	}
	if today.SectionHint != "today" {
		t.Errorf("Expected today section, got %q", today.SectionHint)
	}
	if today.DeliveryDate != "2025-11-15" {
		t.Errorf("Expected tracking pixel date 2025-11-15, got %q", today.DeliveryDate)
	}
	if today.SenderGuess != "Acme Corp" {
		t.Errorf("Expected sender Acme Corp, got %q", today.SenderGuess)
	}

	week := tiles[1]
	if week.SectionHint != "week" {
		t.Errorf("Expected week section, got %q", week.SectionHint)
	}
	if week.DeliveryDate != "2025-11-17" {
		t.Errorf("Expected week label date 2025-11-17, got %q", week.DeliveryDate)
	}
	if week.SenderGuess != "Widgets Inc" {
		t.Errorf("Expected sender Widgets Inc, got %q", week.SenderGuess)
	}
}

func TestParse_MalformedHTMLNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"<table><tr><td>",
		"not html at all",
		`<img src="cid:orphan" width="300">`,
	}
	extractor := newTestExtractor(testConfig())
	for _, input := range inputs {
		tiles := extractor.Parse(input)
		for _, tile := range tiles {
			if tile.Locator.IsZero() {
				t.Errorf("Parse(%q) produced a tile without a locator", input)
			}
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2025-11-15", "2025-11-15"},
		{"11/15/2025", "2025-11-15"},
		{"1/5/2025", "2025-01-05"},
		{"20251115", "2025-11-15"},
		{"garbage", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalizeDate(tc.in); got != tc.want {
			t.Errorf("normalizeDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
