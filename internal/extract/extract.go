// Package extract pulls participations, specialty scores and placing
// counters out of rider profile pages.
package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Defaults for the profile page markers.
const (
	DefaultNotFoundMarker = "Page not found"
	DefaultITTMarker      = "(ITT)"
)

const (
	participationsXPath = `//h3[text()="Upcoming participations"]/following-sibling::ul//div[contains(@class, "ellipsis")]`
	specialtyScoreXPath = `//h3[text()="Points per specialty"]/following-sibling::ul//div[contains(@class, "pnt")]`
	specialtyLabelXPath = `//h3[text()="Points per specialty"]/following-sibling::ul//div[contains(@class, "title")]`
	resultRowsSelector  = "#resultsCont tbody tr"
)

// Config holds the page markers.
type Config struct {
	NotFoundMarker string
	ITTMarker      string
}

// Extractor parses profile documents. It is safe for concurrent use.
type Extractor struct {
	cfg Config
}

// New constructs an Extractor, filling empty markers with defaults.
func New(cfg Config) *Extractor {
	if cfg.NotFoundMarker == "" {
		cfg.NotFoundMarker = DefaultNotFoundMarker
	}
	if cfg.ITTMarker == "" {
		cfg.ITTMarker = DefaultITTMarker
	}
	return &Extractor{cfg: cfg}
}

// Extract parses body once and extracts the enabled categories. A page whose
// title carries the not-found marker yields NotFound and an empty payload.
func (e *Extractor) Extract(body []byte, flags enricher.Flags) (enricher.Extraction, error) {
	if !flags.Any() {
		return enricher.Extraction{}, nil
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return enricher.Extraction{}, fmt.Errorf("parse profile: %w", err)
	}
	if e.notFound(doc) {
		return enricher.Extraction{NotFound: true}, nil
	}

	var payload enricher.Payload
	if flags.Participations {
		payload.Participations = participations(doc)
	}
	if flags.Specialties {
		payload.Specialties, err = specialties(doc)
		if err != nil {
			return enricher.Extraction{}, err
		}
	}
	if flags.Results {
		payload.Results = e.results(doc)
	}
	payload.Fetched = flags
	return enricher.Extraction{Payload: payload}, nil
}

func (e *Extractor) notFound(doc *html.Node) bool {
	title := htmlquery.FindOne(doc, "//title")
	if title == nil {
		return false
	}
	return strings.Contains(htmlquery.InnerText(title), e.cfg.NotFoundMarker)
}

// participations lists every upcoming race in page order. The cached list is
// unfiltered so a run with a different race list can reuse it.
func participations(doc *html.Node) []string {
	out := []string{}
	for _, n := range htmlquery.Find(doc, participationsXPath) {
		if name := clean(htmlquery.InnerText(n)); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func specialties(doc *html.Node) (map[string]float64, error) {
	scores := htmlquery.Find(doc, specialtyScoreXPath)
	labels := htmlquery.Find(doc, specialtyLabelXPath)
	if len(scores) != len(labels) {
		return nil, fmt.Errorf("specialties: %d labels for %d scores", len(labels), len(scores))
	}
	out := make(map[string]float64, len(labels))
	for i, n := range labels {
		raw := strings.ReplaceAll(clean(htmlquery.InnerText(scores[i])), ",", "")
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// Unscored specialties such as "-" are left out.
			continue
		}
		out[clean(htmlquery.InnerText(n))] = score
	}
	return out, nil
}

// results counts top-20 and top-5 placings. Rows without a date, a numeric
// rank or a race name are ignored.
func (e *Extractor) results(doc *html.Node) enricher.ResultCounters {
	var counters enricher.ResultCounters
	goquery.NewDocumentFromNode(doc).Find(resultRowsSelector).Each(func(_ int, row *goquery.Selection) {
		cells := row.Children()
		date := clean(cells.Eq(0).Text())
		race := clean(cells.Eq(4).Text())
		rank, err := strconv.Atoi(clean(cells.Eq(1).Text()))
		if date == "" || race == "" || err != nil {
			return
		}
		if strings.Contains(race, e.cfg.ITTMarker) {
			if rank <= 20 {
				counters.ITTTop20++
			}
			if rank <= 5 {
				counters.ITTTop5++
			}
			return
		}
		if rank <= 20 {
			counters.RaceTop20++
		}
		if rank <= 5 {
			counters.RaceTop5++
		}
	})
	return counters
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
