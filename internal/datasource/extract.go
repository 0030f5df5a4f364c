package datasource

import (
	"bytes"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoEmbeddedChart is returned when an HTML page carries no chart
// description.
var ErrNoEmbeddedChart = errors.New("no embedded chart description")

// chartSelectors are tried in order against HTML chart pages.
var chartSelectors = []string{
	`script[type="application/json"][data-chart]`,
	`script#chart-data`,
}

// ExtractChart pulls the chart description JSON out of an HTML page.
func ExtractChart(page []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	for _, sel := range chartSelectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = strings.TrimSpace(s.Text())
			return found == ""
		})
		if found != "" {
			return []byte(found), nil
		}
	}
	return nil, ErrNoEmbeddedChart
}

func isHTML(contentType string, body []byte) bool {
	if strings.HasPrefix(contentType, "text/html") {
		return true
	}
	head := bytes.TrimSpace(body)
	if len(head) > 64 {
		head = head[:64]
	}
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<!doctype html")) || bytes.HasPrefix(lower, []byte("<html"))
}
