package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt"`
	HasAlt bool   `json:"has_alt"`
	Title  string `json:"title,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
	Lazy   bool   `json:"lazy,omitempty"`
}

// ImageReport is the image inventory of a page with alt-text coverage.
// AltCoverage is the percentage of images with a non-empty alt, or 100 when
// the page has no images.
type ImageReport struct {
	Images      []Image `json:"images"`
	Total       int     `json:"total"`
	WithAlt     int     `json:"with_alt"`
	MissingAlt  int     `json:"missing_alt"`
	AltCoverage float64 `json:"alt_coverage"`
}

func Images(doc *goquery.Document, base *url.URL) ImageReport {
	report := ImageReport{Images: []Image{}}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		lazy := false
		if dataSrc := strings.TrimSpace(s.AttrOr("data-src", "")); dataSrc != "" && (src == "" || strings.HasPrefix(src, "data:")) {
			src = dataSrc
			lazy = true
		}
		if src == "" {
			return
		}
		if loading, ok := s.Attr("loading"); ok && strings.EqualFold(loading, "lazy") {
			lazy = true
		}

		resolved := src
		if parsedURL, err := url.Parse(src); err == nil && base != nil {
			resolved = base.ResolveReference(parsedURL).String()
		}

		alt := strings.TrimSpace(s.AttrOr("alt", ""))
		image := Image{
			URL:    resolved,
			Alt:    alt,
			HasAlt: alt != "",
			Title:  s.AttrOr("title", ""),
			Width:  s.AttrOr("width", ""),
			Height: s.AttrOr("height", ""),
			Lazy:   lazy,
		}
		report.Images = append(report.Images, image)
		if image.HasAlt {
			report.WithAlt++
		} else {
			report.MissingAlt++
		}
	})

	report.Total = len(report.Images)
	report.AltCoverage = 100
	if report.Total > 0 {
		report.AltCoverage = float64(report.WithAlt) * 100 / float64(report.Total)
	}
	return report
}
