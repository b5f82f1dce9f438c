package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Heading struct {
	Level int    `json:"level"`
	Tag   string `json:"tag"`
	Text  string `json:"text"`
}

// HeadingOutline is the h1-h6 structure of a page in document order.
type HeadingOutline struct {
	Headings []Heading      `json:"headings"`
	Counts   map[string]int `json:"counts"`
	Total    int            `json:"total"`
}

func Headings(doc *goquery.Document) HeadingOutline {
	outline := HeadingOutline{
		Headings: []Heading{},
		Counts:   map[string]int{"h1": 0, "h2": 0, "h3": 0, "h4": 0, "h5": 0, "h6": 0},
	}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(i int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		tag := goquery.NodeName(s)
		outline.Headings = append(outline.Headings, Heading{
			Level: int(tag[1] - '0'),
			Tag:   strings.ToUpper(tag),
			Text:  text,
		})
		outline.Counts[tag]++
	})
	outline.Total = len(outline.Headings)
	return outline
}
