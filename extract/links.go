package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Link struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Type     string `json:"type"`
	Internal bool   `json:"internal"`
}

// LinkSummary counts a page's outgoing anchors.
type LinkSummary struct {
	Internal int      `json:"internal"`
	External int      `json:"external"`
	CTAs     []string `json:"ctas,omitempty"`
}

var ctaPhrases = []string{"download", "subscribe", "sign up", "get started", "buy now", "contact us"}

func Links(doc *goquery.Document, base *url.URL) []Link {
	var links []Link
	if base == nil {
		base = &url.URL{}
	}

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		parsedURL, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := base.ResolveReference(parsedURL)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		text := strings.Join(strings.Fields(s.Text()), " ")
		link := Link{
			URL:      resolved.String(),
			Text:     text,
			Type:     "link",
			Internal: strings.EqualFold(resolved.Hostname(), base.Hostname()),
		}
		if isCTA(s.AttrOr("class", ""), text) {
			link.Type = "cta"
		}
		links = append(links, link)
	})

	return links
}

func SummarizeLinks(links []Link) LinkSummary {
	var summary LinkSummary
	for _, link := range links {
		if link.Internal {
			summary.Internal++
		} else {
			summary.External++
		}
		if link.Type == "cta" && link.Text != "" {
			summary.CTAs = append(summary.CTAs, link.Text)
		}
	}
	return summary
}

func isCTA(class, text string) bool {
	class = strings.ToLower(class)
	if strings.Contains(class, "btn") || strings.Contains(class, "cta") || strings.Contains(class, "button") {
		return true
	}
	text = strings.ToLower(text)
	for _, phrase := range ctaPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
