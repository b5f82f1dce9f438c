package extract

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MetaTags holds the head elements search engines read first.
type MetaTags struct {
	Title             string `json:"title"`
	TitleLength       int    `json:"title_length"`
	Description       string `json:"description"`
	DescriptionLength int    `json:"description_length"`
	Keywords          string `json:"keywords,omitempty"`
	Canonical         string `json:"canonical,omitempty"`
	Robots            string `json:"robots,omitempty"`
	Viewport          string `json:"viewport,omitempty"`
	Charset           string `json:"charset,omitempty"`
	Language          string `json:"language,omitempty"`
}

// SocialTags groups Open Graph, Twitter card and site-verification metas.
type SocialTags struct {
	OpenGraph    map[string]string `json:"open_graph"`
	Twitter      map[string]string `json:"twitter"`
	Verification map[string]string `json:"verification"`
}

// VerificationNames are meta names search consoles and platforms use to
// prove site ownership.
var VerificationNames = []string{
	"google-site-verification",
	"msvalidate.01",
	"yandex-verification",
	"baidu-site-verification",
	"p:domain_verify",
	"facebook-domain-verification",
	"ahrefs-site-verification",
}

func Meta(doc *goquery.Document) MetaTags {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	description := metaContent(doc, "description")

	charset, _ := doc.Find("meta[charset]").First().Attr("charset")
	lang, _ := doc.Find("html").First().Attr("lang")
	canonical, _ := doc.Find(`link[rel="canonical"]`).First().Attr("href")

	return MetaTags{
		Title:             title,
		TitleLength:       utf8.RuneCountInString(title),
		Description:       description,
		DescriptionLength: utf8.RuneCountInString(description),
		Keywords:          metaContent(doc, "keywords"),
		Canonical:         strings.TrimSpace(canonical),
		Robots:            metaContent(doc, "robots"),
		Viewport:          metaContent(doc, "viewport"),
		Charset:           strings.TrimSpace(charset),
		Language:          strings.TrimSpace(lang),
	}
}

// Alternate is one hreflang version of the page.
type Alternate struct {
	Lang string `json:"lang"`
	URL  string `json:"url"`
}

// Alternates lists the page's hreflang links resolved against base, in
// document order. Later duplicates of a language are ignored.
func Alternates(doc *goquery.Document, base *url.URL) []Alternate {
	if base == nil {
		base = &url.URL{}
	}
	var alternates []Alternate
	seen := make(map[string]bool)
	doc.Find(`link[rel="alternate"][hreflang]`).Each(func(i int, s *goquery.Selection) {
		lang := strings.ToLower(strings.TrimSpace(s.AttrOr("hreflang", "")))
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if lang == "" || href == "" || seen[lang] {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		seen[lang] = true
		alternates = append(alternates, Alternate{Lang: lang, URL: base.ResolveReference(ref).String()})
	})
	return alternates
}

func Social(doc *goquery.Document) SocialTags {
	tags := SocialTags{
		OpenGraph:    make(map[string]string),
		Twitter:      make(map[string]string),
		Verification: make(map[string]string),
	}
	doc.Find("meta[content]").Each(func(i int, s *goquery.Selection) {
		key := metaKey(s)
		content := strings.TrimSpace(s.AttrOr("content", ""))
		switch {
		case key == "":
		case strings.HasPrefix(key, "og:"):
			tags.OpenGraph[strings.TrimPrefix(key, "og:")] = content
		case strings.HasPrefix(key, "twitter:"):
			tags.Twitter[strings.TrimPrefix(key, "twitter:")] = content
		case isVerification(key):
			tags.Verification[key] = content
		}
	})
	return tags
}

// metaKey prefers property over name; og: tags are often published under
// either attribute.
func metaKey(s *goquery.Selection) string {
	if property, ok := s.Attr("property"); ok && property != "" {
		return strings.ToLower(strings.TrimSpace(property))
	}
	if name, ok := s.Attr("name"); ok {
		return strings.ToLower(strings.TrimSpace(name))
	}
	return ""
}

func metaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta[name]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(s.AttrOr("name", "")), name) {
			content = strings.TrimSpace(s.AttrOr("content", ""))
			return false
		}
		return true
	})
	return content
}

func isVerification(key string) bool {
	for _, name := range VerificationNames {
		if key == name {
			return true
		}
	}
	return strings.HasSuffix(key, "-verification")
}
