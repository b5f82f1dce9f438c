package extract

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// FullText is the readable content of a page.
type FullText struct {
	Title          string      `json:"title"`
	Text           string      `json:"text"`
	WordCount      int         `json:"word_count"`
	ParagraphCount int         `json:"paragraph_count"`
	Links          LinkSummary `json:"links"`
	Markdown       string      `json:"markdown,omitempty"`
}

func Title(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "No title"
	}
	return title
}

// ExtractFullText collects the visible text of doc. Markdown conversion of
// the body is only done when withMarkdown is set since it roughly doubles
// the payload.
func ExtractFullText(doc *goquery.Document, base *url.URL, withMarkdown bool) FullText {
	text := FormattedText(doc)
	result := FullText{
		Title:          Title(doc),
		Text:           text,
		WordCount:      len(strings.Fields(doc.Find("body").Text())),
		ParagraphCount: len(Paragraphs(doc)),
		Links:          SummarizeLinks(Links(doc, base)),
	}
	if withMarkdown {
		result.Markdown = Markdown(doc)
	}
	return result
}

// FormattedText renders block elements as lightweight markdown. Script and
// style nodes are removed from doc first.
func FormattedText(doc *goquery.Document) string {
	var result strings.Builder

	body := doc.Find("body")
	body.Find("script, style, noscript, template").Remove()

	body.Find("h1, h2, h3, h4, h5, h6, p, ul, ol, blockquote, pre").Each(func(i int, s *goquery.Selection) {
		// Nested lists are rendered by their outermost list.
		if s.ParentsFiltered("ul, ol").Length() > 0 {
			return
		}
		tag := goquery.NodeName(s)
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}

		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(tag[1] - '0')
			result.WriteString(strings.Repeat("#", level) + " " + text + "\n\n")
		case "p":
			if s.ParentsFiltered("blockquote").Length() > 0 {
				return
			}
			result.WriteString(text + "\n\n")
		case "blockquote":
			result.WriteString("> " + text + "\n\n")
		case "pre":
			result.WriteString("```\n" + strings.TrimSpace(s.Text()) + "\n```\n\n")
		case "ul", "ol":
			s.ChildrenFiltered("li").Each(func(j int, li *goquery.Selection) {
				item := strings.Join(strings.Fields(li.Text()), " ")
				if item == "" {
					return
				}
				if tag == "ul" {
					result.WriteString("- " + item + "\n")
				} else {
					result.WriteString(fmt.Sprintf("%d. %s\n", j+1, item))
				}
			})
			result.WriteString("\n")
		}
	})

	return strings.TrimSpace(result.String())
}

func Markdown(doc *goquery.Document) string {
	converter := md.NewConverter("", true, nil)
	bodyHTML, err := doc.Find("body").Html()
	if err != nil {
		return ""
	}
	markdown, err := converter.ConvertString(bodyHTML)
	if err != nil {
		return ""
	}
	return markdown
}

// Paragraphs returns paragraphs long enough to count as content.
func Paragraphs(doc *goquery.Document) []string {
	var paragraphs []string
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) > 10 {
			paragraphs = append(paragraphs, text)
		}
	})
	return paragraphs
}
