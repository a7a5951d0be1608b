package services

import (
	"bytes"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"codeberg.org/readeck/go-readability/v2"
)

// htmlToText extracts the main content of an HTML document as Markdown.
// Readability isolates the article body first; when it cannot (fragment
// pages, bare markup), the whole document is converted, and as a last
// resort the visible text is scraped directly.
func htmlToText(htmlContent string) (string, error) {
	base := &url.URL{Scheme: "https", Host: "localhost"}

	if article, err := readability.FromReader(strings.NewReader(htmlContent), base); err == nil {
		var buf bytes.Buffer
		if err := article.RenderHTML(&buf); err == nil {
			if md, err := htmltomarkdown.ConvertString(buf.String()); err == nil && strings.TrimSpace(md) != "" {
				return md, nil
			}
		}
	}

	if md, err := htmltomarkdown.ConvertString(htmlContent); err == nil && strings.TrimSpace(md) != "" {
		return md, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Text()), nil
}

// isHTMLContent recognizes HTML uploads by declared content type or filename.
func isHTMLContent(contentType, filename string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	lowered := strings.ToLower(filename)
	return strings.HasSuffix(lowered, ".html") || strings.HasSuffix(lowered, ".htm")
}
