package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const maxExcerpt = 500

var markup = regexp.MustCompile(`<(?:[a-zA-Z][a-zA-Z0-9-]*|/[a-zA-Z]|!--)[^>]*>`)

// excerpt returns the surrounding text reduced to plain text and bounded to
// maxExcerpt runes.
func excerpt(s string) string {
	if markup.MatchString(s) {
		s = htmlText(s)
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxExcerpt {
		s = string(r[:maxExcerpt])
	}
	return s
}

// htmlText strips markup from fragments sent by browser bridges.
func htmlText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script, style, noscript").Remove()
	var parts []string
	doc.Find("label, legend, h1, h2, h3, h4, p, span, div, li, td, th, option").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 0 {
			return
		}
		if t := strings.TrimSpace(sel.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return doc.Text()
	}
	return strings.Join(parts, " ")
}

// cleanLabel decodes entities and collapses whitespace.
func cleanLabel(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// containsKeyword reports whether kw occurs in text. Short ASCII keywords
// must stand as whole words, so "cv" does not match "cvs".
func containsKeyword(text, kw string) bool {
	if len(kw) > 3 || !isASCII(kw) {
		return strings.Contains(text, kw)
	}
	for i := 0; ; {
		j := strings.Index(text[i:], kw)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(kw)
		if boundary(text, start-1) && boundary(text, end) {
			return true
		}
		i = start + 1
	}
}

func containsAny(text string, kws []string) bool {
	for _, kw := range kws {
		if containsKeyword(text, kw) {
			return true
		}
	}
	return false
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := rune(s[i])
	return c >= 0x80 || !(unicode.IsLetter(c) || unicode.IsDigit(c))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
