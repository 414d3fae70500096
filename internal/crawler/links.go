package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractHrefs returns the href attribute of every anchor in the rendered
// body, in document order. Fragment-only, mailto and javascript links are
// dropped; duplicates are kept (the visited set dedups downstream).
func ExtractHrefs(body string) []string {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:") {
			return
		}
		hrefs = append(hrefs, href)
	})
	return hrefs
}
