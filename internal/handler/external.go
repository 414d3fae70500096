package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/edtools/canvas-crawler/internal/crawler"
)

// externalLinkHandler fetches an external URL once and records the outcome
// for auditing. Its records are leaves: the engine never expands them.
type externalLinkHandler struct {
	base
	web    crawler.WebFetcher
	hasher crawler.Hasher
}

// fetchedLink pairs the requested URL with the fetch result.
type fetchedLink struct {
	URL  string
	Page crawler.WebPage
}

func (h *externalLinkHandler) fetch(ctx context.Context, item crawler.WorkItem) (any, error) {
	target, ok := crawler.StringID(item.ItemID)
	if !ok {
		return nil, fmt.Errorf("external link item id %v is not a URL", item.ItemID)
	}
	return &fetchedLink{URL: target, Page: h.web.FetchHTML(ctx, target)}, nil
}

func (h *externalLinkHandler) parse(item crawler.WorkItem, raw any) (*crawler.Record, error) {
	link, ok := raw.(*fetchedLink)
	if !ok {
		return nil, fmt.Errorf("unexpected payload %T", raw)
	}

	digest, err := h.hasher.Hash([]byte(link.URL))
	if err != nil {
		return nil, fmt.Errorf("hash url: %w", err)
	}
	if len(digest) > 12 {
		digest = digest[:12]
	}

	fetchOK := link.Page.OK
	return &crawler.Record{
		Type:       crawler.TypeExternalLink,
		ID:         digest,
		Title:      pageTitle(link.Page.Text),
		URL:        link.URL,
		FinalURL:   link.Page.FinalURL,
		Depth:      item.Depth,
		FetchOK:    &fetchOK,
		HTTPStatus: link.Page.StatusCode,
		FetchError: link.Page.Error,
	}, nil
}

// pageTitle extracts the document title from fetched HTML, if any.
func pageTitle(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
