// Package webclient provides a one-shot HTML fetcher for external links,
// built on the Colly collector.
package webclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/crawler"
)

// Client implements crawler.WebFetcher. Each fetch clones the base collector,
// so per-request callbacks never accumulate.
type Client struct {
	base   *colly.Collector
	logger *zap.Logger
}

// New constructs a Client with the given user agent and request timeout.
func New(userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	base := colly.NewCollector(colly.UserAgent(userAgent))
	base.AllowURLRevisit = true
	base.SetRequestTimeout(timeout)
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
	})
	return &Client{base: base, logger: logger}
}

// FetchHTML fetches rawURL synchronously. Failures are reported in the
// returned page rather than as an error, so a dead link still yields a
// complete audit result.
func (c *Client) FetchHTML(ctx context.Context, rawURL string) crawler.WebPage {
	page := crawler.WebPage{FinalURL: rawURL}
	if err := ctx.Err(); err != nil {
		page.Error = err.Error()
		return page
	}

	collector := c.base.Clone()
	collector.OnResponse(func(r *colly.Response) {
		page.StatusCode = r.StatusCode
		page.Text = string(r.Body)
		page.FinalURL = r.Request.URL.String()
		page.ContentType = r.Headers.Get("Content-Type")
		page.OK = r.StatusCode >= 200 && r.StatusCode < 300
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			page.StatusCode = r.StatusCode
		}
		if err == nil {
			err = errors.New("unknown fetch error")
		}
		page.Error = err.Error()
	})

	if err := collector.Visit(rawURL); err != nil && page.Error == "" {
		page.Error = err.Error()
	}
	collector.Wait()

	if !page.OK {
		c.logger.Debug("external fetch not ok",
			zap.String("url", rawURL),
			zap.Int("status", page.StatusCode),
			zap.String("error", page.Error),
		)
	}
	return page
}
