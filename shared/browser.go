package shared

import (
	"context"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// RenderedPage is a page loaded by a real browser together with the cookies it was issued
type RenderedPage struct {
	URL     string
	HTML    string
	Cookies []*http.Cookie
}

// PageFetcher loads a page when a plain HTTP GET is rejected.
// It only renders the page; it never interacts with a challenge.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (*RenderedPage, error)
}

// HeadlessBrowser fetches pages through headless Chrome
type HeadlessBrowser struct {
	timeout time.Duration
}

// NewHeadlessBrowser creates a chromedp-backed page fetcher
func NewHeadlessBrowser(timeout time.Duration) *HeadlessBrowser {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HeadlessBrowser{timeout: timeout}
}

// FetchPage navigates to pageURL, waits for the body and returns its markup and cookies
func (b *HeadlessBrowser) FetchPage(ctx context.Context, pageURL string) (*RenderedPage, error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "HeadlessBrowser",
		"url":       pageURL,
	})

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("mute-audio", true),
		chromedp.UserAgent(DefaultUserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, b.timeout)
	defer cancelTimeout()

	var html string
	var browserCookies []*network.Cookie
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.ActionFunc(func(actionCtx context.Context) error {
			var cookieErr error
			browserCookies, cookieErr = network.GetCookies().WithURLs([]string{pageURL}).Do(actionCtx)
			return cookieErr
		}),
	)
	if err != nil {
		logger.WithError(err).Warn("Headless page fetch failed")
		return nil, ClassifyTransportError(err, "headless", "FetchPage")
	}

	page := &RenderedPage{URL: pageURL, HTML: html}
	for _, cookie := range browserCookies {
		page.Cookies = append(page.Cookies, convertCookie(cookie))
	}

	logger.WithField("cookies", len(page.Cookies)).Debug("Headless page fetched")
	return page, nil
}

func convertCookie(cookie *network.Cookie) *http.Cookie {
	converted := &http.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Domain:   cookie.Domain,
		Path:     cookie.Path,
		HttpOnly: cookie.HTTPOnly,
		Secure:   cookie.Secure,
	}
	if cookie.Expires > 0 {
		converted.Expires = time.Unix(int64(cookie.Expires), 0)
	}
	return converted
}
