// Package collyfetcher implements pageviews.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// Default request settings. The analytics page serves a reduced page to
// clients that do not look like a desktop browser.
const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"
	DefaultAccept    = "text/html,application/xhtml+xml"
	defaultTimeout   = 30 * time.Second
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Accept    string
	Timeout   time.Duration
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("fetch failed: %d", e.Code)
	}
	return fmt.Sprintf("fetch failed: %d %s", e.Code, e.Status)
}

// Fetcher issues a single GET per call through a Colly collector.
type Fetcher struct {
	cfg           Config
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

type fetchResult struct {
	statusCode int
	body       []byte
	err        error
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Accept == "" {
		cfg.Accept = DefaultAccept
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	// Non-2xx responses reach OnResponse so the status can be reported, and
	// the shared visited store must not reject a second fetch of the same URL.
	// Bodies are read in full; colly truncates at 10 MiB by default.
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(0),
	)
	transport := newHTTPTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch performs the GET and returns the body of a 2xx response.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var result fetchResult
	collector := f.buildCollector(ctx)
	f.configureCollectorHooks(collector, &result)

	if err := f.runCollector(ctx, collector, url, &result); err != nil {
		return nil, err
	}
	if result.statusCode < http.StatusOK || result.statusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: result.statusCode, Status: http.StatusText(result.statusCode)}
	}
	return result.body, nil
}

func (f *Fetcher) buildCollector(ctx context.Context) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.Context = ctx
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.WithTransport(f.transport)
	return collector
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, result *fetchResult) {
	hooks.OnRequest(func(r *colly.Request) {
		// Colly fills in Accept: */* before request callbacks run.
		r.Headers.Set("Accept", f.cfg.Accept)
		r.Headers.Set("User-Agent", f.cfg.UserAgent)
	})

	hooks.OnResponse(func(r *colly.Response) {
		result.statusCode = r.StatusCode
		result.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		result.err = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, result *fetchResult) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if result.err != nil {
			return fmt.Errorf("colly response failed: %w", result.err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
