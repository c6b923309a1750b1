package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/facwatch/internal/model"
	"github.com/sells-group/facwatch/internal/resilience"
)

const maxBodyBytes = 2 * 1024 * 1024

// StaticFetcher fetches directory pages via net/http and follows
// pagination links. Free, no browser involved; insufficient for pages
// that render their listing with JavaScript.
type StaticFetcher struct {
	client *http.Client
	opts   Options

	// Retry governs per-page retry; overridable in tests.
	Retry resilience.RetryConfig
}

// NewStaticFetcher creates a StaticFetcher with sensible transport
// timeouts.
func NewStaticFetcher(opts Options) *StaticFetcher {
	opts = opts.withDefaults()
	return &StaticFetcher{
		opts: opts,
		client: &http.Client{
			Timeout: time.Duration(opts.TimeoutSecs) * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		Retry: resilience.DefaultRetryConfig(),
	}
}

func (f *StaticFetcher) Name() string { return "static_http" }

// Fetch retrieves the target's first page and every pagination page
// after it, politely spaced. A failure on the first page fails the
// fetch; a failure on a later page truncates the result to the pages
// already collected.
func (f *StaticFetcher) Fetch(ctx context.Context, target model.Target) ([]Page, error) {
	return paginate(ctx, target, f.opts, f.Retry, f.fetchPage)
}

func (f *StaticFetcher) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", classify(pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", classify(pageURL, err)
	}

	if blocked, blockType := DetectBlock(resp, body); blocked {
		return "", &Error{Kind: KindBlocked, URL: pageURL, Err: eris.Errorf("anti-bot protection (%s)", blockType)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindBlocked, URL: pageURL, Err: eris.Errorf("status %d", resp.StatusCode)}
	}

	return string(body), nil
}

// paginate drives the shared pagination loop: fetch a page (with
// retries), discover the next link, respect the politeness delay, stop
// at the page cap or on a revisited URL.
func paginate(
	ctx context.Context,
	target model.Target,
	opts Options,
	retry resilience.RetryConfig,
	fetchOne func(ctx context.Context, pageURL string) (string, error),
) ([]Page, error) {
	retry.ShouldRetry = IsRetryable
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("fetch", "page")
	}

	limiter := rate.NewLimiter(rate.Every(time.Duration(opts.PageDelay)*time.Millisecond), 1)
	visited := make(map[string]bool)

	var pages []Page
	nextURL := target.URL
	for i := 0; i < opts.MaxPages && nextURL != ""; i++ {
		if visited[nextURL] {
			zap.L().Debug("pagination loop detected, stopping",
				zap.String("target", target.ID),
				zap.String("url", nextURL))
			break
		}
		visited[nextURL] = true

		if err := limiter.Wait(ctx); err != nil {
			return pages, eris.Wrap(err, "fetch: rate limit wait")
		}

		pageURL := nextURL
		html, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
			return fetchOne(ctx, pageURL)
		})
		if err != nil {
			if i == 0 {
				return nil, eris.Wrapf(err, "fetch: target %s first page", target.ID)
			}
			zap.L().Warn("pagination page failed, keeping earlier pages",
				zap.String("target", target.ID),
				zap.String("url", pageURL),
				zap.Int("pages_collected", len(pages)),
				zap.Error(err))
			break
		}

		pages = append(pages, Page{URL: pageURL, HTML: html, Index: i})
		nextURL = discoverNext(pageURL, html, target.ID)
	}

	return pages, nil
}

func discoverNext(pageURL, html, targetID string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		zap.L().Debug("pagination parse failed",
			zap.String("target", targetID),
			zap.Error(err))
		return ""
	}
	return NextPageURL(doc, base)
}
