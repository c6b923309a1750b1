package fetch

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/model"
	"github.com/sells-group/facwatch/internal/resilience"
)

// DynamicFetcher renders directory pages in a headless browser so that
// JavaScript-populated listings and lazy-loaded rows are present in the
// returned HTML. Requires Chrome/Chromium on the host.
type DynamicFetcher struct {
	opts Options

	// render is swapped out in tests to avoid a real browser.
	render func(ctx context.Context, pageURL string) (string, error)

	// Retry governs per-page retry; overridable in tests.
	Retry resilience.RetryConfig
}

// NewDynamicFetcher creates a DynamicFetcher.
func NewDynamicFetcher(opts Options) *DynamicFetcher {
	f := &DynamicFetcher{
		opts:  opts.withDefaults(),
		Retry: resilience.DefaultRetryConfig(),
	}
	f.render = f.renderPage
	return f
}

func (f *DynamicFetcher) Name() string { return "dynamic_browser" }

// Fetch renders the target's first page and every pagination page after
// it. Each page is scrolled to the bottom until its height stabilizes,
// so infinite-scroll listings are fully materialized before extraction.
func (f *DynamicFetcher) Fetch(ctx context.Context, target model.Target) ([]Page, error) {
	return paginate(ctx, target, f.opts, f.Retry, f.render)
}

func (f *DynamicFetcher) renderPage(ctx context.Context, pageURL string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(f.opts.UserAgent),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, time.Duration(f.opts.TimeoutSecs)*time.Second)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			scrolls, err := scrollUntilStable(ctx,
				func(ctx context.Context) error {
					return chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil).Do(ctx)
				},
				func(ctx context.Context) (int64, error) {
					var h int64
					err := chromedp.Evaluate(`document.body.scrollHeight`, &h).Do(ctx)
					return h, err
				},
				time.Duration(f.opts.ScrollWaitMS)*time.Millisecond,
				f.opts.MaxScrolls,
			)
			if err != nil {
				return err
			}
			zap.L().Debug("scroll settled",
				zap.String("url", pageURL),
				zap.Int("scrolls", scrolls))
			return nil
		}),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", classify(pageURL, err)
	}
	return html, nil
}
