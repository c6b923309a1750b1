// Package fetch acquires raw page content for a target, handling
// pagination and scroll-triggered lazy loading.
package fetch

import (
	"context"

	"github.com/sells-group/facwatch/internal/model"
)

// Page is one fetched page of a target, in pagination order.
type Page struct {
	URL   string
	HTML  string
	Index int
}

// Fetcher produces the ordered page contents for a target, covering all
// pagination pages. Dynamic implementations also resolve lazy loading
// before returning a page.
type Fetcher interface {
	Fetch(ctx context.Context, target model.Target) ([]Page, error)
	Name() string
}

// Options holds fetch tuning shared by both modes.
type Options struct {
	MaxPages     int
	PageDelay    int // milliseconds between successive page fetches
	TimeoutSecs  int
	MaxScrolls   int
	ScrollWaitMS int
	UserAgent    string
}

// DefaultUserAgent identifies the watcher to source servers.
const DefaultUserAgent = "Mozilla/5.0 (compatible; FacwatchBot/1.0)"

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = 10
	}
	if o.PageDelay <= 0 {
		o.PageDelay = 2000
	}
	if o.TimeoutSecs <= 0 {
		o.TimeoutSecs = 60
	}
	if o.MaxScrolls <= 0 {
		o.MaxScrolls = 15
	}
	if o.ScrollWaitMS <= 0 {
		o.ScrollWaitMS = 2000
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return o
}
