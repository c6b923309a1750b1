package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/facwatch/internal/model"
)

func TestDynamicFetcher_PaginatesRenderedPages(t *testing.T) {
	rendered := map[string]string{
		"https://uni.edu/faculty":        `<html><body><p>Rendered one</p><a rel="next" href="/faculty?page=2">2</a></body></html>`,
		"https://uni.edu/faculty?page=2": `<html><body><p>Rendered two</p></body></html>`,
	}

	f := NewDynamicFetcher(fastOpts())
	f.Retry = fastFetchRetry()
	f.render = func(_ context.Context, pageURL string) (string, error) {
		html, ok := rendered[pageURL]
		if !ok {
			return "", &Error{Kind: KindNetwork, URL: pageURL}
		}
		return html, nil
	}

	pages, err := f.Fetch(context.Background(), model.Target{ID: "phys", URL: "https://uni.edu/faculty", Mode: model.ModeDynamic})
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Contains(t, pages[0].HTML, "Rendered one")
	assert.Contains(t, pages[1].HTML, "Rendered two")
}

func TestDynamicFetcher_FirstPageRenderFailure(t *testing.T) {
	f := NewDynamicFetcher(fastOpts())
	f.Retry = fastFetchRetry()
	f.render = func(_ context.Context, pageURL string) (string, error) {
		return "", &Error{Kind: KindTimeout, URL: pageURL}
	}

	_, err := f.Fetch(context.Background(), model.Target{ID: "phys", URL: "https://uni.edu/faculty"})
	require.Error(t, err)
	assert.Equal(t, KindTimeout, Kind(err))
}

func TestDynamicFetcher_Name(t *testing.T) {
	assert.Equal(t, "dynamic_browser", NewDynamicFetcher(Options{}).Name())
}
