package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage simulates a lazy-loading page: the document height grows on
// each scroll until growth stops, then stays flat.
type fakePage struct {
	height  int64
	growFor int
	scrolls int
}

func (p *fakePage) scroll(context.Context) error {
	p.scrolls++
	if p.scrolls <= p.growFor {
		p.height += 400
	}
	return nil
}

func (p *fakePage) measure(context.Context) (int64, error) {
	return p.height, nil
}

func TestScrollUntilStable_StopsTwoAfterConvergence(t *testing.T) {
	// Height grows for 5 scrolls, then stabilizes. The loop needs two
	// consecutive flat measurements to trust the page is done, so it
	// performs exactly 5+2 scrolls.
	page := &fakePage{height: 1000, growFor: 5}
	scrolls, err := scrollUntilStable(context.Background(), page.scroll, page.measure, time.Millisecond, 15)
	require.NoError(t, err)
	assert.Equal(t, 7, scrolls)
	assert.Equal(t, 7, page.scrolls)
}

func TestScrollUntilStable_StaticPageStopsEarly(t *testing.T) {
	page := &fakePage{height: 800, growFor: 0}
	scrolls, err := scrollUntilStable(context.Background(), page.scroll, page.measure, time.Millisecond, 15)
	require.NoError(t, err)
	assert.Equal(t, 2, scrolls)
}

func TestScrollUntilStable_CapsAtMaxScrolls(t *testing.T) {
	// Endless feed: height grows on every scroll.
	page := &fakePage{height: 1000, growFor: 1 << 30}
	scrolls, err := scrollUntilStable(context.Background(), page.scroll, page.measure, time.Millisecond, 15)
	require.NoError(t, err)
	assert.Equal(t, 15, scrolls)
}

func TestScrollUntilStable_SingleFlatReadingDoesNotStop(t *testing.T) {
	// Grows, pauses for one reading, then grows again. One flat reading
	// alone must not terminate the loop.
	heights := []int64{1000, 1400, 1400, 1800, 1800, 1800}
	idx := 0
	measure := func(context.Context) (int64, error) {
		h := heights[idx]
		if idx < len(heights)-1 {
			idx++
		}
		return h, nil
	}
	scroll := func(context.Context) error { return nil }

	scrolls, err := scrollUntilStable(context.Background(), scroll, measure, time.Millisecond, 15)
	require.NoError(t, err)
	assert.Equal(t, 5, scrolls)
}

func TestScrollUntilStable_PropagatesMeasureError(t *testing.T) {
	measure := func(context.Context) (int64, error) {
		return 0, errors.New("target closed")
	}
	scroll := func(context.Context) error { return nil }

	_, err := scrollUntilStable(context.Background(), scroll, measure, time.Millisecond, 15)
	assert.Error(t, err)
}

func TestScrollUntilStable_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	page := &fakePage{height: 1000, growFor: 1 << 30}
	scroll := func(c context.Context) error {
		cancel()
		return page.scroll(c)
	}

	_, err := scrollUntilStable(ctx, scroll, page.measure, 50*time.Millisecond, 15)
	assert.ErrorIs(t, err, context.Canceled)
}
