package fetch

import (
	"context"
	"time"
)

// scrollUntilStable scrolls to the bottom of a page repeatedly until the
// document height stops growing. It stops after two consecutive
// measurements with no height change, or after maxScrolls scrolls.
// Returns the number of scrolls performed.
func scrollUntilStable(
	ctx context.Context,
	scroll func(ctx context.Context) error,
	height func(ctx context.Context) (int64, error),
	wait time.Duration,
	maxScrolls int,
) (int, error) {
	prev, err := height(ctx)
	if err != nil {
		return 0, err
	}

	stable := 0
	for i := 0; i < maxScrolls; i++ {
		if err := scroll(ctx); err != nil {
			return i, err
		}

		select {
		case <-ctx.Done():
			return i, ctx.Err()
		case <-time.After(wait):
		}

		h, err := height(ctx)
		if err != nil {
			return i + 1, err
		}
		if h == prev {
			stable++
			if stable >= 2 {
				return i + 1, nil
			}
			continue
		}
		stable = 0
		prev = h
	}

	return maxScrolls, nil
}
