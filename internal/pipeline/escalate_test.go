package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/facwatch/internal/fetch"
	"github.com/sells-group/facwatch/internal/model"
)

// directoryPage renders n faculty cards that the container heuristics
// extract cleanly.
func directoryPage(n int) string {
	page := `<html><body><div class="faculty-list">`
	for i := 0; i < n; i++ {
		page += fmt.Sprintf(`<div class="faculty-card">
			<h3>Person Number%c</h3>
			<a href="mailto:person%d@example.edu">Email</a>
			<p class="title">Professor</p>
		</div>`, 'A'+rune(i), i)
	}
	return page + `</div></body></html>`
}

type stubFetcher struct {
	pages []fetch.Page
	err   error
	calls int
}

func (s *stubFetcher) Fetch(ctx context.Context, target model.Target) ([]fetch.Page, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.pages, nil
}

func (s *stubFetcher) Name() string { return "stub" }

type stubModel struct {
	cands []model.Candidate
	err   error
	calls int
}

func (s *stubModel) Extract(ctx context.Context, pageHTML string) ([]model.Candidate, error) {
	s.calls++
	return s.cands, s.err
}

func pageOf(html string) []fetch.Page {
	return []fetch.Page{{URL: "https://example.edu/people", HTML: html, Index: 0}}
}

func staticTarget() model.Target {
	return model.Target{ID: "physics", URL: "https://example.edu/people", Mode: model.ModeStatic, Enabled: true}
}

func TestEscalator_Tier1ShortCircuits(t *testing.T) {
	static := &stubFetcher{pages: pageOf(directoryPage(4))}
	dynamic := &stubFetcher{}
	mdl := &stubModel{}

	e := &Escalator{Static: static, Dynamic: dynamic, Model: mdl, MinRecords: 3}
	result, err := e.Run(context.Background(), staticTarget())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Tier)
	assert.Len(t, result.Records, 4)
	// The cheaper tier satisfied the threshold, so nothing else ran.
	assert.Equal(t, 0, dynamic.calls)
	assert.Equal(t, 0, mdl.calls)
}

func TestEscalator_StaticFailureFallsToDynamic(t *testing.T) {
	static := &stubFetcher{err: fmt.Errorf("blocked")}
	dynamic := &stubFetcher{pages: pageOf(directoryPage(3))}

	e := &Escalator{Static: static, Dynamic: dynamic, MinRecords: 3}
	result, err := e.Run(context.Background(), staticTarget())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Tier)
	assert.Len(t, result.Records, 3)
}

func TestEscalator_SparseStaticEscalatesToDynamic(t *testing.T) {
	static := &stubFetcher{pages: pageOf(directoryPage(1))}
	dynamic := &stubFetcher{pages: pageOf(directoryPage(5))}

	e := &Escalator{Static: static, Dynamic: dynamic, MinRecords: 3}
	result, err := e.Run(context.Background(), staticTarget())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Tier)
	assert.Len(t, result.Records, 5)
	assert.Equal(t, 1, static.calls)
	assert.Equal(t, 1, dynamic.calls)
}

func TestEscalator_ModelTierRunsLast(t *testing.T) {
	// Nothing extractable by heuristics: a wall of prose.
	blank := `<html><body><p>Welcome to our department homepage.</p></body></html>`
	static := &stubFetcher{pages: pageOf(blank)}
	mdl := &stubModel{cands: []model.Candidate{
		{Name: "Jane Smith", Email: "jsmith@example.edu", Strategy: "model_assisted", Confidence: 95},
		{Name: "Robert Jones", Email: "rjones@example.edu", Strategy: "model_assisted", Confidence: 95},
		{Name: "Alice Brown", Email: "abrown@example.edu", Strategy: "model_assisted", Confidence: 95},
	}}

	e := &Escalator{Static: static, Model: mdl, MinRecords: 3}
	result, err := e.Run(context.Background(), staticTarget())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Tier)
	assert.Len(t, result.Records, 3)
	assert.Equal(t, 1, mdl.calls)
}

func TestEscalator_ModelRecordsWithoutContactDropped(t *testing.T) {
	blank := `<html><body><p>Nothing here.</p></body></html>`
	static := &stubFetcher{pages: pageOf(blank)}
	mdl := &stubModel{cands: []model.Candidate{
		{Name: "Jane Smith", Email: "jsmith@example.edu", Confidence: 95},
		{Name: "No Contact", Confidence: 95},
	}}

	e := &Escalator{Static: static, Model: mdl, MinRecords: 3}
	result, err := e.Run(context.Background(), staticTarget())
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Jane Smith", result.Records[0].Name)
}

func TestEscalator_DynamicModeSkipsStatic(t *testing.T) {
	static := &stubFetcher{}
	dynamic := &stubFetcher{pages: pageOf(directoryPage(3))}

	e := &Escalator{Static: static, Dynamic: dynamic, MinRecords: 3}
	target := staticTarget()
	target.Mode = model.ModeDynamic

	result, err := e.Run(context.Background(), target)
	require.NoError(t, err)

	assert.Equal(t, 0, static.calls)
	assert.Equal(t, 2, result.Tier)
}

func TestEscalator_AllFetchesFail(t *testing.T) {
	static := &stubFetcher{err: fmt.Errorf("timeout")}
	dynamic := &stubFetcher{err: fmt.Errorf("render failed")}

	e := &Escalator{Static: static, Dynamic: dynamic, MinRecords: 3}
	_, err := e.Run(context.Background(), staticTarget())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pages fetched")
}

func TestEscalator_KeepsBestBelowThreshold(t *testing.T) {
	static := &stubFetcher{pages: pageOf(directoryPage(2))}
	dynamic := &stubFetcher{pages: pageOf(directoryPage(1))}

	e := &Escalator{Static: static, Dynamic: dynamic, MinRecords: 10}
	result, err := e.Run(context.Background(), staticTarget())
	require.NoError(t, err)

	// Neither tier hit the threshold; the larger result wins, ties
	// would keep the cheaper tier.
	assert.Equal(t, 1, result.Tier)
	assert.Len(t, result.Records, 2)
}
