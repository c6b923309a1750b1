package registry

import (
	"net/url"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/facwatch/internal/extract"
	"github.com/sells-group/facwatch/internal/model"
)

type tableOnly struct{}

func (tableOnly) Name() string { return "table_only" }
func (tableOnly) Extract(_ *goquery.Document, _ *url.URL) []model.Candidate {
	return nil
}

func TestResolve_EmptyKeyReturnsDefaults(t *testing.T) {
	strategies := Resolve("")
	require.Len(t, strategies, len(extract.DefaultStrategies()))
	assert.Equal(t, extract.StrategyContainers, strategies[0].Name())
}

func TestResolve_UnknownKeyFallsBack(t *testing.T) {
	strategies := Resolve("no-such-university")
	assert.Len(t, strategies, len(extract.DefaultStrategies()))
}

func TestRegisterAndResolve(t *testing.T) {
	Register("tables-only-site", func() []extract.Strategy {
		return []extract.Strategy{tableOnly{}}
	})

	strategies := Resolve("tables-only-site")
	require.Len(t, strategies, 1)
	assert.Equal(t, "table_only", strategies[0].Name())

	assert.Contains(t, Keys(), "tables-only-site")
}
