package extract

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/model"
)

// Pool runs a set of strategies over a parsed page and collects their
// candidates in strategy order. Callers accumulate candidates across
// pagination pages and Merge once at the end.
type Pool struct {
	strategies []Strategy
}

// NewPool creates a pool; with no arguments it uses the builtin
// strategies in canonical order.
func NewPool(strategies ...Strategy) *Pool {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Pool{strategies: strategies}
}

// Extract runs every strategy against the page and returns all raw
// candidates, stamped with provenance, in strategy order.
func (p *Pool) Extract(doc *goquery.Document, base *url.URL) []model.Candidate {
	var cands []model.Candidate
	for _, s := range p.strategies {
		found := s.Extract(doc, base)
		zap.L().Debug("strategy pass",
			zap.String("strategy", s.Name()),
			zap.Int("candidates", len(found)))
		cands = append(cands, found...)
	}
	return cands
}
