// Package pipeline runs targets end to end: fetch, extract with tier
// escalation, enrich, diff against the stored snapshot, persist, notify.
package pipeline

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/extract"
	"github.com/sells-group/facwatch/internal/fetch"
	"github.com/sells-group/facwatch/internal/model"
	"github.com/sells-group/facwatch/internal/registry"
)

// TierResult is the winning extraction for one target: the records, the
// pages they came from, and which tier produced them.
type TierResult struct {
	Records []model.PersonRecord
	Pages   []fetch.Page
	Tier    int
}

// PageExtractor is the model-assisted tier-3 extractor.
type PageExtractor interface {
	Extract(ctx context.Context, pageHTML string) ([]model.Candidate, error)
}

// Escalator tries extraction tiers in cost order: static fetch with
// heuristics, then a rendered DOM with the same heuristics, then the
// model. It stops at the first tier that yields MinRecords validated
// people, otherwise keeps the best result seen.
type Escalator struct {
	Static     fetch.Fetcher
	Dynamic    fetch.Fetcher // nil disables tier 2
	Model      PageExtractor // nil disables tier 3
	MinRecords int
}

func (e *Escalator) Run(ctx context.Context, target model.Target) (*TierResult, error) {
	minRecords := e.MinRecords
	if minRecords <= 0 {
		minRecords = 3
	}
	log := zap.L().With(zap.String("target", target.ID))

	var best *TierResult
	var pages []fetch.Page
	var lastErr error

	// Tier 1: plain HTTP. Targets marked dynamic skip straight to the
	// rendered tier; their listings are not in the static HTML.
	if target.Mode != model.ModeDynamic {
		p, err := e.Static.Fetch(ctx, target)
		if err != nil {
			lastErr = err
			log.Warn("static fetch failed, escalating", zap.Error(err))
		} else {
			pages = p
			records := e.heuristics(p, target)
			log.Info("tier complete", zap.Int("tier", 1), zap.Int("records", len(records)))
			if len(records) >= minRecords {
				return &TierResult{Records: records, Pages: p, Tier: 1}, nil
			}
			best = better(best, &TierResult{Records: records, Pages: p, Tier: 1})
		}
	}

	// Tier 2: rendered DOM, same heuristics.
	if e.Dynamic != nil {
		p, err := e.Dynamic.Fetch(ctx, target)
		if err != nil {
			lastErr = err
			log.Warn("dynamic fetch failed", zap.Error(err))
		} else {
			pages = p
			records := e.heuristics(p, target)
			log.Info("tier complete", zap.Int("tier", 2), zap.Int("records", len(records)))
			if len(records) >= minRecords {
				return &TierResult{Records: records, Pages: p, Tier: 2}, nil
			}
			best = better(best, &TierResult{Records: records, Pages: p, Tier: 2})
		}
	}

	if len(pages) == 0 {
		if lastErr != nil {
			return nil, eris.Wrapf(lastErr, "escalate: no pages fetched for %s", target.ID)
		}
		return nil, eris.Errorf("escalate: no pages fetched for %s", target.ID)
	}

	// Tier 3: model-assisted, the expensive last resort. Runs over the
	// best pages available (rendered if tier 2 fetched them).
	if e.Model != nil {
		var cands []model.Candidate
		for _, pg := range pages {
			c, err := e.Model.Extract(ctx, pg.HTML)
			if err != nil {
				log.Warn("model extraction failed", zap.String("url", pg.URL), zap.Error(err))
				continue
			}
			cands = append(cands, c...)
		}
		records := validate(extract.Merge(cands))
		log.Info("tier complete", zap.Int("tier", 3), zap.Int("records", len(records)))
		best = better(best, &TierResult{Records: records, Pages: pages, Tier: 3})
	}

	if best == nil {
		return nil, eris.Errorf("escalate: no extraction produced records for %s", target.ID)
	}
	return best, nil
}

// heuristics runs the target's strategy pool over every page and merges
// candidates across pages, so a person split across page boundaries
// still collapses to one record.
func (e *Escalator) heuristics(pages []fetch.Page, target model.Target) []model.PersonRecord {
	pool := extract.NewPool(registry.Resolve(target.StrategyKey)...)

	var cands []model.Candidate
	for _, pg := range pages {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(pg.HTML))
		if err != nil {
			zap.L().Warn("page parse failed", zap.String("url", pg.URL), zap.Error(err))
			continue
		}
		base, err := url.Parse(pg.URL)
		if err != nil {
			base = nil
		}
		cands = append(cands, pool.Extract(doc, base)...)
	}
	return validate(extract.Merge(cands))
}

// validate drops merged candidates that carry no way to reach the
// person; a bare name is noise, not a contact.
func validate(cands []model.Candidate) []model.PersonRecord {
	var records []model.PersonRecord
	for _, c := range cands {
		rec := c.Record()
		if rec.Name == "" || !rec.HasContact() {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// better keeps whichever result found more people; ties go to the
// cheaper tier, which ran first.
func better(a, b *TierResult) *TierResult {
	if a == nil {
		return b
	}
	if b != nil && len(b.Records) > len(a.Records) {
		return b
	}
	return a
}
