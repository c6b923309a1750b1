package pipeline

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/facwatch/internal/config"
	"github.com/sells-group/facwatch/internal/extract"
	"github.com/sells-group/facwatch/internal/fetch"
	"github.com/sells-group/facwatch/internal/model"
)

const maxProfileBodyBytes = 2 << 20

// Enricher backfills sparse records by visiting their profile pages.
// Enrichment is best effort: a failed profile fetch leaves the record
// as extracted, and the per-run fetch cap bounds the extra traffic.
type Enricher struct {
	client     *http.Client
	limiter    *rate.Limiter
	maxFetches int
	userAgent  string
}

func NewEnricher(cfg config.EnrichConfig) *Enricher {
	timeout := cfg.ProfileTimeoutSecs
	if timeout <= 0 {
		timeout = 30
	}
	delay := cfg.ProfileDelayMillis
	if delay <= 0 {
		delay = 500
	}
	maxFetches := cfg.MaxProfileFetches
	if maxFetches <= 0 {
		maxFetches = 25
	}
	return &Enricher{
		client:     &http.Client{Timeout: time.Duration(timeout) * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Duration(delay)*time.Millisecond), 1),
		maxFetches: maxFetches,
		userAgent:  fetch.DefaultUserAgent,
	}
}

// Enrich visits profile pages for records that have a URL but lack an
// email or phone and merges anything found into the empty fields.
// Existing values are never overwritten.
func (e *Enricher) Enrich(ctx context.Context, records []model.PersonRecord) []model.PersonRecord {
	out := make([]model.PersonRecord, len(records))
	copy(out, records)

	fetched := 0
	for i := range out {
		if fetched >= e.maxFetches {
			zap.L().Debug("profile fetch cap reached", zap.Int("cap", e.maxFetches))
			break
		}
		if out[i].ProfileURL == "" || (out[i].Email != "" && out[i].Phone != "") {
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			break
		}
		fetched++

		details, err := e.fetchProfile(ctx, out[i].ProfileURL)
		if err != nil {
			zap.L().Warn("profile enrichment failed",
				zap.String("name", out[i].Name),
				zap.String("url", out[i].ProfileURL),
				zap.Error(err))
			continue
		}
		mergeProfile(&out[i], details)
	}
	return out
}

func (e *Enricher) fetchProfile(ctx context.Context, profileURL string) (model.PersonRecord, error) {
	var zero model.PersonRecord

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return zero, err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBodyBytes))
	if err != nil {
		return zero, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	return extract.ProfileDetails(doc), nil
}

// mergeProfile fills empty fields only.
func mergeProfile(rec *model.PersonRecord, details model.PersonRecord) {
	if rec.Email == "" {
		rec.Email = details.Email
	}
	if rec.Phone == "" {
		rec.Phone = details.Phone
	}
	if rec.ResearchInterests == "" {
		rec.ResearchInterests = details.ResearchInterests
	}
	if rec.Department == "" {
		rec.Department = details.Department
	}
}
