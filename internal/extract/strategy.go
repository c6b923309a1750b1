// Package extract turns fetched directory HTML into person candidates.
// Several independent heuristics scan each page; their candidates are
// merged by normalized name, preferring higher-confidence field values.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/facwatch/internal/model"
)

// Strategy names, in escalation reports and candidate provenance.
const (
	StrategyContainers      = "containers"
	StrategyEmailClustering = "email_clustering"
	StrategyAcademicTitles  = "academic_titles"
	StrategyTables          = "tables"
	StrategyDefLists        = "definition_lists"
	StrategyTextMining      = "text_mining"
	StrategyModel           = "ai_model"
)

// Strategy is one heuristic for locating people on a directory page.
// Implementations return zero candidates rather than errors: a page a
// heuristic cannot read is simply not evidence.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, base *url.URL) []model.Candidate
}

// DefaultStrategies returns the builtin heuristics in canonical order.
// Order matters: the merge step breaks confidence ties in favor of the
// earliest strategy.
func DefaultStrategies() []Strategy {
	return []Strategy{
		&ContainerStrategy{},
		&EmailClusterStrategy{},
		&AcademicTitleStrategy{},
		&TableStrategy{},
		&DefListStrategy{},
		&TextMiningStrategy{},
	}
}

// containerParents are the elements treated as person-card boundaries
// when walking up from a matched node.
const containerParents = "div, li, tr, article, section"

var containerDeptRe = regexp.MustCompile(`(?i)(biology|chemistry|physics|engineering|mathematics|computer|medicine|microbiology)`)

// candidateFromContainer reads one person out of a card-like element.
// Returns nil unless it finds a name plus at least one of email or
// profile link; a bare name is too weak to count as a person.
func candidateFromContainer(sel *goquery.Selection, base *url.URL, knownEmail string) *model.Candidate {
	name := extractName(sel)
	if name == "" {
		return nil
	}

	email := knownEmail
	if email == "" {
		email = extractEmail(sel)
	}
	profileURL := extractProfileURL(sel, base)
	if email == "" && profileURL == "" {
		return nil
	}

	department := ""
	if m := containerDeptRe.FindString(sel.AttrOr("class", "")); m != "" {
		department = strings.ToUpper(m[:1]) + strings.ToLower(m[1:])
	}
	if department == "" {
		department = departmentFromText(sel.Text())
	}

	return &model.Candidate{
		Name:              name,
		Title:             extractTitle(sel),
		Email:             email,
		Phone:             extractPhone(sel),
		ProfileURL:        profileURL,
		Department:        department,
		ResearchInterests: extractResearch(sel),
	}
}

// stamp sets provenance and confidence on a strategy's candidates.
func stamp(cands []model.Candidate, strategy string, confidence float64) []model.Candidate {
	for i := range cands {
		cands[i].Strategy = strategy
		cands[i].Confidence = confidence
	}
	return cands
}

// dedupeByNameEmail drops candidates repeating an already-seen
// normalized name+email pair, keeping first occurrences.
func dedupeByNameEmail(cands []model.Candidate) []model.Candidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		key := model.NormalizeName(c.Name) + "|" + model.NormalizeEmail(c.Email)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func confCapped(limit, base, perResult float64, n int) float64 {
	conf := base + perResult*float64(n)
	if conf > limit {
		return limit
	}
	return conf
}
