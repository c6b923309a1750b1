package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sells-group/facwatch/internal/model"
)

// personKeywords mark elements that likely wrap a person card: class, id,
// or data-* attributes containing any of these.
var personKeywords = []string{
	"faculty", "professor", "people", "person", "staff",
	"member", "team", "bio", "profile", "card", "researcher",
	"investigator", "scientist", "personnel", "directory",
	"employee", "academic", "scholar", "expert",
}

var containerAttrs = []string{"class", "id", "data-type", "data-role", "data-category"}

// ContainerStrategy finds person cards by directory-flavored class, id,
// and data-* attribute names.
type ContainerStrategy struct{}

func (s *ContainerStrategy) Name() string { return StrategyContainers }

func (s *ContainerStrategy) Extract(doc *goquery.Document, base *url.URL) []model.Candidate {
	seen := make(map[*html.Node]bool)
	var cands []model.Candidate

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		node := sel.Get(0)
		if seen[node] || !hasPersonKeyword(sel) {
			return
		}
		seen[node] = true
		if c := candidateFromContainer(sel, base, ""); c != nil {
			cands = append(cands, *c)
		}
	})

	cands = dedupeByNameEmail(cands)
	return stamp(cands, StrategyContainers, confCapped(90, 50, 5, len(cands)))
}

func hasPersonKeyword(sel *goquery.Selection) bool {
	for _, attr := range containerAttrs {
		val, ok := sel.Attr(attr)
		if !ok || val == "" {
			continue
		}
		lower := strings.ToLower(val)
		for _, kw := range personKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
