package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sells-group/facwatch/internal/model"
)

// minTitleHits is the number of academic-title mentions a page needs
// before this heuristic fires; fewer is likely prose, not a roster.
const minTitleHits = 3

// AcademicTitleStrategy anchors on academic rank mentions ("Professor",
// "Dr.") and reads a person out of each mention's enclosing block.
type AcademicTitleStrategy struct{}

func (s *AcademicTitleStrategy) Name() string { return StrategyAcademicTitles }

func (s *AcademicTitleStrategy) Extract(doc *goquery.Document, base *url.URL) []model.Candidate {
	var hits []*goquery.Selection
	doc.Find("h1, h2, h3, h4, p, li, td, span, em, strong, div").Each(func(_ int, sel *goquery.Selection) {
		if academicTitleRe.MatchString(ownText(sel)) {
			hits = append(hits, sel)
		}
	})
	if len(hits) < minTitleHits {
		return nil
	}

	var cands []model.Candidate
	for _, hit := range hits {
		parent := hit.Closest(containerParents + ", p")
		if parent.Length() == 0 {
			continue
		}
		if c := candidateFromContainer(parent, base, ""); c != nil {
			cands = append(cands, *c)
		}
	}

	cands = dedupeByNameEmail(cands)
	return stamp(cands, StrategyAcademicTitles, confCapped(75, 30, 5, len(cands)))
}

// ownText returns the text directly inside an element, excluding child
// elements, so a wrapping div does not match for its descendants.
func ownText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for child := sel.Get(0).FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			b.WriteString(child.Data)
		}
	}
	return b.String()
}
