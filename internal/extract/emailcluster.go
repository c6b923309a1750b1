package extract

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/facwatch/internal/model"
)

// minClusterEmails is the number of mailto links a page needs before
// email clustering is worth trusting; fewer usually means a contact
// footer, not a directory.
const minClusterEmails = 3

// EmailClusterStrategy anchors on mailto links and reads a person out of
// each link's enclosing card.
type EmailClusterStrategy struct{}

func (s *EmailClusterStrategy) Name() string { return StrategyEmailClustering }

func (s *EmailClusterStrategy) Extract(doc *goquery.Document, base *url.URL) []model.Candidate {
	links := doc.Find(`a[href^="mailto:"]`)
	if links.Length() < minClusterEmails {
		return nil
	}

	var cands []model.Candidate
	links.Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		email := emailFromMailto(href)
		if email == "" {
			return
		}
		parent := a.Closest(containerParents)
		if parent.Length() == 0 {
			return
		}
		if c := candidateFromContainer(parent, base, email); c != nil {
			cands = append(cands, *c)
		}
	})

	cands = dedupeByNameEmail(cands)
	return stamp(cands, StrategyEmailClustering, confCapped(85, 40, 5, len(cands)))
}
