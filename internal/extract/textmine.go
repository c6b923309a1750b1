package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/facwatch/internal/model"
)

// TextMiningStrategy is the loosest heuristic: find every email address
// in the page text and pair it with a nearby capitalized name. Low
// confidence; it mostly backstops pages with no usable structure.
type TextMiningStrategy struct{}

func (s *TextMiningStrategy) Name() string { return StrategyTextMining }

func (s *TextMiningStrategy) Extract(doc *goquery.Document, _ *url.URL) []model.Candidate {
	body := doc.Find("body")
	if body.Length() == 0 {
		return nil
	}

	emails := emailRe.FindAllString(DeobfuscateEmails(body.Text()), -1)

	var cands []model.Candidate
	seen := make(map[string]bool, len(emails))
	for _, email := range emails {
		if seen[email] {
			continue
		}
		seen[email] = true

		host := smallestContaining(body, email)
		if host == nil {
			continue
		}
		name := nameFromText(host.Text())
		if name == "" {
			continue
		}
		cands = append(cands, model.Candidate{Name: name, Email: email})
	}

	return stamp(cands, StrategyTextMining, confCapped(50, 20, 3, len(cands)))
}

// smallestContaining returns the tightest block element whose text holds
// the email, so the name search stays local to one person.
func smallestContaining(body *goquery.Selection, email string) *goquery.Selection {
	var best *goquery.Selection
	bestLen := -1
	body.Find("div, p, li, td").Each(func(_ int, sel *goquery.Selection) {
		text := DeobfuscateEmails(sel.Text())
		if !strings.Contains(text, email) {
			return
		}
		if bestLen == -1 || len(text) < bestLen {
			best = sel
			bestLen = len(text)
		}
	})
	return best
}
