package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/facwatch/internal/model"
)

// DefListStrategy reads people out of definition lists: each dt holds a
// name and the dd run that follows it holds the contact details. Older
// department sites render their rosters this way.
type DefListStrategy struct{}

func (s *DefListStrategy) Name() string { return StrategyDefLists }

func (s *DefListStrategy) Extract(doc *goquery.Document, base *url.URL) []model.Candidate {
	var cands []model.Candidate

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		var term, details *goquery.Selection

		flush := func() {
			if term == nil {
				return
			}
			if c := candidateFromDefPair(term, details, base); c != nil {
				cands = append(cands, *c)
			}
		}

		dl.Children().Each(func(_ int, child *goquery.Selection) {
			switch goquery.NodeName(child) {
			case "dt":
				flush()
				term = child
				details = nil
			case "dd":
				if term == nil {
					return
				}
				if details == nil {
					details = child
				} else {
					details = details.AddSelection(child)
				}
			}
		})
		flush()
	})

	cands = dedupeByNameEmail(cands)
	return stamp(cands, StrategyDefLists, confCapped(80, 45, 5, len(cands)))
}

// candidateFromDefPair builds a candidate from one dt and its dd run.
// The dt must read like a name and the dds must yield an email or a
// profile link; glossary-style lists fail both checks.
func candidateFromDefPair(term, details *goquery.Selection, base *url.URL) *model.Candidate {
	name := cleanText(term.Text())
	if len(strings.Fields(name)) < 2 || len(name) > 60 {
		name = nameFromText(term.Text())
	}
	if name == "" {
		return nil
	}

	cand := model.Candidate{
		Name:       name,
		ProfileURL: extractProfileURL(term, base),
	}
	if details != nil {
		cand.Email = extractEmail(details)
		cand.Phone = extractPhone(details)
		cand.Title = extractTitle(details)
		cand.Department = departmentFromText(details.Text())
		cand.ResearchInterests = extractResearch(details)
		if cand.ProfileURL == "" {
			cand.ProfileURL = extractProfileURL(details, base)
		}
	}

	if cand.Email == "" && cand.ProfileURL == "" {
		return nil
	}
	return &cand
}
