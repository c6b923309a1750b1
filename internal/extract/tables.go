package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/facwatch/internal/model"
)

// TableStrategy reads people out of roster tables, mapping columns by
// header text and falling back to generic card extraction per row.
type TableStrategy struct{}

func (s *TableStrategy) Name() string { return StrategyTables }

type tableColumns struct {
	name, email, title, phone, dept int
}

func (s *TableStrategy) Extract(doc *goquery.Document, base *url.URL) []model.Candidate {
	var cands []model.Candidate

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		cols := mapColumns(rows.First())
		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			if c := candidateFromRow(row, cols, base); c != nil {
				cands = append(cands, *c)
			}
		})
	})

	cands = dedupeByNameEmail(cands)

	confidence := 20.0
	switch {
	case len(cands) >= 3:
		confidence = 75
	case len(cands) >= 1:
		confidence = 50
	}
	return stamp(cands, StrategyTables, confidence)
}

// mapColumns identifies column roles from the header row text.
func mapColumns(header *goquery.Selection) tableColumns {
	cols := tableColumns{name: -1, email: -1, title: -1, phone: -1, dept: -1}
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		text := strings.ToLower(cleanText(cell.Text()))
		switch {
		case strings.Contains(text, "name") || strings.Contains(text, "faculty"):
			cols.name = i
		case strings.Contains(text, "email") || strings.Contains(text, "e-mail") || strings.Contains(text, "contact"):
			cols.email = i
		case strings.Contains(text, "title") || strings.Contains(text, "position") || strings.Contains(text, "rank"):
			cols.title = i
		case strings.Contains(text, "phone") || strings.Contains(text, "tel"):
			cols.phone = i
		case strings.Contains(text, "department") || strings.Contains(text, "dept"):
			cols.dept = i
		}
	})
	return cols
}

func candidateFromRow(row *goquery.Selection, cols tableColumns, base *url.URL) *model.Candidate {
	cells := row.Find("td, th")
	if cells.Length() < 2 {
		return nil
	}

	cell := func(i int) *goquery.Selection {
		if i < 0 || i >= cells.Length() {
			return nil
		}
		return cells.Eq(i)
	}

	name := ""
	if c := cell(cols.name); c != nil {
		name = cleanText(c.Text())
	}
	if name == "" {
		// Headers did not identify a name column; treat the row as a
		// generic card.
		return candidateFromContainer(row, base, "")
	}

	cand := model.Candidate{Name: name}
	if c := cell(cols.email); c != nil {
		cand.Email = extractEmail(c)
	}
	if cand.Email == "" {
		cand.Email = extractEmail(row)
	}
	if c := cell(cols.title); c != nil {
		cand.Title = cleanText(c.Text())
	}
	if c := cell(cols.phone); c != nil {
		cand.Phone = extractPhone(c)
	}
	if cand.Phone == "" {
		cand.Phone = extractPhone(row)
	}
	if c := cell(cols.dept); c != nil {
		cand.Department = cleanText(c.Text())
	}
	cand.ProfileURL = extractProfileURL(row, base)

	// A name alone is not enough: require contact info, or a table wide
	// enough that the row is clearly a roster entry.
	if cand.Email == "" && cand.Phone == "" && cells.Length() < 3 {
		return nil
	}
	return &cand
}
