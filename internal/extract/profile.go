package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/facwatch/internal/model"
)

// ProfileDetails pulls contact fields from one person's profile page.
// Used by enrichment to backfill records the directory page left sparse;
// only the fields a profile page reliably carries are attempted.
func ProfileDetails(doc *goquery.Document) model.PersonRecord {
	body := doc.Find("body")
	return model.PersonRecord{
		Email:             extractEmail(body),
		Phone:             extractPhone(body),
		ResearchInterests: extractResearch(body),
		Department:        PageDepartment(doc),
	}
}
