package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Obfuscated address forms written to dodge harvesters.
	obfuscatedAtRe  = regexp.MustCompile(`(?i)\s*[\[\(]\s*at\s*[\]\)]\s*`)
	obfuscatedDotRe = regexp.MustCompile(`(?i)\s*[\[\(]\s*dot\s*[\]\)]\s*`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
		regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}`),
		regexp.MustCompile(`\d{3}[-.\s]\d{4}`),
	}

	nameFromTextRe  = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)\b`)
	academicTitleRe = regexp.MustCompile(`(?i)\b(Professor|Associate Professor|Assistant Professor|Dr\.|Ph\.?D\.?|Faculty)\b`)
	titleInTextRe   = regexp.MustCompile(`(?i)(Associate Professor|Assistant Professor|Professor|Lecturer|Instructor|Research Scientist)`)

	deptOfRe    = regexp.MustCompile(`Department of ([A-Z][a-zA-Z\s&]+)`)
	deptSuffixRe = regexp.MustCompile(`([A-Z][a-zA-Z\s&]+) Department`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

var titleKeywords = []string{"professor", "dr", "faculty", "lecturer", "instructor"}

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// DeobfuscateEmails rewrites "[at]"/"(at)" and "[dot]"/"(dot)" forms so
// the address regex can match them.
func DeobfuscateEmails(text string) string {
	text = obfuscatedAtRe.ReplaceAllString(text, "@")
	text = obfuscatedDotRe.ReplaceAllString(text, ".")
	return text
}

// extractEmail pulls an email from a container: mailto links first, then
// a regex over the (deobfuscated) text.
func extractEmail(sel *goquery.Selection) string {
	email := ""
	sel.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		email = emailFromMailto(href)
		return email == ""
	})
	if email != "" {
		return email
	}
	return emailRe.FindString(DeobfuscateEmails(sel.Text()))
}

func emailFromMailto(href string) string {
	addr := strings.TrimPrefix(href, "mailto:")
	if i := strings.IndexByte(addr, '?'); i >= 0 {
		addr = addr[:i]
	}
	return strings.TrimSpace(addr)
}

// extractPhone pulls a phone number from a container, skipping numbers
// labelled as fax and falling back to tel: links.
func extractPhone(sel *goquery.Selection) string {
	text := sel.Text()
	for _, re := range phonePatterns {
		for _, match := range re.FindAllString(text, -1) {
			idx := strings.Index(text, match)
			lo := idx - 20
			if lo < 0 {
				lo = 0
			}
			hi := idx + len(match) + 20
			if hi > len(text) {
				hi = len(text)
			}
			if strings.Contains(strings.ToLower(text[lo:hi]), "fax") {
				continue
			}
			return strings.TrimSpace(match)
		}
	}

	phone := ""
	sel.Find(`a[href^="tel:"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		phone = strings.TrimSpace(strings.TrimPrefix(href, "tel:"))
		return phone == ""
	})
	return phone
}

var nameSelectors = []string{".name", ".person-name", "h2", "h3", "h4", ".title a", "strong", "b"}

// extractName finds a person name in a container via common selectors,
// falling back to a capitalized-words scan of the text.
func extractName(sel *goquery.Selection) string {
	for _, selector := range nameSelectors {
		elem := sel.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		name := cleanText(elem.Text())
		if name != "" && len(strings.Fields(name)) >= 2 {
			return name
		}
	}
	return nameFromText(sel.Text())
}

func nameFromText(text string) string {
	for _, match := range nameFromTextRe.FindAllString(text, -1) {
		if len(strings.Fields(match)) >= 2 && len(match) < 50 {
			return match
		}
	}
	return ""
}

var titleSelectors = []string{".title", ".position", ".rank", ".job-title", "h4", "em", "i"}

// extractTitle finds an academic title in a container.
func extractTitle(sel *goquery.Selection) string {
	for _, selector := range titleSelectors {
		elem := sel.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		title := cleanText(elem.Text())
		if title == "" {
			continue
		}
		lower := strings.ToLower(title)
		for _, kw := range titleKeywords {
			if strings.Contains(lower, kw) {
				return title
			}
		}
	}
	return titleInTextRe.FindString(sel.Text())
}

// extractProfileURL returns the first non-mailto link in a container,
// resolved against the page URL.
func extractProfileURL(sel *goquery.Selection, base *url.URL) string {
	out := ""
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" ||
			strings.HasPrefix(strings.ToLower(href), "mailto:") ||
			strings.HasPrefix(strings.ToLower(href), "tel:") ||
			strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		if base != nil {
			out = base.ResolveReference(ref).String()
		} else {
			out = ref.String()
		}
		return false
	})
	return out
}

var researchKeywords = []string{"research", "interests", "focus", "specialization"}

var researchPrefixRe = regexp.MustCompile(`(?i)(research interests?:?|research focus:?)`)

// extractResearch finds a research-interests blurb inside a container.
func extractResearch(sel *goquery.Selection) string {
	found := ""
	sel.Find("p, div, span").EachWithBreak(func(_ int, elem *goquery.Selection) bool {
		lower := strings.ToLower(elem.Text())
		for _, kw := range researchKeywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			text := cleanText(researchPrefixRe.ReplaceAllString(elem.Text(), ""))
			if len(text) > 10 {
				if len(text) > 500 {
					text = text[:500]
				}
				found = text
				return false
			}
		}
		return true
	})
	return found
}

// PageDepartment infers the department name from the page title or top
// headings ("Department of Biology", "Biology Department").
func PageDepartment(doc *goquery.Document) string {
	if dept := departmentFromText(doc.Find("title").Text()); dept != "" {
		return dept
	}
	dept := ""
	doc.Find("h1, h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(h.Text()), "department") {
			return true
		}
		dept = departmentFromText(h.Text())
		return dept == ""
	})
	return dept
}

func departmentFromText(text string) string {
	if m := deptOfRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	if m := deptSuffixRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
