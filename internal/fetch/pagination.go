package fetch

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NextPageURL finds the next pagination page in doc, or "" when the
// current page is the last one. Detection runs in priority order:
// rel="next" links, next-styled anchors, ARIA/title-labelled next
// controls, then numbered page links one past the current page number.
func NextPageURL(doc *goquery.Document, current *url.URL) string {
	if doc == nil || current == nil {
		return ""
	}

	if href := relNextHref(doc); href != "" {
		return resolveHref(current, href)
	}
	if href := classNextHref(doc); href != "" {
		return resolveHref(current, href)
	}
	if href := labelledNextHref(doc); href != "" {
		return resolveHref(current, href)
	}
	if href := numberedNextHref(doc, current); href != "" {
		return resolveHref(current, href)
	}
	return ""
}

func relNextHref(doc *goquery.Document) string {
	href := ""
	doc.Find(`a[rel="next"], link[rel="next"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if h, ok := s.Attr("href"); ok && usableHref(h) {
			href = h
			return false
		}
		return true
	})
	return href
}

func classNextHref(doc *goquery.Document) string {
	href := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, _ := s.Attr("href")
		if !usableHref(h) {
			return true
		}
		class := strings.ToLower(s.AttrOr("class", ""))
		parentClass := strings.ToLower(s.Parent().AttrOr("class", ""))
		if strings.Contains(class, "next") || strings.Contains(parentClass, "next") {
			href = h
			return false
		}
		return true
	})
	return href
}

func labelledNextHref(doc *goquery.Document) string {
	href := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, _ := s.Attr("href")
		if !usableHref(h) {
			return true
		}
		aria := strings.ToLower(s.AttrOr("aria-label", ""))
		title := strings.ToLower(s.AttrOr("title", ""))
		if strings.Contains(aria, "next") || strings.Contains(title, "next") {
			href = h
			return false
		}
		return true
	})
	return href
}

var pageNumberRe = regexp.MustCompile(`(?i)[?&](?:page|p|pg)=(\d+)`)

// numberedNextHref handles bare numbered pagination: find the current
// page number from the URL (absent means page 1) and look for an anchor
// whose visible text is exactly the next number.
func numberedNextHref(doc *goquery.Document, current *url.URL) string {
	currentPage := 1
	if m := pageNumberRe.FindStringSubmatch(current.String()); len(m) > 1 {
		if n, err := strconv.Atoi(m[1]); err == nil {
			currentPage = n
		}
	}
	want := strconv.Itoa(currentPage + 1)

	href := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		h, _ := s.Attr("href")
		if !usableHref(h) {
			return true
		}
		if strings.TrimSpace(s.Text()) == want {
			href = h
			return false
		}
		return true
	})
	return href
}

func usableHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return false
	}
	lower := strings.ToLower(href)
	return !strings.HasPrefix(lower, "javascript:") && !strings.HasPrefix(lower, "mailto:")
}

func resolveHref(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
