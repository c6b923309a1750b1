// Package importer loads watch targets in bulk from CSV and XLSX
// files. Columns are matched by header name, so department staff can
// maintain the list in whatever column order their spreadsheet uses.
package importer

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/facwatch/internal/model"
)

// columns maps header names to target fields.
type columns struct {
	id, name, url, mode, enabled, strategy, email int
}

func mapHeader(header []string) columns {
	cols := columns{id: -1, name: -1, url: -1, mode: -1, enabled: -1, strategy: -1, email: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "id":
			cols.id = i
		case "name", "display_name", "display name":
			cols.name = i
		case "url", "link", "directory_url":
			cols.url = i
		case "mode":
			cols.mode = i
		case "enabled":
			cols.enabled = i
		case "strategy", "strategy_key":
			cols.strategy = i
		case "notify", "notify_email", "email":
			cols.email = i
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// targetFromRow builds a Target from one data row. Rows without a URL
// are rejected; every other column has a sensible default.
func targetFromRow(row []string, cols columns) (model.Target, error) {
	target := model.Target{
		ID:          cell(row, cols.id),
		DisplayName: cell(row, cols.name),
		URL:         cell(row, cols.url),
		Mode:        model.ModeStatic,
		Enabled:     true,
		StrategyKey: cell(row, cols.strategy),
		NotifyEmail: cell(row, cols.email),
	}

	if target.URL == "" {
		return target, eris.New("importer: row has no url")
	}
	parsed, err := url.Parse(target.URL)
	if err != nil || parsed.Host == "" {
		return target, eris.Errorf("importer: invalid url %q", target.URL)
	}

	if mode := strings.ToLower(cell(row, cols.mode)); mode != "" {
		switch mode {
		case string(model.ModeStatic):
			target.Mode = model.ModeStatic
		case string(model.ModeDynamic):
			target.Mode = model.ModeDynamic
		default:
			return target, eris.Errorf("importer: unknown mode %q", mode)
		}
	}
	if enabled := strings.ToLower(cell(row, cols.enabled)); enabled != "" {
		target.Enabled = enabled == "true" || enabled == "yes" || enabled == "1"
	}
	if target.ID == "" {
		target.ID = slugFromTarget(target, parsed)
	}
	if target.DisplayName == "" {
		target.DisplayName = parsed.Host
	}
	return target, nil
}

// slugFromTarget derives a stable id from the display name, falling
// back to the URL host.
func slugFromTarget(target model.Target, parsed *url.URL) string {
	base := target.DisplayName
	if base == "" {
		base = parsed.Host
	}
	slug := strings.ToLower(base)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	return strings.Trim(strings.Join(strings.FieldsFunc(slug, func(r rune) bool { return r == '-' }), "-"), "-")
}

// Load reads targets from a file, dispatching on extension.
func Load(path string) ([]model.Target, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, eris.Errorf("importer: unsupported file type %s", filepath.Ext(path))
	}
}
