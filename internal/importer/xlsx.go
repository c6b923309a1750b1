package importer

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/model"
)

// LoadXLSX reads targets from the first sheet of an XLSX workbook. The
// first row is the header; bad rows are logged and skipped.
func LoadXLSX(path string) ([]model.Target, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("importer: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("importer: empty sheet")
	}

	cols := mapHeader(rowToStrings(sheet.Rows[0]))
	if cols.url < 0 {
		return nil, eris.New("importer: sheet has no url column")
	}

	var targets []model.Target
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if len(cells) == 0 {
			continue
		}
		target, err := targetFromRow(cells, cols)
		if err != nil {
			zap.L().Warn("skipping bad import row", zap.Int("row", i+2), zap.Error(err))
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, c := range row.Cells {
		cells[j] = c.String()
	}
	return cells
}
