package importer

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/model"
)

// LoadCSV reads targets from a CSV file with a header row. Bad rows are
// logged and skipped so one typo does not sink a 50-row import.
func LoadCSV(path string) ([]model.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open csv")
	}
	defer f.Close()

	return readCSV(f)
}

func readCSV(r io.Reader) ([]model.Target, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("importer: empty csv")
	}
	if err != nil {
		return nil, eris.Wrap(err, "importer: read header")
	}
	cols := mapHeader(header)
	if cols.url < 0 {
		return nil, eris.New("importer: csv has no url column")
	}

	var targets []model.Target
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "importer: read row %d", line+1)
		}
		line++

		target, err := targetFromRow(row, cols)
		if err != nil {
			zap.L().Warn("skipping bad import row", zap.Int("line", line), zap.Error(err))
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}
