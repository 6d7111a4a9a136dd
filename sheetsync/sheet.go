package sheetsync

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Source yields the rows of the sheet in file order.
type Source interface {
	Rows(ctx context.Context) ([][]string, error)
}

// XLSXSource reads one worksheet of an .xlsx workbook. An empty Sheet means
// the first worksheet. No header row is skipped.
type XLSXSource struct {
	Path  string
	Sheet string
}

func (s XLSXSource) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()

	name := s.Sheet
	if name == "" {
		name = f.GetSheetName(0)
		if name == "" {
			return nil, fmt.Errorf("%s: workbook has no sheets", s.Path)
		}
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read %s!%s: %w", s.Path, name, err)
	}
	return rows, nil
}
