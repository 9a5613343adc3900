package tabby

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SplitWorkbook converts every sheet of an xlsx workbook into a tabby
// TSV file named <workbook>_<sheet>.tsv in dest, and returns the
// written paths in sheet order.
func SplitWorkbook(src, dest string) ([]string, error) {
	f, err := excelize.OpenFile(src)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", src, err)
	}
	defer f.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dest, err)
	}

	prefix := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	var written []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		path := filepath.Join(dest, fmt.Sprintf("%s_%s.tsv", prefix, sheet))
		if err := writeTSV(path, rows); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeTSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.Comma = '\t'
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
