package listing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// header matches the tabby files sheet of the ds1 convention.
var header = []string{"path[POSIX]", "size[bytes]", "checksum[md5]"}

// WriteTSV writes entries as a tabby files sheet.
func WriteTSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, entry := range entries {
		row := []string{entry.Path, strconv.FormatInt(entry.Size, 10), entry.Checksum}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteParquet writes entries as a parquet file, for listings too large
// to be useful as TSV.
func WriteParquet(w io.Writer, entries []Entry) error {
	pw := parquet.NewGenericWriter[Entry](w)
	if _, err := pw.Write(entries); err != nil {
		pw.Close()
		return err
	}
	return pw.Close()
}

// WriteFile writes entries to path, picking the format by extension:
// .parquet selects parquet, anything else is written as TSV.
func WriteFile(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing listing: %w", err)
	}
	var werr error
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		werr = WriteParquet(f, entries)
	} else {
		werr = WriteTSV(f, entries)
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("writing listing %s: %w", path, werr)
	}
	return nil
}
