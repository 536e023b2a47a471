package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	securitycenter "github.com/tphakala/go-securitycenter"
)

// WriteCSV writes records as CSV. Columns are the sorted keys of the first
// record; fields missing from later records render empty.
func WriteCSV(w io.Writer, records []securitycenter.Record) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if len(records) == 0 {
		return cw.Error()
	}

	columns := make([]string, 0, len(records[0]))
	for k := range records[0] {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	if err := cw.Write(columns); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for _, record := range records {
		for i, col := range columns {
			if v, ok := record[col]; ok && v != nil {
				row[i] = fmt.Sprint(v)
			} else {
				row[i] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes records to a new file at path.
func ExportCSV(path string, records []securitycenter.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return f.Close()
}
