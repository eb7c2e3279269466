package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV reads an uploaded CSV into rows keyed by canonical field name.
// Row numbers count data lines from 1, matching what a human sees when they
// open the file minus the header.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("ingest: empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("ingest: read header: %w", err)
	}

	fields := make([]string, len(header))
	for i, label := range header {
		fields[i] = CanonicalField(label)
	}

	var rows []Row
	for number := 1; ; number++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: read row %d: %w", number, err)
		}
		cells := make(map[string]string, len(fields))
		for i, field := range fields {
			if field == "" {
				continue
			}
			if i < len(record) {
				cells[field] = record[i]
			} else {
				cells[field] = ""
			}
		}
		rows = append(rows, Row{Number: number, Fields: cells})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("ingest: file has no data rows")
	}
	return rows, nil
}
