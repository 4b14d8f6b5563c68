package uploads

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseSheet reads the first sheet of a workbook (or a CSV file) into
// display headers and at most maxRows data rows keyed col_<index>.
func ParseSheet(filename, mimeType string, data []byte, maxRows int) ([]string, []map[string]string, error) {
	var (
		grid [][]string
		err  error
	)
	if mimeType == mimeCSV || extension(filename) == "csv" {
		grid, err = readCSV(data, maxRows+1)
	} else {
		grid, err = readWorkbook(data, maxRows+1)
	}
	if err != nil {
		return nil, nil, err
	}
	headers, rows := tabulate(grid, maxRows)
	return headers, rows, nil
}

func readCSV(data []byte, limit int) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var grid [][]string
	for len(grid) < limit {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		grid = append(grid, rec)
	}
	return grid, nil
}

func readWorkbook(data []byte, limit int) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	defer rows.Close()

	var grid [][]string
	for len(grid) < limit && rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		grid = append(grid, cols)
	}
	return grid, rows.Error()
}

func tabulate(grid [][]string, maxRows int) ([]string, []map[string]string) {
	if len(grid) == 0 {
		return []string{}, []map[string]string{}
	}
	headers := make([]string, len(grid[0]))
	for i, cell := range grid[0] {
		if strings.TrimSpace(cell) == "" {
			cell = fmt.Sprintf("Column %d", i+1)
		}
		headers[i] = cell
	}

	body := grid[1:]
	if maxRows >= 0 && len(body) > maxRows {
		body = body[:maxRows]
	}
	rows := make([]map[string]string, 0, len(body))
	for _, row := range body {
		rec := make(map[string]string, len(headers))
		for i := range headers {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			rec[fmt.Sprintf("col_%d", i)] = v
		}
		rows = append(rows, rec)
	}
	return headers, rows
}
