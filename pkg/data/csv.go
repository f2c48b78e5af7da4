package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource replays readings from a CSV file.
// With an empty column the first field of every row is used and no header is
// expected. With a named column the first row is the header. Rows that do not
// hold a number are skipped.
type CSVSource struct {
	filePath string
	column   string

	values  []float64
	skipped int
	pos     int
	loaded  bool
}

// NewCSVSource creates a new CSV-based source
func NewCSVSource(filePath, column string) *CSVSource {
	return &CSVSource{
		filePath: filePath,
		column:   column,
	}
}

// loadIfNeeded loads the CSV file if not already loaded
func (s *CSVSource) loadIfNeeded() error {
	if s.loaded {
		return nil
	}

	file, err := os.Open(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	values, skipped, err := readCSV(file, s.column)
	if err != nil {
		return err
	}

	s.values = values
	s.skipped = skipped
	s.loaded = true
	return nil
}

func readCSV(r io.Reader, column string) ([]float64, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	idx := 0
	if column != "" {
		header, err := reader.Read()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV header: %w", err)
		}

		idx = -1
		for i, col := range header {
			if strings.EqualFold(strings.TrimSpace(col), column) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, 0, fmt.Errorf("column %q not found in CSV header", column)
		}
	}

	var values []float64
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read CSV record: %w", err)
		}

		if idx >= len(record) {
			skipped++
			continue
		}
		value, err := ParseReading(record[idx])
		if err != nil {
			skipped++
			continue // Skip invalid records
		}
		values = append(values, value)
	}

	return values, skipped, nil
}

// Next returns the next reading of the file
func (s *CSVSource) Next(ctx context.Context) (float64, bool, error) {
	if err := s.loadIfNeeded(); err != nil {
		return 0, false, err
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	if s.pos >= len(s.values) {
		return 0, false, nil
	}
	v := s.values[s.pos]
	s.pos++
	return v, true, nil
}

// Skipped returns the number of rows ignored because they held no number
func (s *CSVSource) Skipped() int {
	return s.skipped
}

// MemorySource replays readings held in memory
type MemorySource struct {
	values []float64
	pos    int
}

// NewMemorySource creates a new in-memory source
func NewMemorySource(values []float64) *MemorySource {
	return &MemorySource{values: values}
}

// Next returns the next reading
func (s *MemorySource) Next(ctx context.Context) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	if s.pos >= len(s.values) {
		return 0, false, nil
	}
	v := s.values[s.pos]
	s.pos++
	return v, true, nil
}
