package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

var reportHeader = []string{"id", "title", "original_alt", "generated_alt", "url", "status"}

// Reporter accumulates one row per processed image and writes them as CSV at the end of the run
type Reporter struct {
	results []AltTextResult
}

func NewReporter() *Reporter {
	return &Reporter{}
}

// Add appends a result in processing order
func (r *Reporter) Add(result AltTextResult) {
	r.results = append(r.results, result)
}

// Len returns the number of recorded rows
func (r *Reporter) Len() int {
	return len(r.results)
}

// WriteCSV writes the header and every recorded row to path, creating parent directories
func (r *Reporter) WriteCSV(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, res := range r.results {
		row := []string{
			strconv.Itoa(res.ID),
			res.Title,
			res.OriginalAlt,
			res.GeneratedAlt,
			res.URL,
			string(res.Status),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row for media %d: %w", res.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return f.Close()
}
