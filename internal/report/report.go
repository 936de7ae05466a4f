// Package report builds the detection result table and its CSV download.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
)

// Header is the column row of every results CSV.
var Header = []string{"date", "time", "Prediction"}

// FileName is the download name for a device's results.
func FileName(device string) string {
	return fmt.Sprintf("intrusion_results_%s.csv", models.Slugify(device))
}

// Build serializes rows and wraps both forms in a Result.
func Build(device string, rows []models.ResultRow) (*models.Result, error) {
	data, err := Encode(rows)
	if err != nil {
		return nil, err
	}
	return &models.Result{
		Device:   device,
		Rows:     rows,
		CSV:      data,
		FileName: FileName(device),
	}, nil
}

// Encode writes rows as CSV with Header.
func Encode(rows []models.ResultRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Date, r.Time, r.Prediction}); err != nil {
			return nil, fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush results: %w", err)
	}

	return buf.Bytes(), nil
}

// Parse reads a results CSV produced by Encode.
func Parse(data []byte) ([]models.ResultRow, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(Header)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range Header {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected header %v", header)
		}
	}

	var rows []models.ResultRow
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.ResultRow{Date: record[0], Time: record[1], Prediction: record[2]})
	}
	return rows, nil
}

// Summarize counts rows per prediction label.
func Summarize(rows []models.ResultRow) map[string]int {
	counts := make(map[string]int)
	for _, r := range rows {
		counts[r.Prediction]++
	}
	return counts
}
