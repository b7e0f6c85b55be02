// Package artifact encodes and decodes the tabular fetch artifact.
//
// The artifact is the cross-job handoff: the fetch job produces it, the
// dependency gate polls for it, and the load job consumes it. Both real
// and synthetic data serialize to the same format so downstream consumers
// are agnostic to provenance.
package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/justapithecus/prospect/iox"
	"github.com/justapithecus/prospect/types"
)

// Columns is the artifact header, in order.
var Columns = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// dateLayout is the ISO-like calendar date used in the Date column.
const dateLayout = "2006-01-02"

// Encode serializes the series as CSV with the standard header.
func Encode(s types.Series) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, c := range s {
		row := []string{
			c.Date.Format(dateLayout),
			formatPrice(c.Open),
			formatPrice(c.High),
			formatPrice(c.Low),
			formatPrice(c.Close),
			strconv.FormatInt(c.Volume, 10),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row for %s: %w", row[0], err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses CSV data with the standard header into a series.
// Rows with unparseable numeric columns are rejected, not skipped.
func Decode(data []byte) (types.Series, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	header := records[0]
	if len(header) < len(Columns) || header[0] != "Date" {
		return nil, fmt.Errorf("unexpected header %v, want %v", header, Columns)
	}

	series := make(types.Series, 0, len(records)-1)
	for i, row := range records[1:] {
		if len(row) < len(Columns) {
			return nil, fmt.Errorf("row %d: %d columns, want %d", i+1, len(row), len(Columns))
		}
		date, err := time.ParseInLocation(dateLayout, row[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q: %w", i+1, row[0], err)
		}
		var prices [4]float64
		for j, col := range row[1:5] {
			prices[j], err = strconv.ParseFloat(col, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad %s %q: %w", i+1, Columns[j+1], col, err)
			}
		}
		volume, err := strconv.ParseInt(row[5], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad Volume %q: %w", i+1, row[5], err)
		}
		series = append(series, types.Candle{
			Date:   date,
			Open:   prices[0],
			High:   prices[1],
			Low:    prices[2],
			Close:  prices[3],
			Volume: volume,
		})
	}
	return series, nil
}

// WriteFile atomically serializes the series to path.
// Atomicity matters here: the dependency gate treats file existence as
// readiness, so a partially written artifact must never be observable.
func WriteFile(path string, s types.Series) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	return iox.WriteFileAtomic(path, data, 0o644)
}

// ReadFile reads and decodes the artifact at path.
func ReadFile(path string) (types.Series, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return Decode(data)
}

// formatPrice renders a price with full round-trip precision.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
