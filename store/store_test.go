package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/justapithecus/prospect/artifact"
	"github.com/justapithecus/prospect/iox"
	"github.com/justapithecus/prospect/types"
)

func writeArtifact(t *testing.T, dir string, n int) string {
	t.Helper()
	series := make(types.Series, n)
	base := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	for i := range series {
		price := 150.0 + float64(i)
		series[i] = types.Candle{
			Date:   base.AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price + 0.5,
			Volume: 1_000_000,
		}
	}
	path := filepath.Join(dir, "aapl.csv")
	if err := artifact.WriteFile(path, series); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeArtifact(t, dir, 5)
	dbPath := filepath.Join(dir, "finance.db")

	rows, err := Load(context.Background(), csvPath, dbPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rows != 5 {
		t.Errorf("expected 5 rows loaded, got %d", rows)
	}

	count, err := Count(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5 rows in table, got %d", count)
	}
}

func TestLoad_ReplacesExistingTable(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "finance.db")

	first := writeArtifact(t, dir, 8)
	if _, err := Load(context.Background(), first, dbPath); err != nil {
		t.Fatalf("first load: %v", err)
	}

	second := writeArtifact(t, dir, 3)
	rows, err := Load(context.Background(), second, dbPath)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if rows != 3 {
		t.Errorf("expected 3 rows loaded, got %d", rows)
	}

	count, err := Count(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("replace semantics: expected 3 rows, got %d", count)
	}
}

func TestLoad_MissingArtifact(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(context.Background(), filepath.Join(dir, "absent.csv"), filepath.Join(dir, "finance.db"))
	if err == nil {
		t.Fatal("expected error for missing artifact")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "finance.db")); statErr == nil {
		// sql.Open is lazy; the db file may exist but must have no table.
		if _, countErr := Count(context.Background(), filepath.Join(dir, "finance.db")); countErr == nil {
			t.Error("expected no table after failed load")
		}
	}
}

func TestLoad_RowValues(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeArtifact(t, dir, 2)
	dbPath := filepath.Join(dir, "finance.db")

	if _, err := Load(context.Background(), csvPath, dbPath); err != nil {
		t.Fatalf("load: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(iox.CloseFunc(db))

	var date string
	var closePrice float64
	err = db.QueryRowContext(context.Background(),
		"SELECT date, close FROM stock_prices ORDER BY date LIMIT 1").Scan(&date, &closePrice)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if date != "2026-08-03" {
		t.Errorf("expected date 2026-08-03, got %s", date)
	}
	if closePrice != 150.5 {
		t.Errorf("expected close 150.5, got %f", closePrice)
	}
}
