// Package store loads the fetch artifact into a persistent SQLite table.
//
// The load job is the consumer side of the artifact handoff: it reads the
// CSV the fetch job produced and creates or replaces a single named table
// keyed by date.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/justapithecus/prospect/artifact"
	"github.com/justapithecus/prospect/iox"
)

// TableName is the destination table for loaded candles.
const TableName = "stock_prices"

// Load reads the artifact at csvPath and replaces TableName in the SQLite
// database at dbPath with its contents. Returns the number of rows written.
//
// The drop, create, and inserts run in one transaction: a failed load
// leaves the previous table intact.
func Load(ctx context.Context, csvPath, dbPath string) (int64, error) {
	series, err := artifact.ReadFile(csvPath)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", csvPath, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer iox.DiscardClose(db)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", TableName)); err != nil {
		return 0, fmt.Errorf("drop table: %w", err)
	}
	createStmt := fmt.Sprintf(`CREATE TABLE %s (
		date TEXT PRIMARY KEY,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL
	)`, TableName)
	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (date, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?)", TableName))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer iox.DiscardClose(insert)

	var rows int64
	for _, c := range series {
		if _, err := insert.ExecContext(ctx,
			c.Date.Format("2006-01-02"), c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return 0, fmt.Errorf("insert row %s: %w", c.Date.Format("2006-01-02"), err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return rows, nil
}

// Count returns the row count of TableName in the database at dbPath.
func Count(ctx context.Context, dbPath string) (int64, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer iox.DiscardClose(db)

	var n int64
	err = db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", TableName)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}
