package storage

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	"rangeindex/pkg/common"
	"rangeindex/pkg/core"

	_ "modernc.org/sqlite"
)

// SQLiteCollection stores records in a SQLite table with a B-tree index on
// price. Path ":memory:" keeps the database in process memory.
type SQLiteCollection struct {
	db *sql.DB
	mu sync.Mutex
}

var _ core.Collection = (*SQLiteCollection)(nil)
var _ core.Deleter = (*SQLiteCollection)(nil)

func NewSQLiteCollection(path string) (*SQLiteCollection, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// Every pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)

	query := `
	CREATE TABLE IF NOT EXISTS items (
		id       INTEGER PRIMARY KEY,
		name     TEXT NOT NULL,
		category TEXT NOT NULL,
		price    REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_items_price ON items (price, id);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`)
	if err != nil {
		log.Printf("[SQLite] Warning: Failed to set PRAGMA: %v", err)
	}

	return &SQLiteCollection{db: db}, nil
}

func (s *SQLiteCollection) Put(rec common.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("INSERT OR REPLACE INTO items (id, name, category, price) VALUES (?, ?, ?, ?)",
		rec.ID, rec.Name, rec.Category, rec.Price)
	if err != nil {
		return fmt.Errorf("sqlite: put %d: %w", rec.ID, err)
	}
	return nil
}

// PutBatch writes records inside one transaction.
func (s *SQLiteCollection) PutBatch(records []common.Record) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO items (id, name, category, price) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.Exec(rec.ID, rec.Name, rec.Category, rec.Price); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite: batch put %d: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteCollection) Get(id int64) (common.Record, bool, error) {
	rec := common.Record{ID: id}
	err := s.db.QueryRow("SELECT name, category, price FROM items WHERE id = ?", id).
		Scan(&rec.Name, &rec.Category, &rec.Price)
	if err == sql.ErrNoRows {
		return common.Record{}, false, nil
	}
	if err != nil {
		return common.Record{}, false, fmt.Errorf("sqlite: get %d: %w", id, err)
	}
	return rec, true, nil
}

func (s *SQLiteCollection) Delete(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec("DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("sqlite: delete %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteCollection) Scan(minPrice, maxPrice float64, fn func(common.Record) bool) error {
	if minPrice > maxPrice {
		return nil
	}
	rows, err := s.db.Query(
		"SELECT id, name, category, price FROM items WHERE price BETWEEN ? AND ? ORDER BY price, id",
		minPrice, maxPrice)
	if err != nil {
		return fmt.Errorf("sqlite: scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec common.Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Category, &rec.Price); err != nil {
			return fmt.Errorf("sqlite: scan row: %w", err)
		}
		if !fn(rec) {
			return nil
		}
	}
	return rows.Err()
}

func (s *SQLiteCollection) Len() int {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		log.Printf("[SQLite] count error: %v", err)
		return 0
	}
	return n
}

func (s *SQLiteCollection) Type() string { return "sqlite" }

// Truncate removes every row.
func (s *SQLiteCollection) Truncate() error {
	_, err := s.db.Exec("DELETE FROM items")
	return err
}

func (s *SQLiteCollection) Close() error {
	return s.db.Close()
}
