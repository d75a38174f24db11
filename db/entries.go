package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"journal/models"
)

var ErrNotFound = errors.New("entry not found")

// EntryStore is the query/insert interface over the entries table.
type EntryStore interface {
	All(ctx context.Context) ([]models.JournalEntry, error)
	ByID(ctx context.Context, id int64) (models.JournalEntry, error)
	Create(ctx context.Context, entry *models.JournalEntry) error
	Update(ctx context.Context, entry models.JournalEntry) error
	Count(ctx context.Context) (int, error)
}

// Entries implements EntryStore over a DBTX (*sql.DB or *sql.Tx).
type Entries struct {
	db      DBTX
	dialect Dialect
}

func NewEntries(db DBTX, dialect Dialect) *Entries {
	return &Entries{db: db, dialect: dialect}
}

// All returns every entry in insertion order.
func (e *Entries) All(ctx context.Context) ([]models.JournalEntry, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT id, title, date, body FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []models.JournalEntry
	for rows.Next() {
		var item models.JournalEntry
		var title, date, body sql.NullString
		if err := rows.Scan(&item.ID, &title, &date, &body); err != nil {
			return nil, err
		}
		item.Title, item.Date, item.Body = title.String, date.String, body.String
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ByID returns the entry with the given id, or ErrNotFound.
func (e *Entries) ByID(ctx context.Context, id int64) (models.JournalEntry, error) {
	row := e.db.QueryRowContext(ctx, rebind(e.dialect, `SELECT id, title, date, body FROM entries WHERE id = ?`), id)

	var item models.JournalEntry
	var title, date, body sql.NullString
	if err := row.Scan(&item.ID, &title, &date, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.JournalEntry{}, fmt.Errorf("entry %d: %w", id, ErrNotFound)
		}
		return models.JournalEntry{}, fmt.Errorf("failed to select entry: %w", err)
	}
	item.Title, item.Date, item.Body = title.String, date.String, body.String
	return item, nil
}

// Create inserts entry and stores the assigned id back into it.
func (e *Entries) Create(ctx context.Context, entry *models.JournalEntry) error {
	query := rebind(e.dialect, `INSERT INTO entries (title, body, date) VALUES (?, ?, ?) RETURNING id`)
	if err := e.db.QueryRowContext(ctx, query, entry.Title, entry.Body, entry.Date).Scan(&entry.ID); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// Update rewrites title and body of an existing entry. The date is left
// alone.
func (e *Entries) Update(ctx context.Context, entry models.JournalEntry) error {
	query := rebind(e.dialect, `UPDATE entries SET title = ?, body = ? WHERE id = ?`)
	res, err := e.db.ExecContext(ctx, query, entry.Title, entry.Body, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("entry %d: %w", entry.ID, ErrNotFound)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (e *Entries) Count(ctx context.Context) (int, error) {
	var n int
	if err := e.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}
