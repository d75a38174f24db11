package db

import (
	"context"

	"journal/models"
)

// SeedEntries are the sample entries written by the initdb command.
var SeedEntries = []models.JournalEntry{
	{Title: "Day1", Date: "Sun, 21 Aug 2016 00:00:00 GMT", Body: "Today I learned about Pyramid."},
	{Title: "Day2", Date: "Mon, 22 Aug 2016 00:00:00 GMT", Body: "Today I learned about heaps and templates."},
	{Title: "Day3", Date: "Tue, 23 Aug 2016 00:00:00 GMT", Body: "Today I learned about deploying to Heroku."},
	{Title: "Day4", Date: "Thu, 25 Aug 2016 00:00:00 GMT", Body: "Today I learned about deploying to birds."},
}

// Seed inserts entries when the table is empty and reports how many rows
// were written.
func (d *DB) Seed(ctx context.Context, entries []models.JournalEntry) (int, error) {
	written := 0
	err := d.InTx(ctx, func(ctx context.Context, store EntryStore) error {
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, e := range entries {
			e := e
			if err := store.Create(ctx, &e); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}
