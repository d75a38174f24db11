package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"journal/auth"
	"journal/db"
	"journal/models"
)

// entryDateFormat is the RFC 1123 form with a GMT zone used for entry dates.
const entryDateFormat = http.TimeFormat

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	if !a.policy.Permits(auth.FromContext(r.Context()), auth.PermSecret) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	a.list(w, r)
}

func (a *App) list(w http.ResponseWriter, r *http.Request) {
	var entries []models.JournalEntry
	err := a.store.InTx(r.Context(), func(ctx context.Context, store db.EntryStore) error {
		var err error
		entries, err = store.All(ctx)
		return err
	})
	if err != nil {
		a.storageError(w, r, err)
		return
	}

	a.render(w, r, http.StatusOK, "home_page.html", map[string]any{"Entries": entries})
}

func (a *App) newEntryForm(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, http.StatusOK, "new_entry.html", map[string]any{"Form": models.EntryForm{}})
}

func (a *App) createEntry(w http.ResponseWriter, r *http.Request) {
	form := a.entryForm(r)
	if !form.Valid() {
		a.render(w, r, http.StatusUnprocessableEntity, "new_entry.html", map[string]any{"Form": form})
		return
	}

	entry := models.JournalEntry{
		Title: form.Title,
		Body:  form.Body,
		Date:  a.clock.Now().UTC().Format(entryDateFormat),
	}
	err := a.store.InTx(r.Context(), func(ctx context.Context, store db.EntryStore) error {
		return store.Create(ctx, &entry)
	})
	if err != nil {
		a.storageError(w, r, err)
		return
	}

	a.logger.Info(r.Context(), "entry created", "id", entry.ID, "request_id", requestID(r.Context()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) detail(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.loadEntry(w, r)
	if !ok {
		return
	}
	a.render(w, r, http.StatusOK, "single_entry.html", map[string]any{"Entry": entry})
}

func (a *App) editEntryForm(w http.ResponseWriter, r *http.Request) {
	entry, ok := a.loadEntry(w, r)
	if !ok {
		return
	}
	form := models.EntryForm{ID: entry.ID, Title: entry.Title, Body: entry.Body}
	a.render(w, r, http.StatusOK, "edit_entry.html", map[string]any{"Form": form})
}

func (a *App) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	submitted := a.entryForm(r)
	var current models.JournalEntry
	err = a.store.InTx(r.Context(), func(ctx context.Context, store db.EntryStore) error {
		var err error
		current, err = store.ByID(ctx, id)
		if err != nil || !submitted.Valid() {
			return err
		}
		current.Title = submitted.Title
		current.Body = submitted.Body
		return store.Update(ctx, current)
	})
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		a.storageError(w, r, err)
		return
	}

	if !submitted.Valid() {
		// The stored values are shown again, not the rejected input.
		form := models.EntryForm{ID: current.ID, Title: current.Title, Body: current.Body, ErrorMsg: submitted.ErrorMsg}
		a.render(w, r, http.StatusUnprocessableEntity, "edit_entry.html", map[string]any{"Form": form})
		return
	}

	a.logger.Info(r.Context(), "entry updated", "id", id, "request_id", requestID(r.Context()))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loadEntry fetches the entry named by the {id} path value, answering 404 or
// 500 itself when it cannot.
func (a *App) loadEntry(w http.ResponseWriter, r *http.Request) (models.JournalEntry, bool) {
	id, err := entryID(r)
	if err != nil {
		http.NotFound(w, r)
		return models.JournalEntry{}, false
	}

	var entry models.JournalEntry
	err = a.store.InTx(r.Context(), func(ctx context.Context, store db.EntryStore) error {
		var err error
		entry, err = store.ByID(ctx, id)
		return err
	})
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.NotFound(w, r)
		return entry, false
	case err != nil:
		a.storageError(w, r, err)
		return entry, false
	}
	return entry, true
}

// entryForm reads title and body from the request. Both must hold something
// other than whitespace; the values are kept as submitted.
func (a *App) entryForm(r *http.Request) models.EntryForm {
	form := models.EntryForm{
		Title: r.PostFormValue("title"),
		Body:  r.PostFormValue("body"),
	}
	if strings.TrimSpace(form.Title) == "" || strings.TrimSpace(form.Body) == "" {
		form.ErrorMsg = a.translator(r)("EntryRequired")
	}
	return form
}

func entryID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
