package models

// JournalEntry is one dated journal record. Date is assigned when the entry
// is created and never changes afterwards.
type JournalEntry struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Date  string `json:"date"`
}

// EntryForm is the state of the new/edit entry form.
type EntryForm struct {
	ID       int64
	Title    string
	Body     string
	ErrorMsg string
}

// Valid reports whether the form carries no validation error.
func (f EntryForm) Valid() bool {
	return f.ErrorMsg == ""
}

// LoginForm is the state of the login page.
type LoginForm struct {
	Username  string
	ErrorMsg  string
	CaptchaID string
}
