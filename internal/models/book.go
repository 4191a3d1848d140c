package models

import "time"

// Source identifies the catalog or API a search result came from.
type Source string

const (
	SourceDNB         Source = "dnb"
	SourceGoogleBooks Source = "googlebooks"
	SourceISBNDB      Source = "isbndb"
	SourceOpenLibrary Source = "openlibrary"
)

// BookResult is one raw bibliographic record produced by a single source.
// Title and Author are already in canonical form ("Last, First; Last, First",
// article moved to the title suffix) when a result leaves its parser.
type BookResult struct {
	Title        string   `json:"title"`
	Author       string   `json:"author"`
	Description  string   `json:"description,omitempty"`
	Publisher    string   `json:"publisher,omitempty"`
	PublishDate  string   `json:"publish_date,omitempty"` // year only
	Language     string   `json:"language,omitempty"`
	Series       string   `json:"series,omitempty"`
	SeriesNumber string   `json:"series_number,omitempty"` // decimal-capable, e.g. "7.5"
	ISBN         string   `json:"isbn,omitempty"`
	AllISBNs     []string `json:"all_isbns,omitempty"` // every ISBN variant seen, includes ISBN
	CoverURL     string   `json:"cover_url,omitempty"`
	Source       Source   `json:"source"`
}

// HasISBN reports whether the result carries any identifier at all.
func (r *BookResult) HasISBN() bool {
	return r.ISBN != "" || len(r.AllISBNs) > 0
}

// SearchResult is a merged search result plus its relation to the local
// catalog. ExistingID is set when the result matches a book already present.
type SearchResult struct {
	BookResult
	ExistingID string `json:"existing_id,omitempty"`
}

// Book is a book in the local catalog. OriginalTitle and OriginalAuthor keep
// the pre-normalization values so a record stays findable under both forms.
type Book struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	OriginalTitle  string    `json:"original_title,omitempty"`
	OriginalAuthor string    `json:"original_author,omitempty"`
	Series         string    `json:"series,omitempty"`
	SeriesNumber   string    `json:"series_number,omitempty"`
	ISBN           string    `json:"isbn,omitempty"`
	Description    string    `json:"description,omitempty"`
	Publisher      string    `json:"publisher,omitempty"`
	PublishDate    string    `json:"publish_date,omitempty"`
	Language       string    `json:"language,omitempty"`
	CoverURL       string    `json:"cover_url,omitempty"`
	IsOwned        bool      `json:"is_owned"`
	IsRead         bool      `json:"is_read"`
	DateAdded      time.Time `json:"date_added"`
	DateUpdated    time.Time `json:"date_updated"`
}

// User is a registered API user.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
