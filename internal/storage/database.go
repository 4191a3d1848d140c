// Package storage persists the local book catalog and API users in SQLite.
package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Nadyita/Readle-sub000/internal/models"
)

// Database handles all catalog persistence.
type Database struct {
	db *sql.DB
}

// NewDatabase opens (creating if needed) the SQLite database at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		original_title TEXT NOT NULL DEFAULT '',
		original_author TEXT NOT NULL DEFAULT '',
		series TEXT NOT NULL DEFAULT '',
		series_number TEXT NOT NULL DEFAULT '',
		isbn TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		publisher TEXT NOT NULL DEFAULT '',
		publish_date TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		cover_url TEXT NOT NULL DEFAULT '',
		is_owned INTEGER NOT NULL DEFAULT 0,
		is_read INTEGER NOT NULL DEFAULT 0,
		date_added DATETIME NOT NULL,
		date_updated DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_books_author ON books(author);
	CREATE INDEX IF NOT EXISTS idx_books_series ON books(series, series_number);
	CREATE INDEX IF NOT EXISTS idx_books_isbn ON books(isbn);
	`
	_, err := d.db.Exec(schema)
	return err
}

const bookColumns = `id, title, author, original_title, original_author,
	series, series_number, isbn, description, publisher, publish_date,
	language, cover_url, is_owned, is_read, date_added, date_updated`

func scanBook(row interface{ Scan(...any) error }) (*models.Book, error) {
	book := &models.Book{}
	err := row.Scan(&book.ID, &book.Title, &book.Author,
		&book.OriginalTitle, &book.OriginalAuthor,
		&book.Series, &book.SeriesNumber, &book.ISBN, &book.Description,
		&book.Publisher, &book.PublishDate, &book.Language, &book.CoverURL,
		&book.IsOwned, &book.IsRead, &book.DateAdded, &book.DateUpdated)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// CreateBook inserts a book. A missing ID is generated; timestamps are set
// here so callers cannot backdate a record.
func (d *Database) CreateBook(book *models.Book) error {
	if book.ID == "" {
		book.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	book.DateAdded = now
	book.DateUpdated = now

	_, err := d.db.Exec(`
		INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Author,
		book.OriginalTitle, book.OriginalAuthor,
		book.Series, book.SeriesNumber, book.ISBN, book.Description,
		book.Publisher, book.PublishDate, book.Language, book.CoverURL,
		book.IsOwned, book.IsRead, book.DateAdded, book.DateUpdated,
	)
	return err
}

// GetBook retrieves a book by ID.
func (d *Database) GetBook(id string) (*models.Book, error) {
	return scanBook(d.db.QueryRow(
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id))
}

// ListBooks returns the whole catalog ordered by author, then series, then
// title.
func (d *Database) ListBooks() ([]models.Book, error) {
	return d.queryBooks(`SELECT ` + bookColumns + `
		FROM books ORDER BY author, series, series_number, title`)
}

// SearchBooks matches the query against title, author, series and the
// original (pre-normalization) forms.
func (d *Database) SearchBooks(query string) ([]models.Book, error) {
	term := "%" + query + "%"
	return d.queryBooks(`SELECT `+bookColumns+`
		FROM books
		WHERE title LIKE ? OR author LIKE ? OR series LIKE ?
			OR original_title LIKE ? OR original_author LIKE ?
		ORDER BY title`,
		term, term, term, term, term)
}

func (d *Database) queryBooks(query string, args ...any) ([]models.Book, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}
	return books, rows.Err()
}

// UpdateBook replaces the editable fields of a book. date_added never
// changes, and is_read only ever moves forward: once a book is read, a
// metadata refresh cannot unread it.
func (d *Database) UpdateBook(book *models.Book) error {
	book.DateUpdated = time.Now().UTC()
	result, err := d.db.Exec(`
		UPDATE books SET
			title = ?, author = ?, original_title = ?, original_author = ?,
			series = ?, series_number = ?, isbn = ?, description = ?,
			publisher = ?, publish_date = ?, language = ?, cover_url = ?,
			is_owned = ?, is_read = MAX(is_read, ?), date_updated = ?
		WHERE id = ?`,
		book.Title, book.Author, book.OriginalTitle, book.OriginalAuthor,
		book.Series, book.SeriesNumber, book.ISBN, book.Description,
		book.Publisher, book.PublishDate, book.Language, book.CoverURL,
		book.IsOwned, book.IsRead, book.DateUpdated, book.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SetFlags updates ownership and read status. Nil leaves a flag untouched;
// the read flag still only moves forward.
func (d *Database) SetFlags(id string, isOwned, isRead *bool) error {
	book, err := d.GetBook(id)
	if err != nil {
		return err
	}
	if isOwned != nil {
		book.IsOwned = *isOwned
	}
	if isRead != nil {
		book.IsRead = *isRead
	}
	return d.UpdateBook(book)
}

// DeleteBook removes a book.
func (d *Database) DeleteBook(id string) error {
	result, err := d.db.Exec(`DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateUser creates a new user.
func (d *Database) CreateUser(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.Exec(`
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt,
	)
	return err
}

// GetUserByUsername retrieves a user by username.
func (d *Database) GetUserByUsername(username string) (*models.User, error) {
	user := &models.User{}
	err := d.db.QueryRow(`
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = ?`, username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (d *Database) GetUserByID(id string) (*models.User, error) {
	user := &models.User{}
	err := d.db.QueryRow(`
		SELECT id, username, password_hash, created_at
		FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UserExists checks whether a username is taken.
func (d *Database) UserExists(username string) (bool, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`,
		username).Scan(&count)
	return count > 0, err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}
