package storage

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nadyita/Readle-sub000/internal/models"
)

func setupTestDB(t *testing.T) *Database {
	tmpFile, err := os.CreateTemp("", "readle-test-*.db")
	require.NoError(t, err)
	tmpFile.Close()

	db, err := NewDatabase(tmpFile.Name())
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
		os.Remove(tmpFile.Name())
	})
	return db
}

func TestCreateAndGetBook(t *testing.T) {
	db := setupTestDB(t)

	book := &models.Book{
		Title:          "Tintenherz",
		Author:         "Funke, Cornelia",
		OriginalTitle:  "Tintenherz 1 - Tintenwelt",
		OriginalAuthor: "Cornelia Funke",
		Series:         "Tintenwelt",
		SeriesNumber:   "1",
		ISBN:           "9783551551931",
		IsOwned:        true,
	}
	require.NoError(t, db.CreateBook(book))
	assert.NotEmpty(t, book.ID)
	assert.False(t, book.DateAdded.IsZero())

	got, err := db.GetBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tintenherz", got.Title)
	assert.Equal(t, "Tintenwelt", got.Series)
	assert.True(t, got.IsOwned)
	assert.False(t, got.IsRead)
}

func TestListBooksOrder(t *testing.T) {
	db := setupTestDB(t)

	for _, b := range []models.Book{
		{Title: "Band 2", Author: "Linger, Ina", Series: "Serie", SeriesNumber: "2"},
		{Title: "Band 1", Author: "Linger, Ina", Series: "Serie", SeriesNumber: "1"},
		{Title: "Anderes", Author: "Aal, Anna"},
	} {
		book := b
		require.NoError(t, db.CreateBook(&book))
	}

	books, err := db.ListBooks()
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "Anderes", books[0].Title)
	assert.Equal(t, "Band 1", books[1].Title)
	assert.Equal(t, "Band 2", books[2].Title)
}

func TestSearchBooksMatchesOriginalForms(t *testing.T) {
	db := setupTestDB(t)

	book := &models.Book{
		Title:          "Verwandlung, Die",
		Author:         "Kafka, Franz",
		OriginalTitle:  "Die Verwandlung",
		OriginalAuthor: "Franz Kafka",
	}
	require.NoError(t, db.CreateBook(book))

	for _, query := range []string{"Verwandlung, Die", "Die Verwandlung", "Franz Kafka", "Kafka"} {
		books, err := db.SearchBooks(query)
		require.NoError(t, err)
		assert.Len(t, books, 1, "query %q", query)
	}

	books, err := db.SearchBooks("Tintenherz")
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestUpdateBookKeepsDateAddedAndReadFlag(t *testing.T) {
	db := setupTestDB(t)

	book := &models.Book{Title: "T", Author: "A", IsRead: true}
	require.NoError(t, db.CreateBook(book))
	added := book.DateAdded

	book.Title = "T2"
	book.IsRead = false // must not unread
	require.NoError(t, db.UpdateBook(book))

	got, err := db.GetBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "T2", got.Title)
	assert.True(t, got.IsRead)
	assert.Equal(t, added.Unix(), got.DateAdded.Unix())
}

func TestSetFlags(t *testing.T) {
	db := setupTestDB(t)

	book := &models.Book{Title: "T", Author: "A"}
	require.NoError(t, db.CreateBook(book))

	owned := true
	require.NoError(t, db.SetFlags(book.ID, &owned, nil))

	got, err := db.GetBook(book.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOwned)
	assert.False(t, got.IsRead)

	read := true
	require.NoError(t, db.SetFlags(book.ID, nil, &read))
	got, err = db.GetBook(book.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
}

func TestDeleteBook(t *testing.T) {
	db := setupTestDB(t)

	book := &models.Book{Title: "T", Author: "A"}
	require.NoError(t, db.CreateBook(book))
	require.NoError(t, db.DeleteBook(book.ID))

	_, err := db.GetBook(book.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.ErrorIs(t, db.DeleteBook("does-not-exist"), sql.ErrNoRows)
}

func TestCreateAndGetUser(t *testing.T) {
	db := setupTestDB(t)

	user := &models.User{Username: "testuser", PasswordHash: "hashed"}
	require.NoError(t, db.CreateUser(user))
	assert.NotEmpty(t, user.ID)

	got, err := db.GetUserByUsername("testuser")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = db.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", got.Username)

	exists, err := db.UserExists("testuser")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = db.UserExists("nobody")
	require.NoError(t, err)
	assert.False(t, exists)
}
