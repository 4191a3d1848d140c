// Package api exposes the catalog and metadata search over HTTP.
package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"golang.org/x/text/unicode/norm"

	"github.com/Nadyita/Readle-sub000/internal/metadata"
	"github.com/Nadyita/Readle-sub000/internal/models"
	"github.com/Nadyita/Readle-sub000/internal/normalize"
	"github.com/Nadyita/Readle-sub000/internal/storage"
)

// Handler contains all HTTP handlers.
type Handler struct {
	db       *storage.Database
	metadata *metadata.Service
	log      *zap.Logger
}

// NewHandler creates a handler instance.
func NewHandler(db *storage.Database, metadataService *metadata.Service, log *zap.Logger) *Handler {
	return &Handler{
		db:       db,
		metadata: metadataService,
		log:      log,
	}
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SearchMetadata queries the external catalogs. Either q (free text) or isbn
// must be given; results are merged across sources and flagged when they
// match a book already in the catalog.
func (h *Handler) SearchMetadata(c *gin.Context) {
	query := c.Query("q")
	isbn := c.Query("isbn")
	if query == "" && isbn == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q or isbn parameter required"})
		return
	}

	var (
		results []models.SearchResult
		err     error
	)
	if isbn != "" {
		results, err = h.metadata.LookupISBN(c.Request.Context(), isbn)
	} else {
		results, err = h.metadata.Search(c.Request.Context(), query)
	}
	if err != nil {
		h.log.Error("metadata search failed", zap.String("query", query), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "metadata search failed"})
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// bookRequest is the mutable part of a book accepted from clients.
type bookRequest struct {
	Title        string `json:"title" binding:"required"`
	Author       string `json:"author"`
	Series       string `json:"series"`
	SeriesNumber string `json:"series_number"`
	ISBN         string `json:"isbn"`
	Description  string `json:"description"`
	Publisher    string `json:"publisher"`
	PublishDate  string `json:"publish_date"`
	Language     string `json:"language"`
	CoverURL     string `json:"cover_url"`
	IsOwned      bool   `json:"is_owned"`
	IsRead       bool   `json:"is_read"`
}

// apply canonicalizes the request into a book, keeping the submitted forms
// in the original_* columns so the record stays findable under both.
func (r *bookRequest) apply(book *models.Book) {
	book.OriginalTitle = r.Title
	book.OriginalAuthor = r.Author
	book.Title = norm.NFC.String(normalize.Title(r.Title))
	book.Author = norm.NFC.String(normalize.Author(r.Author))
	book.Series = r.Series
	book.SeriesNumber = r.SeriesNumber
	book.ISBN = metadata.CleanISBN(r.ISBN)
	book.Description = r.Description
	book.Publisher = r.Publisher
	book.PublishDate = r.PublishDate
	book.Language = r.Language
	book.CoverURL = r.CoverURL
	book.IsOwned = r.IsOwned
	book.IsRead = r.IsRead
}

// CreateBook adds a book to the catalog.
func (h *Handler) CreateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	book := &models.Book{}
	req.apply(book)
	if err := h.db.CreateBook(book); err != nil {
		h.log.Error("create book failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create book"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"book": book})
}

// ListBooks returns the catalog, filtered by ?q= when given.
func (h *Handler) ListBooks(c *gin.Context) {
	var (
		books []models.Book
		err   error
	)
	if query := c.Query("q"); query != "" {
		books, err = h.db.SearchBooks(query)
	} else {
		books, err = h.db.ListBooks()
	}
	if err != nil {
		h.log.Error("list books failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list books"})
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook returns one book.
func (h *Handler) GetBook(c *gin.Context) {
	book, err := h.db.GetBook(c.Param("id"))
	if err != nil {
		h.notFoundOrError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// UpdateBook replaces the editable fields of a book.
func (h *Handler) UpdateBook(c *gin.Context) {
	book, err := h.db.GetBook(c.Param("id"))
	if err != nil {
		h.notFoundOrError(c, err, "update book")
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	req.apply(book)
	if err := h.db.UpdateBook(book); err != nil {
		h.notFoundOrError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// SetBookFlags updates ownership and read status independently of the rest
// of the record. Absent fields stay untouched.
func (h *Handler) SetBookFlags(c *gin.Context) {
	var req struct {
		IsOwned *bool `json:"is_owned"`
		IsRead  *bool `json:"is_read"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := c.Param("id")
	if err := h.db.SetFlags(id, req.IsOwned, req.IsRead); err != nil {
		h.notFoundOrError(c, err, "set flags")
		return
	}

	book, err := h.db.GetBook(id)
	if err != nil {
		h.notFoundOrError(c, err, "set flags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"book": book})
}

// DeleteBook removes a book from the catalog.
func (h *Handler) DeleteBook(c *gin.Context) {
	if err := h.db.DeleteBook(c.Param("id")); err != nil {
		h.notFoundOrError(c, err, "delete book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}

func (h *Handler) notFoundOrError(c *gin.Context, err error, op string) {
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}
	h.log.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
}
