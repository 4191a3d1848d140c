package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/Nadyita/Readle-sub000/internal/models"
	"github.com/Nadyita/Readle-sub000/internal/normalize"
)

// ISBNDBProvider queries the ISBNdb REST API. All endpoints require an API
// key; a provider built without one reports ErrProviderDown.
type ISBNDBProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewISBNDBProvider(apiKey string) *ISBNDBProvider {
	return &ISBNDBProvider{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://api2.isbndb.com",
		apiKey:  apiKey,
	}
}

func (p *ISBNDBProvider) Name() models.Source {
	return models.SourceISBNDB
}

type isbndbBook struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher"`
	DatePublished string   `json:"date_published"`
	Synopsis      string   `json:"synopsis"`
	ISBN          string   `json:"isbn"`
	ISBN13        string   `json:"isbn13"`
	Language      string   `json:"language"`
	Image         string   `json:"image"`
}

type isbndbSearchResponse struct {
	Total int          `json:"total"`
	Books []isbndbBook `json:"books"`
}

type isbndbBookResponse struct {
	Book isbndbBook `json:"book"`
}

func (p *ISBNDBProvider) Search(ctx context.Context, query string) ([]models.BookResult, error) {
	var data isbndbSearchResponse
	if err := p.getJSON(ctx, "/books/"+url.PathEscape(query)+"?pageSize=20", &data); err != nil {
		return nil, err
	}
	if data.Total == 0 {
		return nil, ErrNoMatch
	}

	var results []models.BookResult
	for i := range data.Books {
		if result := p.convert(&data.Books[i]); result != nil {
			results = append(results, *result)
		}
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}
	return results, nil
}

func (p *ISBNDBProvider) LookupISBN(ctx context.Context, isbn string) ([]models.BookResult, error) {
	var data isbndbBookResponse
	if err := p.getJSON(ctx, "/book/"+url.PathEscape(CleanISBN(isbn)), &data); err != nil {
		return nil, err
	}
	result := p.convert(&data.Book)
	if result == nil {
		return nil, ErrNoMatch
	}
	return []models.BookResult{*result}, nil
}

func (p *ISBNDBProvider) convert(book *isbndbBook) *models.BookResult {
	if book.Title == "" {
		return nil
	}
	result := &models.BookResult{
		Title:       norm.NFC.String(normalize.Title(book.Title)),
		Author:      norm.NFC.String(normalize.Author(strings.Join(book.Authors, "; "))),
		Description: book.Synopsis,
		Publisher:   book.Publisher,
		PublishDate: yearOf(book.DatePublished),
		Language:    book.Language,
		CoverURL:    book.Image,
		Source:      p.Name(),
	}
	for _, isbn := range []string{book.ISBN13, book.ISBN} {
		if isbn = CleanISBN(isbn); isbn != "" {
			if result.ISBN == "" {
				result.ISBN = isbn
			}
			result.AllISBNs = append(result.AllISBNs, isbn)
		}
	}
	return result
}

func (p *ISBNDBProvider) getJSON(ctx context.Context, path string, out any) error {
	if p.apiKey == "" {
		return ErrProviderDown
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusNotFound:
		return ErrNoMatch
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("isbndb: unexpected status %d", resp.StatusCode)
	}
}
