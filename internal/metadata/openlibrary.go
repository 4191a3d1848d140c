package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/Nadyita/Readle-sub000/internal/models"
	"github.com/Nadyita/Readle-sub000/internal/normalize"
)

// OpenLibraryProvider queries the Open Library search and edition APIs.
type OpenLibraryProvider struct {
	client   *http.Client
	baseURL  string
	coverURL string
}

func NewOpenLibraryProvider() *OpenLibraryProvider {
	return &OpenLibraryProvider{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  "https://openlibrary.org",
		coverURL: "https://covers.openlibrary.org",
	}
}

func (p *OpenLibraryProvider) Name() models.Source {
	return models.SourceOpenLibrary
}

type olSearchResponse struct {
	NumFound int           `json:"numFound"`
	Docs     []olSearchDoc `json:"docs"`
}

type olSearchDoc struct {
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	Publisher        []string `json:"publisher"`
	FirstPublishYear int      `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
	CoverI           int      `json:"cover_i"`
	Language         []string `json:"language"`
}

// olEdition is the /isbn/ endpoint shape. Description arrives either as a
// plain string or as a {type, value} object.
type olEdition struct {
	Title       string   `json:"title"`
	Publishers  []string `json:"publishers"`
	PublishDate string   `json:"publish_date"`
	ISBN10      []string `json:"isbn_10"`
	ISBN13      []string `json:"isbn_13"`
	Covers      []int    `json:"covers"`
	Description any      `json:"description"`
}

func (p *OpenLibraryProvider) Search(ctx context.Context, query string) ([]models.BookResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "20")
	params.Set("fields", "title,author_name,publisher,first_publish_year,isbn,cover_i,language")

	var data olSearchResponse
	if err := p.getJSON(ctx, p.baseURL+"/search.json?"+params.Encode(), &data); err != nil {
		return nil, err
	}
	if data.NumFound == 0 {
		return nil, ErrNoMatch
	}

	var results []models.BookResult
	for _, doc := range data.Docs {
		if doc.Title == "" {
			continue
		}
		result := models.BookResult{
			Title:     norm.NFC.String(normalize.Title(doc.Title)),
			Author:    norm.NFC.String(normalize.Author(strings.Join(doc.AuthorName, "; "))),
			Publisher: first(doc.Publisher),
			Language:  first(doc.Language),
			Source:    p.Name(),
		}
		if doc.FirstPublishYear > 0 {
			result.PublishDate = strconv.Itoa(doc.FirstPublishYear)
		}
		for _, isbn := range doc.ISBN {
			isbn = CleanISBN(isbn)
			if isbn == "" {
				continue
			}
			if result.ISBN == "" || len(result.ISBN) == 10 && len(isbn) == 13 {
				result.ISBN = isbn
			}
			result.AllISBNs = append(result.AllISBNs, isbn)
		}
		if doc.CoverI > 0 {
			result.CoverURL = fmt.Sprintf("%s/b/id/%d-M.jpg", p.coverURL, doc.CoverI)
		} else if result.ISBN != "" {
			result.CoverURL = fmt.Sprintf("%s/b/isbn/%s-M.jpg", p.coverURL, result.ISBN)
		}
		results = append(results, result)
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}
	return results, nil
}

func (p *OpenLibraryProvider) LookupISBN(ctx context.Context, isbn string) ([]models.BookResult, error) {
	isbn = CleanISBN(isbn)
	if isbn == "" {
		return nil, ErrNoMatch
	}

	var edition olEdition
	if err := p.getJSON(ctx, fmt.Sprintf("%s/isbn/%s.json", p.baseURL, isbn), &edition); err != nil {
		return nil, err
	}
	if edition.Title == "" {
		return nil, ErrNoMatch
	}

	// The edition endpoint references authors by key only; resolving them
	// costs one request each, so the author stays blank and the merge fills
	// it from another source.
	result := models.BookResult{
		Title:       norm.NFC.String(normalize.Title(edition.Title)),
		Publisher:   first(edition.Publishers),
		PublishDate: yearOf(edition.PublishDate),
		Source:      p.Name(),
	}
	for _, id := range append(edition.ISBN13, edition.ISBN10...) {
		if id = CleanISBN(id); id != "" {
			if result.ISBN == "" {
				result.ISBN = id
			}
			result.AllISBNs = append(result.AllISBNs, id)
		}
	}
	switch desc := edition.Description.(type) {
	case string:
		result.Description = desc
	case map[string]any:
		if value, ok := desc["value"].(string); ok {
			result.Description = value
		}
	}
	if len(edition.Covers) > 0 {
		result.CoverURL = fmt.Sprintf("%s/b/id/%d-M.jpg", p.coverURL, edition.Covers[0])
	} else {
		result.CoverURL = fmt.Sprintf("%s/b/isbn/%s-M.jpg", p.coverURL, isbn)
	}
	return []models.BookResult{result}, nil
}

func (p *OpenLibraryProvider) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
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
		return fmt.Errorf("openlibrary: unexpected status %d", resp.StatusCode)
	}
}

func first(s []string) string {
	if len(s) > 0 {
		return s[0]
	}
	return ""
}
