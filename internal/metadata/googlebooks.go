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

// GoogleBooksProvider queries the Google Books volumes API.
type GoogleBooksProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewGoogleBooksProvider creates a Google Books provider. The API key is
// optional; anonymous requests work with tighter quotas.
func NewGoogleBooksProvider(apiKey string) *GoogleBooksProvider {
	return &GoogleBooksProvider{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://www.googleapis.com/books/v1",
		apiKey:  apiKey,
	}
}

func (p *GoogleBooksProvider) Name() models.Source {
	return models.SourceGoogleBooks
}

type gbVolumesResponse struct {
	TotalItems int        `json:"totalItems"`
	Items      []gbVolume `json:"items"`
}

type gbVolume struct {
	VolumeInfo gbVolumeInfo `json:"volumeInfo"`
}

type gbVolumeInfo struct {
	Title               string         `json:"title"`
	Subtitle            string         `json:"subtitle"`
	Authors             []string       `json:"authors"`
	Publisher           string         `json:"publisher"`
	PublishedDate       string         `json:"publishedDate"`
	Description         string         `json:"description"`
	IndustryIdentifiers []gbIdentifier `json:"industryIdentifiers"`
	Language            string         `json:"language"`
	ImageLinks          gbImageLinks   `json:"imageLinks"`
}

type gbIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type gbImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

func (p *GoogleBooksProvider) Search(ctx context.Context, query string) ([]models.BookResult, error) {
	return p.fetchVolumes(ctx, query)
}

func (p *GoogleBooksProvider) LookupISBN(ctx context.Context, isbn string) ([]models.BookResult, error) {
	return p.fetchVolumes(ctx, "isbn:"+CleanISBN(isbn))
}

func (p *GoogleBooksProvider) fetchVolumes(ctx context.Context, query string) ([]models.BookResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", "20")
	if p.apiKey != "" {
		params.Set("key", p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/volumes?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("googlebooks: unexpected status %d", resp.StatusCode)
	}

	var data gbVolumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.TotalItems == 0 {
		return nil, ErrNoMatch
	}

	var results []models.BookResult
	for _, item := range data.Items {
		if result := p.convertVolume(&item.VolumeInfo); result != nil {
			results = append(results, *result)
		}
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}
	return results, nil
}

func (p *GoogleBooksProvider) convertVolume(info *gbVolumeInfo) *models.BookResult {
	if info.Title == "" {
		return nil
	}

	result := &models.BookResult{
		Title:       norm.NFC.String(normalize.Title(info.Title)),
		Author:      norm.NFC.String(normalize.Author(strings.Join(info.Authors, "; "))),
		Description: info.Description,
		Publisher:   info.Publisher,
		PublishDate: yearOf(info.PublishedDate),
		Language:    info.Language,
		Source:      p.Name(),
	}

	for _, id := range info.IndustryIdentifiers {
		if id.Type != "ISBN_10" && id.Type != "ISBN_13" {
			continue
		}
		if result.ISBN == "" || id.Type == "ISBN_13" && len(result.ISBN) == 10 {
			result.ISBN = id.Identifier
		}
		result.AllISBNs = append(result.AllISBNs, id.Identifier)
	}

	if info.ImageLinks.Thumbnail != "" {
		// The API hands out http URLs; covers embed fine only over https.
		result.CoverURL = strings.Replace(info.ImageLinks.Thumbnail, "http://", "https://", 1)
	}
	return result
}

// yearOf reduces "2021-03-01" style dates to the year.
func yearOf(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return date
}

// CleanISBN removes hyphens, spaces and a urn:isbn: prefix.
func CleanISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	if len(isbn) > 9 && strings.EqualFold(isbn[:9], "urn:isbn:") {
		isbn = isbn[9:]
	}
	return isbn
}
