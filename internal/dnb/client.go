package dnb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/Nadyita/Readle-sub000/internal/marc"
	"github.com/Nadyita/Readle-sub000/internal/models"
	"github.com/Nadyita/Readle-sub000/internal/series"
)

const defaultBaseURL = "https://services.dnb.de/sru/dnb"

// Client queries the DNB SRU endpoint and parses the MARC21 payload.
type Client struct {
	client     *http.Client
	baseURL    string
	targetLang string
	log        *zap.Logger
}

// NewClient creates a DNB client filtering for the given target language
// ("de", "en"). An empty language falls back to German, the catalog's home
// turf.
func NewClient(targetLang string, log *zap.Logger) *Client {
	if targetLang == "" {
		targetLang = "de"
	}
	return &Client{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:    defaultBaseURL,
		targetLang: targetLang,
		log:        log,
	}
}

// Search runs a word search against the catalog. Records rejected by the
// parser (audio, wrong language, blank title) are dropped silently; failed
// follow-up fetches degrade to the record parsed so far.
func (c *Client) Search(ctx context.Context, query string) ([]models.BookResult, error) {
	records, err := c.fetchRecords(ctx, "WOE="+query)
	if err != nil {
		return nil, err
	}

	var results []models.BookResult
	for _, rec := range records {
		result, links, ok := ParseRecord(rec, c.targetLang)
		if !ok {
			continue
		}
		c.resolveLinks(ctx, result, links)
		results = append(results, *result)
	}
	return results, nil
}

// LookupISBN retrieves the record(s) for one ISBN.
func (c *Client) LookupISBN(ctx context.Context, isbn string) ([]models.BookResult, error) {
	return c.Search(ctx, "NUM="+isbn)
}

// resolveLinks fills in the gaps a record pointed at: a series number from a
// linked online edition, a description from an external content page. Both
// fetches are best-effort; failure leaves the record as parsed.
func (c *Client) resolveLinks(ctx context.Context, result *models.BookResult, links Links) {
	if links.OnlineEditionID != "" && result.Series != "" && result.SeriesNumber == "" {
		if number := c.lookupSeriesNumber(ctx, links.OnlineEditionID); number != "" {
			result.SeriesNumber = number
			// The title was cleaned without a number; redo it with the
			// completed series context.
			result.Title = norm.NFC.String(series.CleanupTitle(result.Title, result.Series, number))
		}
	}
	if links.DescriptionURL != "" && result.Description == "" {
		if desc := c.fetchDescription(ctx, links.DescriptionURL); utf8.RuneCountInString(desc) > minDescriptionLength {
			result.Description = desc
		}
	}
}

func (c *Client) lookupSeriesNumber(ctx context.Context, id string) string {
	records, err := c.fetchRecords(ctx, "IDN="+id)
	if err != nil {
		c.log.Debug("series follow-up fetch failed", zap.String("idn", id), zap.Error(err))
		return ""
	}
	for _, rec := range records {
		if number := SeriesNumberFromLinked(rec); number != "" {
			return number
		}
	}
	return ""
}

func (c *Client) fetchRecords(ctx context.Context, query string) ([]marc.Record, error) {
	params := url.Values{}
	params.Set("version", "1.1")
	params.Set("operation", "searchRetrieve")
	params.Set("query", query)
	params.Set("recordSchema", "MARC21-xml")
	params.Set("maximumRecords", "25")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dnb: unexpected status %d", resp.StatusCode)
	}
	return marc.ParseRecords(resp.Body)
}

func (c *Client) fetchDescription(ctx context.Context, descURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, descURL, nil)
	if err != nil {
		return ""
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("description fetch failed", zap.String("url", descURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	return StripHTML(resp.Body)
}

// StripHTML extracts the visible text of an HTML document, skipping script
// and style content, with whitespace collapsed.
func StripHTML(r io.Reader) string {
	tokenizer := html.NewTokenizer(r)
	var parts []string
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(parts, " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if text := strings.Join(strings.Fields(string(tokenizer.Text())), " "); text != "" {
				parts = append(parts, text)
			}
		}
	}
}
