// Package dnb turns MARC21 records from the Deutsche Nationalbibliothek SRU
// endpoint into book results. The catalog is rich but messy: series
// information competes across three fields, titles carry transposed articles
// and series prefixes, and audio editions share titles with the print ones.
package dnb

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/Nadyita/Readle-sub000/internal/marc"
	"github.com/Nadyita/Readle-sub000/internal/models"
	"github.com/Nadyita/Readle-sub000/internal/normalize"
	"github.com/Nadyita/Readle-sub000/internal/series"
)

// MARC21 tags the parser dispatches on.
const (
	tagISBN            = "020"
	tagLanguage        = "041"
	tagMainAuthor      = "100"
	tagTitle           = "245"
	tagPublication     = "264"
	tagMediaType       = "337"
	tagCarrierType     = "338"
	tagSeriesStatement = "490"
	tagSummary         = "520"
	tagAddedAuthor     = "700"
	tagOtherEdition    = "776"
	tagResource        = "856"
	tagSeriesPerson    = "800"
	tagSeriesUniform   = "830"
)

// Media and carrier values that mark an audio or physical-audio edition.
// Readle catalogs books; audiobooks come in through Audiobookshelf instead.
var audioKeywords = []string{"audio", "tonträger"}

// Languages accepted per target language, as codes or code prefixes. DNB
// writes ISO 639-2 into 041$a but older records carry 639-1 or locale forms.
var acceptedLanguages = map[string][]string{
	"de": {"ger", "deu", "de"},
	"en": {"eng", "en"},
}

const minDescriptionLength = 20

// UnknownAuthor is the author value for records without a usable name entry.
const UnknownAuthor = "Unknown Author"

// Links are follow-up URLs and identifiers a record points at. They are
// resolved lazily by the client, never during parsing.
type Links struct {
	// OnlineEditionID is the identifier of a linked online edition. It is
	// fetched only when the chosen series has a name but no number, since
	// the online record often carries the volume count the print one lacks.
	OnlineEditionID string
	// DescriptionURL is an external content-description page, fetched and
	// HTML-stripped only when the summary field yielded nothing usable.
	DescriptionURL string
}

// seriesInfo is one candidate series extracted from a single field.
type seriesInfo struct {
	name   string
	number string
}

// seriesCandidate extracts a series claim from one tag; nil means the field
// makes no (trustworthy) claim.
type seriesCandidate struct {
	tag     string
	extract func(f *marc.DataField) *seriesInfo
}

// seriesPriority is the fixed trust order among the competing series fields:
// the personal-name series entry wins over the uniform-title entry, which
// wins over the plain series statement. First non-nil claim is used.
var seriesPriority = []seriesCandidate{
	{tagSeriesPerson, func(f *marc.DataField) *seriesInfo {
		return newSeriesInfo(f.Subfield("t"), f.Subfield("v"))
	}},
	{tagSeriesUniform, extractUniformSeries},
	{tagSeriesStatement, extractSeriesStatement},
}

// linkedSeriesPriority is the subset used when parsing a linked online
// edition only to recover a missing series number.
var linkedSeriesPriority = seriesPriority[1:]

func extractUniformSeries(f *marc.DataField) *seriesInfo {
	// $7 is a control subfield; bibliographic level 's' marks a serial or
	// publisher series, which names no real narrative series.
	if ctrl := f.Subfield("7"); len(ctrl) > 1 && ctrl[1] == 's' {
		return nil
	}
	return newSeriesInfo(f.Subfield("a"), f.Subfield("v"))
}

func extractSeriesStatement(f *marc.DataField) *seriesInfo {
	// Indicator 0 means the series is not traced: no 800/830 entry exists
	// for it, so the statement is the only claim and worth taking. When a
	// traced entry exists it already won via the priority order.
	if f.Ind1 != "0" {
		return nil
	}
	return newSeriesInfo(f.Subfield("a"), f.Subfield("v"))
}

var numberToken = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

func newSeriesInfo(name, volume string) *seriesInfo {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	info := &seriesInfo{name: name}
	if tok := numberToken.FindString(volume); tok != "" {
		info.number = strings.ReplaceAll(tok, ",", ".")
	}
	return info
}

// ParseRecord converts one MARC record into a book result. The second return
// carries lazy follow-up pointers; ok is false when the record is filtered
// out (blank title, audio media, wrong language). Filtering is a normal
// outcome, not an error.
func ParseRecord(rec marc.Record, targetLang string) (*models.BookResult, Links, bool) {
	var links Links

	if isAudioMedia(rec) {
		return nil, links, false
	}

	title := ""
	if f := rec.First(tagTitle); f != nil {
		title = f.Subfield("a")
	}
	if title == "" {
		return nil, links, false
	}

	lang := ""
	if f := rec.First(tagLanguage); f != nil {
		lang = f.Subfield("a")
	}
	if !languageAccepted(lang, targetLang) {
		return nil, links, false
	}

	result := &models.BookResult{
		Language: lang,
		Source:   models.SourceDNB,
	}

	result.Author = parseAuthors(rec)

	if f := rec.First(tagPublication); f != nil {
		result.Publisher = f.Subfield("b")
		result.PublishDate = cleanPublishDate(f.Subfield("c"))
	}

	for _, f := range rec.Fields(tagISBN) {
		isbn := f.Subfield("a")
		if isbn == "" {
			continue
		}
		if result.ISBN == "" {
			result.ISBN = isbn
		}
		result.AllISBNs = append(result.AllISBNs, isbn)
	}

	if f := rec.First(tagSummary); f != nil {
		if summary := f.Subfield("a"); utf8.RuneCountInString(summary) > minDescriptionLength {
			result.Description = summary
		}
	}

	if info := chooseSeries(&rec, seriesPriority); info != nil {
		result.Series = info.name
		result.SeriesNumber = info.number
		if info.number == "" {
			links.OnlineEditionID = onlineEditionID(&rec)
		}
	}

	for _, f := range rec.Fields(tagResource) {
		url := f.Subfield("u")
		if url == "" {
			continue
		}
		if strings.Contains(strings.ToLower(f.Subfield("3")), "inhaltstext") {
			if links.DescriptionURL == "" {
				links.DescriptionURL = url
			}
		} else if result.CoverURL == "" && looksLikeImageURL(url) {
			result.CoverURL = url
		}
	}

	result.Title = series.CleanupTitle(title, result.Series, result.SeriesNumber)
	result.Title = norm.NFC.String(result.Title)
	result.Author = norm.NFC.String(result.Author)

	if result.CoverURL == "" && result.ISBN != "" {
		result.CoverURL = "https://portal.dnb.de/opac/mvb/cover?isbn=" + result.ISBN
	}

	return result, links, true
}

// SeriesNumberFromLinked pulls a series number out of a linked online
// edition, using only the uniform-title and series-statement fields.
func SeriesNumberFromLinked(rec marc.Record) string {
	if info := chooseSeries(&rec, linkedSeriesPriority); info != nil {
		return info.number
	}
	return ""
}

func chooseSeries(rec *marc.Record, priority []seriesCandidate) *seriesInfo {
	for _, cand := range priority {
		for _, f := range rec.Fields(cand.tag) {
			if info := cand.extract(&f); info != nil {
				return info
			}
		}
	}
	return nil
}

// parseAuthors joins the main entry and those added entries whose role is
// absent or "aut". Translators, illustrators and narrators stay out.
func parseAuthors(rec marc.Record) string {
	var authors []string
	if f := rec.First(tagMainAuthor); f != nil {
		if name := f.Subfield("a"); name != "" {
			authors = append(authors, name)
		}
	}
	for _, f := range rec.Fields(tagAddedAuthor) {
		name := f.Subfield("a")
		if name == "" {
			continue
		}
		if role := f.Subfield("4"); role != "" && role != "aut" {
			continue
		}
		authors = append(authors, name)
	}
	if len(authors) == 0 {
		return UnknownAuthor
	}
	return normalize.Author(strings.Join(authors, "; "))
}

func isAudioMedia(rec marc.Record) bool {
	for _, tag := range []string{tagMediaType, tagCarrierType} {
		for _, f := range rec.Fields(tag) {
			value := strings.ToLower(f.Subfield("a"))
			for _, kw := range audioKeywords {
				if strings.Contains(value, kw) {
					return true
				}
			}
		}
	}
	return false
}

func languageAccepted(lang, target string) bool {
	if lang == "" {
		return true
	}
	lang = strings.ToLower(lang)
	for _, accepted := range acceptedLanguages[target] {
		if strings.HasPrefix(lang, accepted) {
			return true
		}
	}
	return false
}

// onlineEditionID finds a linked edition marked "online" and returns its
// catalog identifier with the agency prefix removed.
func onlineEditionID(rec *marc.Record) string {
	for _, f := range rec.Fields(tagOtherEdition) {
		linked := false
		for _, s := range f.Subfields {
			if s.Code == "i" || s.Code == "n" {
				if strings.Contains(strings.ToLower(s.Text), "online") {
					linked = true
					break
				}
			}
		}
		if !linked {
			continue
		}
		if id := f.Subfield("w"); id != "" {
			if idx := strings.LastIndex(id, ")"); idx >= 0 {
				id = id[idx+1:]
			}
			return strings.TrimSpace(id)
		}
	}
	return ""
}

var (
	dateMarkers = strings.NewReplacer("[", "", "]", "", "©", "", "circa", "", "ca.", "")
	yearToken   = regexp.MustCompile(`\d{4}`)
)

// cleanPublishDate reduces "[2021]", "© 2019" or "circa 1999" to the year.
func cleanPublishDate(date string) string {
	return yearToken.FindString(dateMarkers.Replace(date))
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

func looksLikeImageURL(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return strings.Contains(lower, "cover")
}
