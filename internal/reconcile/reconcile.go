// Package reconcile folds search results from multiple catalogs into one
// record per book. Records are clustered by transitive ISBN overlap and each
// cluster merged with per-field precedence rules; results without any ISBN
// are deduplicated by normalized title and author afterwards.
//
// The fold is pure and order-sensitive: "first non-blank wins" ties resolve
// in input order, so callers feed sources in a fixed priority order rather
// than arrival order.
package reconcile

import (
	"strings"

	"github.com/Nadyita/Readle-sub000/internal/models"
)

// SourcePriority is the trust order among sources for tie-breaking.
var SourcePriority = []models.Source{
	models.SourceDNB,
	models.SourceGoogleBooks,
	models.SourceISBNDB,
	models.SourceOpenLibrary,
}

// DescriptionSource delivers the best prose descriptions and wins the
// description pick whenever it contributed one.
const DescriptionSource = models.SourceGoogleBooks

// Options configure merge heuristics. Both defaults are known to be wrong
// for some inputs (an omnibus whose long title is the correct one, say), but
// changing them changes observable merge output, so they are settings rather
// than fixes.
type Options struct {
	// PreferLongestTitle inverts the shortest-title-wins rule. The default
	// keeps the shortest title: longer variants usually carry appended
	// series or subtitle clutter from online-only editions.
	PreferLongestTitle bool
}

// MergeDuplicates merges with default options.
func MergeDuplicates(records []models.BookResult) []models.BookResult {
	return MergeDuplicatesWith(records, Options{})
}

// MergeDuplicatesWith clusters records sharing at least one normalized ISBN
// (transitive closure), merges each cluster into one record, and drops
// ISBN-less records whose normalized title+author was already seen.
func MergeDuplicatesWith(records []models.BookResult, opts Options) []models.BookResult {
	if len(records) < 2 {
		return records
	}

	uf := newUnionFind(len(records))
	byISBN := make(map[string]int)
	for i, rec := range records {
		for _, isbn := range allNormalizedISBNs(&rec) {
			if first, seen := byISBN[isbn]; seen {
				uf.union(first, i)
			} else {
				byISBN[isbn] = i
			}
		}
	}

	// Collect components in first-member order so merge output stays
	// deterministic with respect to the input order.
	componentOf := make(map[int][]int)
	var roots []int
	for i := range records {
		root := uf.find(i)
		if _, seen := componentOf[root]; !seen {
			roots = append(roots, root)
		}
		componentOf[root] = append(componentOf[root], i)
	}

	merged := make([]models.BookResult, 0, len(roots))
	seenKeys := make(map[string]bool)
	for _, root := range roots {
		cluster := make([]models.BookResult, 0, len(componentOf[root]))
		for _, idx := range componentOf[root] {
			cluster = append(cluster, records[idx])
		}
		result := mergeCluster(cluster, opts)

		if !result.HasISBN() {
			key := dedupKey(result.Title, result.Author)
			if seenKeys[key] {
				continue
			}
			seenKeys[key] = true
		}
		merged = append(merged, result)
	}
	return merged
}

func mergeCluster(cluster []models.BookResult, opts Options) models.BookResult {
	if len(cluster) == 1 {
		return cluster[0]
	}

	out := models.BookResult{
		Title:  cluster[0].Title,
		Author: cluster[0].Author, // duplicate records agree on authors
	}

	for _, rec := range cluster[1:] {
		if rec.Title == "" {
			continue
		}
		shorter := len(rec.Title) < len(out.Title)
		if out.Title == "" || shorter != opts.PreferLongestTitle {
			out.Title = rec.Title
		}
	}

	seriesFrom := pickSeries(cluster)
	if seriesFrom >= 0 {
		out.Series = cluster[seriesFrom].Series
		out.SeriesNumber = cluster[seriesFrom].SeriesNumber
	}
	descriptionFrom := pickDescription(cluster)
	if descriptionFrom >= 0 {
		out.Description = cluster[descriptionFrom].Description
	}

	for _, rec := range cluster {
		if out.Publisher == "" {
			out.Publisher = rec.Publisher
		}
		if out.PublishDate == "" {
			out.PublishDate = rec.PublishDate
		}
		if out.Language == "" {
			out.Language = rec.Language
		}
		if out.CoverURL == "" {
			out.CoverURL = rec.CoverURL
		}
	}

	seen := make(map[string]bool)
	for _, rec := range cluster {
		for _, isbn := range append([]string{rec.ISBN}, rec.AllISBNs...) {
			if isbn == "" || seen[NormalizeISBN(isbn)] {
				continue
			}
			seen[NormalizeISBN(isbn)] = true
			out.AllISBNs = append(out.AllISBNs, isbn)
		}
	}
	if len(out.AllISBNs) > 0 {
		out.ISBN = out.AllISBNs[0]
	}

	switch {
	case seriesFrom >= 0:
		out.Source = cluster[seriesFrom].Source
	case descriptionFrom >= 0:
		out.Source = cluster[descriptionFrom].Source
	default:
		out.Source = cluster[0].Source
	}
	return out
}

// pickSeries prefers a member carrying both series name and number over one
// with a name only, in input order.
func pickSeries(cluster []models.BookResult) int {
	nameOnly := -1
	for i, rec := range cluster {
		if rec.Series == "" {
			continue
		}
		if rec.SeriesNumber != "" {
			return i
		}
		if nameOnly < 0 {
			nameOnly = i
		}
	}
	return nameOnly
}

// pickDescription prefers the designated high-quality source, then walks the
// source priority order, then takes any non-blank description.
func pickDescription(cluster []models.BookResult) int {
	for i, rec := range cluster {
		if rec.Source == DescriptionSource && rec.Description != "" {
			return i
		}
	}
	for _, source := range SourcePriority {
		for i, rec := range cluster {
			if rec.Source == source && rec.Description != "" {
				return i
			}
		}
	}
	for i, rec := range cluster {
		if rec.Description != "" {
			return i
		}
	}
	return -1
}

// NormalizeISBN strips everything but digits and the ISBN-10 check character
// X. No checksum validation; catalogs disagree on hyphenation, not digits.
func NormalizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(isbn) {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allNormalizedISBNs(rec *models.BookResult) []string {
	var out []string
	seen := make(map[string]bool)
	for _, isbn := range append([]string{rec.ISBN}, rec.AllISBNs...) {
		n := NormalizeISBN(isbn)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

const dedupKeyLength = 50

func dedupKey(title, author string) string {
	return normKey(title) + "|" + normKey(author)
}

func normKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	key := b.String()
	if len(key) > dedupKeyLength {
		key = key[:dedupKeyLength]
	}
	return key
}

// unionFind is a plain disjoint-set with path compression.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

// union keeps the smaller root so component order follows input order.
func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if ra > rb {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
}
