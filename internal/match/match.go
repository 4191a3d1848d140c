// Package match flags search results that correspond to a book already in
// the local catalog. Matching is deliberately fuzzy: catalogs disagree on
// article placement, series spelling and author order, so exact equality
// would miss most real duplicates.
package match

import (
	"strings"

	"github.com/Nadyita/Readle-sub000/internal/models"
	"github.com/Nadyita/Readle-sub000/internal/normalize"
)

// maxSeriesDistance is the edit distance still treated as the same series
// name. Two covers typos like "Wahrhheit" without conflating short names.
const maxSeriesDistance = 2

// FindExisting returns the first catalog book matching the candidate, or nil.
// A match needs a title or series equivalence plus an author overlap.
func FindExisting(candidate *models.BookResult, books []models.Book) *models.Book {
	for i := range books {
		if Matches(candidate, &books[i]) {
			return &books[i]
		}
	}
	return nil
}

// Matches reports whether the search result and the catalog book describe the
// same work.
func Matches(candidate *models.BookResult, book *models.Book) bool {
	if !titleEquivalent(candidate.Title, book.Title) &&
		!titleEquivalent(candidate.Title, book.OriginalTitle) &&
		!seriesEquivalent(candidate, book) {
		return false
	}
	return authorsOverlap(candidate.Author, book)
}

// titleEquivalent accepts exact matches, matches after stripping a leading or
// transposed article from either side, and substring containment in either
// direction. Containment catches subtitle variants like "Tintenherz" inside
// "Tintenherz: Roman".
func titleEquivalent(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	la, lb := strings.ToLower(a), strings.ToLower(b)
	sa, sb := strings.ToLower(normalize.StripArticle(a)), strings.ToLower(normalize.StripArticle(b))
	if la == lb || sa == sb || la == sb || sa == lb {
		return true
	}
	return strings.Contains(la, lb) || strings.Contains(lb, la) ||
		strings.Contains(sa, sb) || strings.Contains(sb, sa)
}

func seriesEquivalent(candidate *models.BookResult, book *models.Book) bool {
	if candidate.Series == "" || book.Series == "" {
		return false
	}
	if candidate.SeriesNumber != book.SeriesNumber {
		return false
	}
	a := strings.ToLower(normalize.StripArticle(candidate.Series))
	b := strings.ToLower(normalize.StripArticle(book.Series))
	if a == b {
		return true
	}
	return Levenshtein(a, b) <= maxSeriesDistance
}

// authorsOverlap reports whether any author token of the candidate matches
// any token of the book's author or original author fields. Tokens compare
// case-insensitively, with substring containment accepted so "Funke,
// Cornelia" still meets "Cornelia Funke".
func authorsOverlap(candidate string, book *models.Book) bool {
	candidates := authorTokens(candidate)
	local := append(authorTokens(book.Author), authorTokens(book.OriginalAuthor)...)
	for _, c := range candidates {
		for _, l := range local {
			if c == l || strings.Contains(c, l) || strings.Contains(l, c) {
				return true
			}
		}
	}
	return false
}

// authorTokens splits a semicolon-separated author list into lowercase name
// words, dropping commas.
func authorTokens(authors string) []string {
	var tokens []string
	for _, name := range strings.Split(authors, ";") {
		for _, word := range strings.Fields(name) {
			word = strings.ToLower(strings.Trim(word, ","))
			if word != "" {
				tokens = append(tokens, word)
			}
		}
	}
	return tokens
}

// Levenshtein computes the edit distance between two strings by rune, with
// the usual single-row dynamic program.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			ins := row[j-1] + 1
			del := row[j] + 1
			sub := prev
			if ra[i-1] != rb[j-1] {
				sub++
			}
			prev = row[j]
			row[j] = min(ins, del, sub)
		}
	}
	return row[len(rb)]
}
