package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nadyita/Readle-sub000/internal/models"
)

func book(title, author string) models.Book {
	return models.Book{Title: title, Author: author}
}

func result(title, author string) *models.BookResult {
	return &models.BookResult{Title: title, Author: author}
}

func TestMatchesTitleForms(t *testing.T) {
	tests := []struct {
		name      string
		candidate *models.BookResult
		book      models.Book
		want      bool
	}{
		{
			"exact title",
			result("Tintenherz", "Funke, Cornelia"),
			book("Tintenherz", "Funke, Cornelia"),
			true,
		},
		{
			"transposed article vs leading article",
			result("Die Last der Krone", "Linger, Ina"),
			book("Last der Krone, Die", "Linger, Ina"),
			true,
		},
		{
			"subtitle variant via containment",
			result("Tintenherz", "Funke, Cornelia"),
			book("Tintenherz: Roman", "Funke, Cornelia"),
			true,
		},
		{
			"title match but no author overlap",
			result("Tintenherz", "Funke, Cornelia"),
			book("Tintenherz", "King, Stephen"),
			false,
		},
		{
			"different titles, no series",
			result("Tintenblut", "Funke, Cornelia"),
			book("Herr der Diebe", "Funke, Cornelia"),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.candidate, &tt.book))
		})
	}
}

func TestMatchesOriginalTitleAndAuthor(t *testing.T) {
	b := models.Book{
		Title:          "Die Verwandlung",
		OriginalTitle:  "The Metamorphosis",
		Author:         "Kafka, Franz",
		OriginalAuthor: "Franz Kafka",
	}
	assert.True(t, Matches(result("The Metamorphosis", "Kafka, Franz"), &b))
	assert.True(t, Matches(result("Die Verwandlung", "Franz Kafka"), &b))
}

func TestMatchesSeriesTypoTolerance(t *testing.T) {
	b := models.Book{
		Title:        "Ganz anderer Titel",
		Author:       "Linger, Ina",
		Series:       "Die Wahrheit der Drachen",
		SeriesNumber: "2",
	}

	candidate := &models.BookResult{
		Title:        "Neuauflage Band zwei",
		Author:       "Linger, Ina",
		Series:       "Die Wahrhheit der Drachen", // one inserted letter
		SeriesNumber: "2",
	}
	assert.True(t, Matches(candidate, &b))

	candidate.Series = "Die Wahxyzeit der Drachen" // distance 3
	assert.False(t, Matches(candidate, &b))

	candidate.Series = "Die Wahrheit der Drachen"
	candidate.SeriesNumber = "3" // right series, wrong volume
	assert.False(t, Matches(candidate, &b))
}

func TestFindExisting(t *testing.T) {
	books := []models.Book{
		book("Herr der Diebe", "Funke, Cornelia"),
		book("Tintenherz", "Funke, Cornelia"),
	}
	found := FindExisting(result("Tintenherz", "Cornelia Funke"), books)
	if assert.NotNil(t, found) {
		assert.Equal(t, "Tintenherz", found.Title)
	}
	assert.Nil(t, FindExisting(result("Inkdeath", "King, Stephen"), books))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"Wahrheit", "Wahrheit", 0},
		{"Wahrheit", "Wahrhheit", 1},
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"größe", "grösse", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b), "Levenshtein(%q, %q)", tt.a, tt.b)
	}
}
