package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nadyita/Readle-sub000/internal/models"
)

func TestMergeDuplicatesTransitiveClusters(t *testing.T) {
	// A and B share one ISBN, B and C another; all three collapse into one
	// record even though A and C have no ISBN in common.
	records := []models.BookResult{
		{Title: "Tintenherz", Author: "Funke, Cornelia", ISBN: "978-3-551-55193-1", AllISBNs: []string{"978-3-551-55193-1"}, Source: models.SourceDNB},
		{Title: "Tintenherz: Roman", Author: "Funke, Cornelia", ISBN: "9783551551931", AllISBNs: []string{"9783551551931", "3551551936"}, Source: models.SourceGoogleBooks, Description: "Meggie liebt Bücher."},
		{Title: "Inkheart", Author: "Funke, Cornelia", ISBN: "3551551936", AllISBNs: []string{"3551551936"}, Source: models.SourceOpenLibrary},
		{Title: "Ganz anderes Buch", Author: "Wer, Anders", ISBN: "9783999999999", AllISBNs: []string{"9783999999999"}, Source: models.SourceDNB},
	}

	merged := MergeDuplicates(records)
	require.Len(t, merged, 2)
	assert.Equal(t, "Inkheart", merged[0].Title) // shortest wins
	assert.Equal(t, "Funke, Cornelia", merged[0].Author)
	assert.Equal(t, "Meggie liebt Bücher.", merged[0].Description)
	assert.Equal(t, "978-3-551-55193-1", merged[0].ISBN)
	// Hyphenated and plain forms of the same ISBN collapse into one entry.
	assert.ElementsMatch(t, []string{"978-3-551-55193-1", "3551551936"}, merged[0].AllISBNs)
	assert.Equal(t, "Ganz anderes Buch", merged[1].Title)
}

func TestMergeDuplicatesPreferLongestTitle(t *testing.T) {
	records := []models.BookResult{
		{Title: "Kurz", ISBN: "1", Source: models.SourceDNB},
		{Title: "Kurz und lang", ISBN: "1", Source: models.SourceGoogleBooks},
	}
	merged := MergeDuplicatesWith(records, Options{PreferLongestTitle: true})
	require.Len(t, merged, 1)
	assert.Equal(t, "Kurz und lang", merged[0].Title)
}

func TestMergeSeriesPrefersCompletePair(t *testing.T) {
	records := []models.BookResult{
		{Title: "T", ISBN: "1", Series: "Serie", Source: models.SourceDNB},
		{Title: "T", ISBN: "1", Series: "Serie", SeriesNumber: "3", Source: models.SourceISBNDB},
	}
	merged := MergeDuplicates(records)
	require.Len(t, merged, 1)
	assert.Equal(t, "Serie", merged[0].Series)
	assert.Equal(t, "3", merged[0].SeriesNumber)
	// Source follows the member that contributed the series.
	assert.Equal(t, models.SourceISBNDB, merged[0].Source)
}

func TestMergeDescriptionSourceOrder(t *testing.T) {
	records := []models.BookResult{
		{Title: "T", ISBN: "1", Description: "von openlibrary", Source: models.SourceOpenLibrary},
		{Title: "T", ISBN: "1", Description: "von dnb", Source: models.SourceDNB},
		{Title: "T", ISBN: "1", Description: "von googlebooks", Source: models.SourceGoogleBooks},
	}
	merged := MergeDuplicates(records)
	require.Len(t, merged, 1)
	assert.Equal(t, "von googlebooks", merged[0].Description)

	// Without the preferred source, priority order decides.
	merged = MergeDuplicates(records[:2])
	require.Len(t, merged, 1)
	assert.Equal(t, "von dnb", merged[0].Description)
}

func TestMergeFillsBlankScalars(t *testing.T) {
	records := []models.BookResult{
		{Title: "T", ISBN: "1", Publisher: "", PublishDate: "2020", Source: models.SourceDNB},
		{Title: "T", ISBN: "1", Publisher: "Aufbau", PublishDate: "2021", Language: "ger", CoverURL: "https://x/c.jpg", Source: models.SourceGoogleBooks},
	}
	merged := MergeDuplicates(records)
	require.Len(t, merged, 1)
	assert.Equal(t, "Aufbau", merged[0].Publisher)
	assert.Equal(t, "2020", merged[0].PublishDate) // first non-blank wins
	assert.Equal(t, "ger", merged[0].Language)
	assert.Equal(t, "https://x/c.jpg", merged[0].CoverURL)
}

func TestMergeIsbnlessDedup(t *testing.T) {
	records := []models.BookResult{
		{Title: "Die Verwandlung", Author: "Kafka, Franz", Source: models.SourceOpenLibrary},
		{Title: "DIE VERWANDLUNG!", Author: "kafka franz", Source: models.SourceGoogleBooks},
		{Title: "Die Verwandlung", Author: "Anders, Jemand", Source: models.SourceOpenLibrary},
	}
	merged := MergeDuplicates(records)
	// Same normalized title+author collapses; different author survives.
	require.Len(t, merged, 2)
	assert.Equal(t, "Kafka, Franz", merged[0].Author)
	assert.Equal(t, "Anders, Jemand", merged[1].Author)
}

func TestMergeSingleAndEmptyInputs(t *testing.T) {
	assert.Empty(t, MergeDuplicates(nil))
	one := []models.BookResult{{Title: "T"}}
	assert.Equal(t, one, MergeDuplicates(one))
}

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "3551551936", NormalizeISBN("3-551-55193-6"))
	assert.Equal(t, "355155193X", NormalizeISBN("3-551-55193-x"))
	assert.Equal(t, "", NormalizeISBN("keine"))
}
