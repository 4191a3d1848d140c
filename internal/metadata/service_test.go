package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Nadyita/Readle-sub000/internal/models"
)

// fakeProvider answers from canned data after an optional delay.
type fakeProvider struct {
	name    models.Source
	results []models.BookResult
	err     error
	delay   time.Duration
}

func (f *fakeProvider) Name() models.Source { return f.name }

func (f *fakeProvider) Search(ctx context.Context, query string) ([]models.BookResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.results, f.err
}

func (f *fakeProvider) LookupISBN(ctx context.Context, isbn string) ([]models.BookResult, error) {
	return f.Search(ctx, isbn)
}

type fakeLister struct {
	books []models.Book
	err   error
}

func (f *fakeLister) ListBooks() ([]models.Book, error) { return f.books, f.err }

func TestServiceSearchMergesInPriorityOrder(t *testing.T) {
	// The slow provider is listed first and must win first-non-blank merges
	// despite answering last.
	slow := &fakeProvider{
		name:  models.SourceDNB,
		delay: 50 * time.Millisecond,
		results: []models.BookResult{{
			Title: "Tintenherz", Author: "Funke, Cornelia",
			ISBN: "9783551551931", Publisher: "Dressler", Source: models.SourceDNB,
		}},
	}
	fast := &fakeProvider{
		name: models.SourceGoogleBooks,
		results: []models.BookResult{{
			Title: "Tintenherz: Roman", Author: "Funke, Cornelia",
			ISBN: "9783551551931", Publisher: "Anders", Description: "Beschreibung",
			Source: models.SourceGoogleBooks,
		}},
	}

	svc := NewService(nil, zap.NewNop(), slow, fast)
	results, err := svc.Search(context.Background(), "Tintenherz")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Tintenherz", results[0].Title)
	assert.Equal(t, "Dressler", results[0].Publisher)
	assert.Equal(t, "Beschreibung", results[0].Description)
}

func TestServiceSearchFlagsExisting(t *testing.T) {
	provider := &fakeProvider{
		name: models.SourceDNB,
		results: []models.BookResult{
			{Title: "Tintenherz", Author: "Funke, Cornelia", ISBN: "1", Source: models.SourceDNB},
			{Title: "Unbekanntes Buch", Author: "Wer, Anders", ISBN: "2", Source: models.SourceDNB},
		},
	}
	lister := &fakeLister{books: []models.Book{
		{ID: "b-1", Title: "Tintenherz", Author: "Funke, Cornelia"},
	}}

	svc := NewService(lister, zap.NewNop(), provider)
	results, err := svc.Search(context.Background(), "Tintenherz")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b-1", results[0].ExistingID)
	assert.Empty(t, results[1].ExistingID)
}

func TestServiceSearchDegradesOnProviderFailure(t *testing.T) {
	good := &fakeProvider{
		name:    models.SourceDNB,
		results: []models.BookResult{{Title: "T", Author: "A", ISBN: "1", Source: models.SourceDNB}},
	}
	bad := &fakeProvider{name: models.SourceISBNDB, err: errors.New("boom")}

	svc := NewService(nil, zap.NewNop(), good, bad)
	results, err := svc.Search(context.Background(), "T")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestServiceSearchAllProvidersFail(t *testing.T) {
	bad := &fakeProvider{name: models.SourceISBNDB, err: errors.New("boom")}
	svc := NewService(nil, zap.NewNop(), bad)
	_, err := svc.Search(context.Background(), "T")
	assert.Error(t, err)
}

func TestServiceSearchNoMatchesIsNotAnError(t *testing.T) {
	empty := &fakeProvider{name: models.SourceDNB, err: ErrNoMatch}
	svc := NewService(nil, zap.NewNop(), empty)
	results, err := svc.Search(context.Background(), "T")
	require.NoError(t, err)
	assert.Empty(t, results)
}
