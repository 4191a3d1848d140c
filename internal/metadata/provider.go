// Package metadata queries external book catalogs and merges their answers
// into one result list. Providers run concurrently but their results are
// collected in a fixed priority order, so merge tie-breaks stay deterministic
// no matter which API answers first.
package metadata

import (
	"context"
	"errors"

	"github.com/Nadyita/Readle-sub000/internal/models"
)

// Common provider errors.
var (
	ErrNoMatch      = errors.New("no matching metadata found")
	ErrRateLimited  = errors.New("rate limited by provider")
	ErrProviderDown = errors.New("metadata provider unavailable")
)

// Provider is one external catalog. Implementations return results already in
// canonical form: article transposed to the title suffix, authors as
// "Last, First; Last, First".
type Provider interface {
	// Name returns the source identifier the results carry.
	Name() models.Source

	// Search finds books by free-text query.
	Search(ctx context.Context, query string) ([]models.BookResult, error)

	// LookupISBN finds the book(s) for one ISBN (10 or 13).
	LookupISBN(ctx context.Context, isbn string) ([]models.BookResult, error)
}
