package metadata

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Nadyita/Readle-sub000/internal/match"
	"github.com/Nadyita/Readle-sub000/internal/models"
	"github.com/Nadyita/Readle-sub000/internal/reconcile"
)

// BookLister provides the local catalog for existing-book flagging.
type BookLister interface {
	ListBooks() ([]models.Book, error)
}

const defaultProviderTimeout = 20 * time.Second

// Service fans a query out to all providers, merges the answers and flags
// results that are already in the catalog. The provider order given at
// construction is the priority order for merge tie-breaks.
type Service struct {
	providers []Provider
	books     BookLister
	timeout   time.Duration
	merge     reconcile.Options
	log       *zap.Logger
}

// NewService builds a service. books may be nil, which disables
// existing-book flagging.
func NewService(books BookLister, log *zap.Logger, providers ...Provider) *Service {
	return &Service{
		providers: providers,
		books:     books,
		timeout:   defaultProviderTimeout,
		log:       log,
	}
}

// SetMergeOptions replaces the merge heuristics.
func (s *Service) SetMergeOptions(opts reconcile.Options) {
	s.merge = opts
}

// Search queries every provider concurrently and returns one merged, flagged
// result list. A provider failing is a degraded answer, not an error; Search
// errors only when no provider produced anything and at least one failed.
func (s *Service) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	return s.collect(ctx, func(ctx context.Context, p Provider) ([]models.BookResult, error) {
		return p.Search(ctx, query)
	})
}

// LookupISBN is Search for a single ISBN.
func (s *Service) LookupISBN(ctx context.Context, isbn string) ([]models.SearchResult, error) {
	return s.collect(ctx, func(ctx context.Context, p Provider) ([]models.BookResult, error) {
		return p.LookupISBN(ctx, isbn)
	})
}

func (s *Service) collect(ctx context.Context, query func(context.Context, Provider) ([]models.BookResult, error)) ([]models.SearchResult, error) {
	// Results land in the slot of their provider, not in arrival order, so
	// the merged output does not depend on network timing.
	perProvider := make([][]models.BookResult, len(s.providers))
	errs := make([]error, len(s.providers))

	var wg sync.WaitGroup
	for i, p := range s.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			results, err := query(pctx, p)
			if err != nil {
				errs[i] = err
				if !errors.Is(err, ErrNoMatch) {
					s.log.Warn("provider query failed",
						zap.String("provider", string(p.Name())),
						zap.Error(err))
				}
				return
			}
			perProvider[i] = results
			s.log.Debug("provider answered",
				zap.String("provider", string(p.Name())),
				zap.Int("results", len(results)))
		}(i, p)
	}
	wg.Wait()

	var all []models.BookResult
	for _, results := range perProvider {
		all = append(all, results...)
	}
	if len(all) == 0 {
		for _, err := range errs {
			if err != nil && !errors.Is(err, ErrNoMatch) {
				return nil, err
			}
		}
		return nil, nil
	}

	merged := reconcile.MergeDuplicatesWith(all, s.merge)
	return s.flagExisting(merged), nil
}

// flagExisting marks merged results that match a book already in the catalog.
func (s *Service) flagExisting(results []models.BookResult) []models.SearchResult {
	flagged := make([]models.SearchResult, len(results))
	for i, r := range results {
		flagged[i] = models.SearchResult{BookResult: r}
	}
	if s.books == nil {
		return flagged
	}

	books, err := s.books.ListBooks()
	if err != nil {
		s.log.Warn("catalog list failed, skipping existing-book flags", zap.Error(err))
		return flagged
	}
	for i := range flagged {
		if existing := match.FindExisting(&flagged[i].BookResult, books); existing != nil {
			flagged[i].ExistingID = existing.ID
		}
	}
	return flagged
}
