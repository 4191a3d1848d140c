package metadata

import (
	"context"

	"go.uber.org/zap"

	"github.com/Nadyita/Readle-sub000/internal/dnb"
	"github.com/Nadyita/Readle-sub000/internal/models"
)

// DNBProvider adapts the DNB SRU client to the provider interface. The heavy
// lifting (MARC parsing, series extraction, follow-up fetches) lives in the
// dnb package.
type DNBProvider struct {
	client *dnb.Client
}

func NewDNBProvider(targetLang string, log *zap.Logger) *DNBProvider {
	return &DNBProvider{client: dnb.NewClient(targetLang, log)}
}

func (p *DNBProvider) Name() models.Source {
	return models.SourceDNB
}

func (p *DNBProvider) Search(ctx context.Context, query string) ([]models.BookResult, error) {
	results, err := p.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}
	return results, nil
}

func (p *DNBProvider) LookupISBN(ctx context.Context, isbn string) ([]models.BookResult, error) {
	results, err := p.client.LookupISBN(ctx, CleanISBN(isbn))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}
	return results, nil
}
