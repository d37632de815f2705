package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"country_fetcher/internal/domain"
)

type CountrySource interface {
	Name() string
	FetchCountries(ctx context.Context) ([]domain.RawCountry, error)
}

type RateSource interface {
	Name() string
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

type Enricher interface {
	Enrich(raw domain.RawCountry, rates map[string]decimal.Decimal, refreshedAt time.Time) (domain.Country, bool)
}

type CountryStore interface {
	UpsertBatch(ctx context.Context, countries []domain.Country) error
	TopByGDP(ctx context.Context, n int) ([]domain.RankedCountry, error)
	List(ctx context.Context, filter domain.CountryFilter) ([]domain.Country, error)
	GetByName(ctx context.Context, name string) (*domain.Country, error)
	DeleteByName(ctx context.Context, name string) error
}

type StatusStore interface {
	Get(ctx context.Context) (*domain.RefreshStatus, error)
	Update(ctx context.Context, total int64, refreshedAt time.Time) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Renderer interface {
	Render(top []domain.RankedCountry, total int64, lastRefresh time.Time) ([]byte, error)
}

type ArtifactStore interface {
	Put(ctx context.Context, data []byte) error
	Get(ctx context.Context) ([]byte, error)
}

type Publisher interface {
	PublishRefresh(ctx context.Context, result *domain.RefreshResult) error
	Close() error
}
