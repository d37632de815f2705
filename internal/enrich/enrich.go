// Package enrich turns raw upstream country records into persistable
// countries: currency resolution, exchange-rate lookup and estimated GDP.
package enrich

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"country_fetcher/internal/domain"
)

// Config bounds the random GDP multiplier, drawn uniformly from [MultiplierMin, MultiplierMax).
type Config struct {
	MultiplierMin float64
	MultiplierMax float64
}

// Enricher is safe for concurrent use; draws from the shared generator are serialized.
type Enricher struct {
	mu  sync.Mutex
	rng *rand.Rand
	min float64
	max float64
}

func New(cfg Config, src rand.Source) *Enricher {
	return &Enricher{
		rng: rand.New(src),
		min: cfg.MultiplierMin,
		max: cfg.MultiplierMax,
	}
}

// NewSeeded builds an Enricher over a PCG generator. A zero seed uses the clock.
func NewSeeded(cfg Config, seed uint64) *Enricher {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return New(cfg, rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Enrich returns the persistable country for raw, or false when the record
// must be skipped (no name or no population).
func (e *Enricher) Enrich(raw domain.RawCountry, rates map[string]decimal.Decimal, refreshedAt time.Time) (domain.Country, bool) {
	name := strings.TrimSpace(raw.Name)
	if name == "" || raw.Population == nil || *raw.Population < 0 {
		return domain.Country{}, false
	}

	country := domain.Country{
		Name:            name,
		Capital:         optional(raw.Capital),
		Region:          optional(raw.Region),
		Population:      *raw.Population,
		FlagURL:         optional(raw.Flag),
		LastRefreshedAt: refreshedAt,
	}

	code := currencyCode(raw.Currencies)
	if code == "" {
		country.EstimatedGDP = decimal.NewNullDecimal(decimal.Zero)
		return country, true
	}
	country.CurrencyCode = &code

	rate, ok := rates[code]
	if !ok || !rate.IsPositive() {
		// Rate unknown: GDP cannot be derived and stays NULL.
		return country, true
	}

	gdp := decimal.NewFromInt(country.Population).
		Mul(decimal.NewFromFloat(e.multiplier())).
		Div(rate).
		Round(2)

	country.ExchangeRate = decimal.NewNullDecimal(rate)
	country.EstimatedGDP = decimal.NewNullDecimal(gdp)

	return country, true
}

func (e *Enricher) multiplier() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.min + e.rng.Float64()*(e.max-e.min)
}

func currencyCode(currencies []domain.RawCurrency) string {
	if len(currencies) == 0 {
		return ""
	}
	return strings.TrimSpace(currencies[0].Code)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
