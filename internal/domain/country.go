package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Country is an enriched, persisted country record keyed by Name.
type Country struct {
	ID              int64               `db:"id" json:"id"`
	Name            string              `db:"name" json:"name"`
	Capital         *string             `db:"capital" json:"capital"`
	Region          *string             `db:"region" json:"region"`
	Population      int64               `db:"population" json:"population"`
	CurrencyCode    *string             `db:"currency_code" json:"currency_code"`
	ExchangeRate    decimal.NullDecimal `db:"exchange_rate" json:"exchange_rate"`
	EstimatedGDP    decimal.NullDecimal `db:"estimated_gdp" json:"estimated_gdp"`
	FlagURL         *string             `db:"flag_url" json:"flag_url"`
	LastRefreshedAt time.Time           `db:"last_refreshed_at" json:"last_refreshed_at"`
}

// RawCountry is a country as received from the metadata provider, before
// enrichment. Population is a pointer so a missing value is not confused with 0.
type RawCountry struct {
	Name       string
	Capital    string
	Region     string
	Population *int64
	Flag       string
	Currencies []RawCurrency
}

type RawCurrency struct {
	Code   string
	Name   string
	Symbol string
}

// RankedCountry is one line of the summary image.
type RankedCountry struct {
	Rank int    `db:"-"`
	Name string `db:"name"`
}

// CountryFilter narrows a country listing. Empty fields are not applied.
type CountryFilter struct {
	Region   string
	Currency string
	Sort     SortOrder
}

// HasFilters reports whether any equality filter is set.
func (f CountryFilter) HasFilters() bool {
	return f.Region != "" || f.Currency != ""
}

type SortOrder string

const (
	SortNone    SortOrder = ""
	SortGDPAsc  SortOrder = "gdp_asc"
	SortGDPDesc SortOrder = "gdp_desc"
)

// ParseSortOrder validates a sort selector from the query string.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case SortNone, SortGDPAsc, SortGDPDesc:
		return SortOrder(s), true
	default:
		return SortNone, false
	}
}
