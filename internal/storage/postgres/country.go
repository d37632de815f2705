package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"country_fetcher/internal/domain"
)

const (
	upsertBatchSize = 500
	countryColumns  = 9
)

const selectCountry = `
	SELECT id, name, capital, region, population, currency_code,
		exchange_rate, estimated_gdp, flag_url, last_refreshed_at
	FROM countries`

type CountryStore struct {
	db *sqlx.DB
}

func NewCountryStore(db *sqlx.DB) *CountryStore {
	return &CountryStore{db: db}
}

func (s *CountryStore) Upsert(ctx context.Context, country *domain.Country) error {
	return s.UpsertBatch(ctx, []domain.Country{*country})
}

// UpsertBatch merges countries by name. Every mutable column is overwritten,
// NULLs included. Rows are written in name order so that concurrent refreshes
// lock rows in the same sequence. Names must be unique within one call.
func (s *CountryStore) UpsertBatch(ctx context.Context, countries []domain.Country) error {
	if len(countries) == 0 {
		return nil
	}

	sorted := slices.Clone(countries)
	slices.SortFunc(sorted, func(a, b domain.Country) int {
		return strings.Compare(a.Name, b.Name)
	})

	exec := GetExecutor(ctx, s.db)

	for start := 0; start < len(sorted); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(sorted))
		if err := upsertChunk(ctx, exec, sorted[start:end]); err != nil {
			return fmt.Errorf("upsert countries [%d:%d]: %w", start, end, err)
		}
	}

	return nil
}

func upsertChunk(ctx context.Context, exec sqlx.ExtContext, countries []domain.Country) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO countries (
		name, capital, region, population, currency_code,
		exchange_rate, estimated_gdp, flag_url, last_refreshed_at
	) VALUES `)

	args := make([]any, 0, len(countries)*countryColumns)

	for i, c := range countries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < countryColumns; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(i*countryColumns + j + 1))
		}
		sb.WriteString(")")

		args = append(args,
			c.Name,
			c.Capital,
			c.Region,
			c.Population,
			c.CurrencyCode,
			c.ExchangeRate,
			c.EstimatedGDP,
			c.FlagURL,
			c.LastRefreshedAt,
		)
	}

	sb.WriteString(`
		ON CONFLICT (name) DO UPDATE SET
			capital = EXCLUDED.capital,
			region = EXCLUDED.region,
			population = EXCLUDED.population,
			currency_code = EXCLUDED.currency_code,
			exchange_rate = EXCLUDED.exchange_rate,
			estimated_gdp = EXCLUDED.estimated_gdp,
			flag_url = EXCLUDED.flag_url,
			last_refreshed_at = EXCLUDED.last_refreshed_at`)

	_, err := exec.ExecContext(ctx, sb.String(), args...)
	return err
}

// TopByGDP returns the n countries with the highest estimated GDP, ties
// broken by name. Countries with unknown GDP come last.
func (s *CountryStore) TopByGDP(ctx context.Context, n int) ([]domain.RankedCountry, error) {
	query := `
		SELECT name FROM countries
		ORDER BY estimated_gdp DESC NULLS LAST, name ASC
		LIMIT $1`

	var top []domain.RankedCountry
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &top, query, n); err != nil {
		return nil, err
	}

	for i := range top {
		top[i].Rank = i + 1
	}

	return top, nil
}

func (s *CountryStore) List(ctx context.Context, filter domain.CountryFilter) ([]domain.Country, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Region != "" {
		args = append(args, filter.Region)
		conditions = append(conditions, "region = $"+strconv.Itoa(len(args)))
	}
	if filter.Currency != "" {
		args = append(args, filter.Currency)
		conditions = append(conditions, "currency_code = $"+strconv.Itoa(len(args)))
	}

	query := selectCountry
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch filter.Sort {
	case domain.SortGDPAsc:
		query += " ORDER BY estimated_gdp ASC NULLS LAST, name ASC"
	case domain.SortGDPDesc:
		query += " ORDER BY estimated_gdp DESC NULLS LAST, name ASC"
	default:
		query += " ORDER BY name ASC"
	}

	countries := []domain.Country{}
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &countries, query, args...); err != nil {
		return nil, err
	}

	return countries, nil
}

func (s *CountryStore) GetByName(ctx context.Context, name string) (*domain.Country, error) {
	var country domain.Country
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &country, selectCountry+" WHERE name = $1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &country, nil
}

func (s *CountryStore) DeleteByName(ctx context.Context, name string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, "DELETE FROM countries WHERE name = $1", name)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *CountryStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, "SELECT COUNT(*) FROM countries")
	return n, err
}
