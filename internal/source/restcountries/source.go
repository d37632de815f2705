package restcountries

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"country_fetcher/internal/domain"
	"country_fetcher/internal/source"
)

const (
	SourceID   = "restcountries"
	SourceName = "restcountries.com"
)

// Config holds restcountries source configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Source reads country metadata from the restcountries API.
type Source struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		logger:  logger.With("source", SourceID),
	}
}

func (s *Source) Name() string {
	return SourceName
}

// FetchCountries performs one request, without retry.
func (s *Source) FetchCountries(ctx context.Context) ([]domain.RawCountry, error) {
	var countries []Country
	if err := source.GetJSON(ctx, s.httpClient, SourceName, s.baseURL, &countries); err != nil {
		s.logger.Warn("fetch countries failed", "error", err)
		return nil, err
	}

	s.logger.Debug("fetched countries", "count", len(countries))

	return transform(countries), nil
}

func transform(countries []Country) []domain.RawCountry {
	raw := make([]domain.RawCountry, 0, len(countries))

	for _, c := range countries {
		rc := domain.RawCountry{
			Name:       c.Name,
			Capital:    c.Capital,
			Region:     c.Region,
			Population: c.Population,
			Flag:       c.Flag,
		}

		for _, cur := range c.Currencies {
			rc.Currencies = append(rc.Currencies, domain.RawCurrency{
				Code:   cur.Code,
				Name:   cur.Name,
				Symbol: cur.Symbol,
			})
		}

		raw = append(raw, rc)
	}

	return raw
}
