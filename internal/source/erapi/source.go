package erapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"country_fetcher/internal/domain"
	"country_fetcher/internal/source"
)

const (
	SourceID   = "erapi"
	SourceName = "open.er-api.com"
)

// Response is the subset of the open.er-api.com latest-rates payload we use.
type Response struct {
	Result   string                     `json:"result"`
	BaseCode string                     `json:"base_code"`
	Rates    map[string]decimal.Decimal `json:"rates"`
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Source reads USD-based exchange rates.
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

// FetchRates returns currency code -> units per USD.
func (s *Source) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var resp Response
	if err := source.GetJSON(ctx, s.httpClient, SourceName, s.baseURL, &resp); err != nil {
		s.logger.Warn("fetch rates failed", "error", err)
		return nil, err
	}

	if resp.Result != "" && resp.Result != "success" {
		err := domain.SourceUnavailable(SourceName, fmt.Errorf("unexpected result: %q", resp.Result))
		s.logger.Warn("fetch rates failed", "error", err)
		return nil, err
	}

	if resp.Rates == nil {
		resp.Rates = make(map[string]decimal.Decimal)
	}

	s.logger.Debug("fetched rates", "base", resp.BaseCode, "count", len(resp.Rates))

	return resp.Rates, nil
}
