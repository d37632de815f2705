package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"country_fetcher/internal/artifact"
	"country_fetcher/internal/domain"
)

type CountryService struct {
	countries CountryStore
	status    StatusStore
	artifacts ArtifactStore
	logger    *slog.Logger
}

func NewCountryService(countries CountryStore, status StatusStore, artifacts ArtifactStore, logger *slog.Logger) *CountryService {
	return &CountryService{
		countries: countries,
		status:    status,
		artifacts: artifacts,
		logger:    logger.With("component", "countries"),
	}
}

// ListQuery carries the raw query parameters of a listing request.
type ListQuery struct {
	Region   string
	Currency string
	Sort     string
}

func (s *CountryService) List(ctx context.Context, q ListQuery) ([]domain.Country, error) {
	sort, ok := domain.ParseSortOrder(strings.TrimSpace(q.Sort))
	if !ok {
		return nil, domain.Validation("Invalid query parameter", map[string]string{
			"sort": "must be 'gdp_asc' or 'gdp_desc'",
		})
	}

	filter := domain.CountryFilter{
		Region:   strings.TrimSpace(q.Region),
		Currency: strings.TrimSpace(q.Currency),
		Sort:     sort,
	}

	countries, err := s.countries.List(ctx, filter)
	if err != nil {
		return nil, domain.Storage(fmt.Errorf("list countries: %w", err))
	}

	if len(countries) == 0 && filter.HasFilters() {
		details := map[string]string{}
		if filter.Region != "" {
			details["region"] = filter.Region
		}
		if filter.Currency != "" {
			details["currency"] = filter.Currency
		}
		return nil, domain.Validation("No countries match the given filters", details)
	}

	return countries, nil
}

func (s *CountryService) Get(ctx context.Context, name string) (*domain.Country, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	country, err := s.countries.GetByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, countryNotFound(name)
	}
	if err != nil {
		return nil, domain.Storage(fmt.Errorf("get country: %w", err))
	}

	return country, nil
}

func (s *CountryService) Delete(ctx context.Context, name string) error {
	name, err := requireName(name)
	if err != nil {
		return err
	}

	err = s.countries.DeleteByName(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return countryNotFound(name)
	}
	if err != nil {
		return domain.Storage(fmt.Errorf("delete country: %w", err))
	}

	s.logger.Info("deleted country", "name", name)
	return nil
}

func (s *CountryService) Status(ctx context.Context) (*domain.RefreshStatus, error) {
	status, err := s.status.Get(ctx)
	if err != nil {
		return nil, domain.Storage(fmt.Errorf("get status: %w", err))
	}
	return status, nil
}

func (s *CountryService) SummaryImage(ctx context.Context) ([]byte, error) {
	data, err := s.artifacts.Get(ctx)
	if errors.Is(err, artifact.ErrNotFound) {
		return nil, domain.NotFound("Summary image not found", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("read summary image: %w", err)
	}
	return data, nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.Validation("Validation failed", map[string]string{"name": "is required"})
	}
	return name, nil
}

func countryNotFound(name string) error {
	return domain.NotFound("Country not found", map[string]string{"name": name})
}
