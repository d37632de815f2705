// Package source holds the HTTP plumbing shared by the upstream data
// providers. Provider clients live in subpackages.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"country_fetcher/internal/domain"
)

const userAgent = "CountryFetcher/1.0"

// GetJSON performs a single GET and decodes the JSON body into v. Every
// failure is reported as domain.SourceUnavailable for the named source.
func GetJSON(ctx context.Context, client *http.Client, name, url string, v any) error {
	if err := getJSON(ctx, client, url, v); err != nil {
		return domain.SourceUnavailable(name, err)
	}
	return nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
