package restcountries

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"country_fetcher/internal/domain"
)

func newTestSource(url string) *Source {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{BaseURL: url, Timeout: 2 * time.Second}, logger)
}

func TestFetchCountries_Transforms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"name":"Nigeria","capital":"Abuja","region":"Africa","population":206139589,
			 "flag":"https://flagcdn.com/ng.svg",
			 "currencies":[{"code":"NGN","name":"Nigerian naira","symbol":"₦"}]},
			{"name":"Antarctica","region":"Polar","population":1000},
			{"name":"Nowhere"}
		]`)
	}))
	defer srv.Close()

	countries, err := newTestSource(srv.URL).FetchCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 3)

	ng := countries[0]
	assert.Equal(t, "Nigeria", ng.Name)
	assert.Equal(t, "Abuja", ng.Capital)
	require.NotNil(t, ng.Population)
	assert.Equal(t, int64(206139589), *ng.Population)
	require.Len(t, ng.Currencies, 1)
	assert.Equal(t, "NGN", ng.Currencies[0].Code)

	assert.Empty(t, countries[1].Currencies)
	assert.Nil(t, countries[2].Population)
}

func TestFetchCountries_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL).FetchCountries(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindSourceUnavailable, domain.KindOf(err))
	assert.Contains(t, err.Error(), "unexpected status: 502")
}

func TestFetchCountries_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not":"a list"`)
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL).FetchCountries(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.KindSourceUnavailable, domain.KindOf(err))
}

func TestFetchCountries_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestSource(url).FetchCountries(context.Background())
	require.Error(t, err)

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, SourceName, de.Details["source"])
}

func TestFetchCountries_SingleRequest(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestSource(srv.URL).FetchCountries(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
