package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"country_fetcher/internal/domain"
	"country_fetcher/internal/service"
)

type stubRefresher struct {
	result *domain.RefreshResult
	err    error
}

func (s *stubRefresher) Refresh(ctx context.Context) (*domain.RefreshResult, error) {
	return s.result, s.err
}

type stubCountries struct {
	countries []domain.Country
	country   *domain.Country
	status    *domain.RefreshStatus
	image     []byte
	err       error

	lastQuery service.ListQuery
	lastName  string
}

func (s *stubCountries) List(ctx context.Context, q service.ListQuery) ([]domain.Country, error) {
	s.lastQuery = q
	return s.countries, s.err
}

func (s *stubCountries) Get(ctx context.Context, name string) (*domain.Country, error) {
	s.lastName = name
	return s.country, s.err
}

func (s *stubCountries) Delete(ctx context.Context, name string) error {
	s.lastName = name
	return s.err
}

func (s *stubCountries) Status(ctx context.Context) (*domain.RefreshStatus, error) {
	return s.status, s.err
}

func (s *stubCountries) SummaryImage(ctx context.Context) ([]byte, error) {
	return s.image, s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) PingContext(ctx context.Context) error {
	return s.err
}

func newTestServer(refresher Refresher, countries Countries, db Pinger) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(Config{Addr: ":0", ShutdownTimeout: time.Second}, refresher, countries, db, logger)
}

func serve(t *testing.T, srv *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRefresh(t *testing.T) {
	at := time.Date(2025, 10, 22, 14, 30, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		srv := newTestServer(&stubRefresher{result: &domain.RefreshResult{Processed: 250, Skipped: 2, LastRefreshedAt: at}}, &stubCountries{}, stubPinger{})

		rec := serve(t, srv, http.MethodPost, "/countries/refresh")

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Data refreshed successfully. 250 countries updated.", body["message"])
		assert.EqualValues(t, 250, body["processed_count"])
		assert.EqualValues(t, 2, body["skipped_count"])
		assert.Equal(t, "2025-10-22T14:30:00Z", body["last_refreshed_at"])
	})

	t.Run("source unavailable", func(t *testing.T) {
		err := domain.SourceUnavailable("restcountries.com", errors.New("dial tcp: timeout"))
		srv := newTestServer(&stubRefresher{err: err}, &stubCountries{}, stubPinger{})

		rec := serve(t, srv, http.MethodPost, "/countries/refresh")

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "External data source unavailable", body.Error)
		assert.Equal(t, domain.KindSourceUnavailable, body.Kind)
		assert.Equal(t, "restcountries.com", body.Details["source"])
		assert.NotContains(t, rec.Body.String(), "dial tcp")
	})

	t.Run("storage and render failures are 500 with kind", func(t *testing.T) {
		for _, err := range []error{
			domain.Storage(errors.New("commit transaction: connection reset")),
			domain.Render(errors.New("encode png")),
		} {
			srv := newTestServer(&stubRefresher{err: err}, &stubCountries{}, stubPinger{})

			rec := serve(t, srv, http.MethodPost, "/countries/refresh")

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, domain.KindOf(err), decodeError(t, rec).Kind)
			assert.NotContains(t, rec.Body.String(), "connection reset")
		}
	})

	t.Run("unclassified error hides detail", func(t *testing.T) {
		srv := newTestServer(&stubRefresher{err: errors.New("pq: password authentication failed")}, &stubCountries{}, stubPinger{})

		rec := serve(t, srv, http.MethodPost, "/countries/refresh")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "Internal server error", body.Error)
		assert.Equal(t, domain.KindInternal, body.Kind)
		assert.NotContains(t, rec.Body.String(), "password")
	})
}

func TestListCountries(t *testing.T) {
	t.Run("passes query params and renders nulls", func(t *testing.T) {
		countries := &stubCountries{countries: []domain.Country{
			{
				ID:           1,
				Name:         "Freeland",
				Population:   500,
				EstimatedGDP: decimal.NewNullDecimal(decimal.Zero),
			},
		}}
		srv := newTestServer(&stubRefresher{}, countries, stubPinger{})

		rec := serve(t, srv, http.MethodGet, "/countries?region=Africa&currency=NGN&sort=gdp_desc")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, service.ListQuery{Region: "Africa", Currency: "NGN", Sort: "gdp_desc"}, countries.lastQuery)

		var body []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body, 1)
		assert.Nil(t, body[0]["exchange_rate"])
		assert.Nil(t, body[0]["currency_code"])
		assert.NotNil(t, body[0]["estimated_gdp"])
	})

	t.Run("validation error", func(t *testing.T) {
		err := domain.Validation("Invalid query parameter", map[string]string{"sort": "must be 'gdp_asc' or 'gdp_desc'"})
		srv := newTestServer(&stubRefresher{}, &stubCountries{err: err}, stubPinger{})

		rec := serve(t, srv, http.MethodGet, "/countries?sort=name")

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, domain.KindValidation, body.Kind)
		assert.Contains(t, body.Details, "sort")
	})
}

func TestGetCountry(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		countries := &stubCountries{country: &domain.Country{ID: 3, Name: "Côte d'Ivoire", Population: 1}}
		srv := newTestServer(&stubRefresher{}, countries, stubPinger{})

		rec := serve(t, srv, http.MethodGet, "/countries/C%C3%B4te%20d'Ivoire")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Côte d'Ivoire", countries.lastName)
		assert.Contains(t, rec.Body.String(), `"name":"Côte d'Ivoire"`)
	})

	t.Run("not found", func(t *testing.T) {
		err := domain.NotFound("Country not found", map[string]string{"name": "Atlantis"})
		srv := newTestServer(&stubRefresher{}, &stubCountries{err: err}, stubPinger{})

		rec := serve(t, srv, http.MethodGet, "/countries/Atlantis")

		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "Country not found", body.Error)
		assert.Equal(t, domain.KindNotFound, body.Kind)
	})
}

func TestDeleteCountry(t *testing.T) {
	countries := &stubCountries{}
	srv := newTestServer(&stubRefresher{}, countries, stubPinger{})

	rec := serve(t, srv, http.MethodDelete, "/countries/Ghana")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Ghana", countries.lastName)
	assert.Empty(t, rec.Body.String())
}

func TestStatus(t *testing.T) {
	t.Run("never refreshed", func(t *testing.T) {
		srv := newTestServer(&stubRefresher{}, &stubCountries{status: &domain.RefreshStatus{}}, stubPinger{})

		rec := serve(t, srv, http.MethodGet, "/status")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"total_countries":0,"last_refreshed_at":null}`, rec.Body.String())
	})

	t.Run("after refresh", func(t *testing.T) {
		at := time.Date(2025, 10, 22, 14, 30, 0, 0, time.UTC)
		srv := newTestServer(&stubRefresher{}, &stubCountries{status: &domain.RefreshStatus{TotalCountries: 250, LastRefreshedAt: &at}}, stubPinger{})

		rec := serve(t, srv, http.MethodGet, "/status")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"total_countries":250,"last_refreshed_at":"2025-10-22T14:30:00Z"}`, rec.Body.String())
	})
}

func TestSummaryImage(t *testing.T) {
	t.Run("serves png", func(t *testing.T) {
		png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
		srv := newTestServer(&stubRefresher{}, &stubCountries{image: png}, stubPinger{})

		rec := serve(t, srv, http.MethodGet, "/countries/image")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, png, rec.Body.Bytes())
	})

	t.Run("missing", func(t *testing.T) {
		srv := newTestServer(&stubRefresher{}, &stubCountries{err: domain.NotFound("Summary image not found", nil)}, stubPinger{})

		rec := serve(t, srv, http.MethodGet, "/countries/image")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Summary image not found", decodeError(t, rec).Error)
	})
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&stubRefresher{}, &stubCountries{}, stubPinger{})
	rec := serve(t, srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	srv = newTestServer(&stubRefresher{}, &stubCountries{}, stubPinger{err: errors.New("connection refused")})
	rec = serve(t, srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(&stubRefresher{}, &stubCountries{status: &domain.RefreshStatus{}}, stubPinger{})
	serve(t, srv, http.MethodGet, "/status")

	rec := serve(t, srv, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "country_fetcher_http_requests_total"))
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(&stubRefresher{}, &stubCountries{}, stubPinger{})

	rec := serve(t, srv, http.MethodGet, "/nope")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.KindNotFound, decodeError(t, rec).Kind)
}

func TestPanicIsInternalError(t *testing.T) {
	srv := newTestServer(&panicRefresher{}, &stubCountries{}, stubPinger{})

	rec := serve(t, srv, http.MethodPost, "/countries/refresh")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, domain.KindInternal, decodeError(t, rec).Kind)
}

type panicRefresher struct{}

func (panicRefresher) Refresh(ctx context.Context) (*domain.RefreshResult, error) {
	panic("boom")
}
