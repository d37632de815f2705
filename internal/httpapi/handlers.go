package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"country_fetcher/internal/service"
)

const healthTimeout = 2 * time.Second

type handler struct {
	refresher Refresher
	countries Countries
	db        Pinger
}

type refreshResponse struct {
	Message         string    `json:"message"`
	ProcessedCount  int       `json:"processed_count"`
	SkippedCount    int       `json:"skipped_count"`
	LastRefreshedAt time.Time `json:"last_refreshed_at"`
}

func (h *handler) refresh(c echo.Context) error {
	result, err := h.refresher.Refresh(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refreshResponse{
		Message:         fmt.Sprintf("Data refreshed successfully. %d countries updated.", result.Processed),
		ProcessedCount:  result.Processed,
		SkippedCount:    result.Skipped,
		LastRefreshedAt: result.LastRefreshedAt,
	})
}

func (h *handler) list(c echo.Context) error {
	countries, err := h.countries.List(c.Request().Context(), service.ListQuery{
		Region:   c.QueryParam("region"),
		Currency: c.QueryParam("currency"),
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countries)
}

func (h *handler) get(c echo.Context) error {
	country, err := h.countries.Get(c.Request().Context(), nameParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, country)
}

func (h *handler) delete(c echo.Context) error {
	if err := h.countries.Delete(c.Request().Context(), nameParam(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) status(c echo.Context) error {
	status, err := h.countries.Status(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

func (h *handler) image(c echo.Context) error {
	data, err := h.countries.SummaryImage(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return c.Blob(http.StatusOK, "image/png", data)
}

func (h *handler) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func nameParam(c echo.Context) string {
	raw := c.Param("name")
	name, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return name
}
