package httpapi

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"country_fetcher/internal/metrics"
)

func accessLog(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is final.
				c.Error(err)
			}

			res := c.Response()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			metrics.RecordHTTPRequest(req.Method, route, strconv.Itoa(res.Status))

			logger.Info("request completed",
				"method", req.Method,
				"path", req.URL.Path,
				"route", route,
				"status_code", res.Status,
				"response_size", res.Size,
				"ip_address", c.RealIP(),
				"duration_ms", time.Since(start).Milliseconds(),
			)

			return nil
		}
	}
}
