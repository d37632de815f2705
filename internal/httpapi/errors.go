package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"country_fetcher/internal/domain"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Kind    domain.ErrorKind  `json:"kind"`
	Details map[string]string `json:"details,omitempty"`
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:        http.StatusBadRequest,
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindSourceUnavailable: http.StatusServiceUnavailable,
	domain.KindStorage:           http.StatusInternalServerError,
	domain.KindRender:            http.StatusInternalServerError,
}

func errorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := translateError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"kind", body.Kind,
				"error", err,
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error("write error response", "error", writeErr)
		}
	}
}

func translateError(err error) (int, errorResponse) {
	var de *domain.Error
	if errors.As(err, &de) {
		if status, ok := kindStatus[de.Kind]; ok {
			return status, errorResponse{Error: de.Message, Kind: de.Kind, Details: de.Details}
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		kind := domain.KindValidation
		if he.Code == http.StatusNotFound {
			kind = domain.KindNotFound
		}
		return he.Code, errorResponse{Error: fmt.Sprint(he.Message), Kind: kind}
	}

	return http.StatusInternalServerError, errorResponse{
		Error: "Internal server error",
		Kind:  domain.KindInternal,
	}
}
