package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/agora-debate/agora/pkg/orchestrator"
	"github.com/agora-debate/agora/pkg/store"
)

// mapStoreError maps persistence-layer and orchestrator errors to HTTP
// error responses.
func mapStoreError(err error) *echo.HTTPError {
	var validErr *store.ValidationError
	if errors.As(err, &validErr) {
		return echo.NewHTTPError(http.StatusBadRequest, validErr.Error())
	}
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if errors.Is(err, store.ErrAlreadyExists) {
		return echo.NewHTTPError(http.StatusConflict, "resource already exists")
	}
	if errors.Is(err, orchestrator.ErrNotRunning) {
		return echo.NewHTTPError(http.StatusConflict, "debate is not running")
	}
	if errors.Is(err, orchestrator.ErrAlreadyRunning) {
		return echo.NewHTTPError(http.StatusConflict, "debate already running")
	}

	// Unexpected error
	slog.Error("Unexpected store error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
