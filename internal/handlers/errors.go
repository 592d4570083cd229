package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/sjperalta/fintera-lending/internal/finance/lifecycle"
	"github.com/sjperalta/fintera-lending/internal/finance/schedule"
	"github.com/sjperalta/fintera-lending/internal/repository"
	"github.com/sjperalta/fintera-lending/internal/services"
	"github.com/sjperalta/fintera-lending/internal/statemachine"
	"github.com/sjperalta/fintera-lending/pkg/logger"
)

var conflictErrors = []error{
	services.ErrDuplicate,
	services.ErrInvalidState,
	statemachine.ErrTransitionNotAllowed,
	lifecycle.ErrContractClosed,
	lifecycle.ErrNotEligibleForBadDebt,
}

var unprocessableErrors = []error{
	services.ErrValidation,
	schedule.ErrScheduleUnavailable,
	lifecycle.ErrUnknownStatus,
	lifecycle.ErrInvalidAmount,
	lifecycle.ErrInvalidPayout,
	lifecycle.ErrRepaymentExceedsPrincipal,
	lifecycle.ErrRecoveryExceedsOutstanding,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a service error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case isAny(err, unprocessableErrors):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error. Unexpected errors are reported to
// Sentry and never leak their message to the client.
func respondError(c *gin.Context, err error, notFoundMessage string) {
	status := statusFor(err)
	switch status {
	case http.StatusNotFound:
		c.JSON(status, gin.H{"error": notFoundMessage})
	case http.StatusInternalServerError:
		_ = c.Error(err)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		logger.Error("Request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": "Error interno del servidor"})
	default:
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

// pathID parses a numeric path parameter, answering 400 when it is not one
func pathID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador inválido"})
		return 0, false
	}
	return uint(id), true
}

// listQuery reads the common paging, search and sort parameters plus the
// named filters
func listQuery(c *gin.Context, filters ...string) *repository.ListQuery {
	query := repository.NewListQuery()
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		query.Page = page
	}
	if perPage, err := strconv.Atoi(c.DefaultQuery("per_page", "20")); err == nil && perPage > 0 {
		query.PerPage = perPage
	}
	query.Search = strings.TrimSpace(c.Query("search_term"))
	query.SortBy = c.Query("sort_by")
	query.SortDir = c.Query("sort_dir")
	for _, key := range filters {
		if val := c.Query(key); val != "" {
			query.Filters[key] = val
		}
	}
	return query
}

func pagination(query *repository.ListQuery, total int64) gin.H {
	return gin.H{
		"page":        query.Page,
		"per_page":    query.PerPage,
		"total":       total,
		"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
	}
}
