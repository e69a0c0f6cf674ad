package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentverse/internal/app/commands"
	domainlease "rentverse/internal/domain/lease"
	domainpolicy "rentverse/internal/domain/policy"
	domainproperty "rentverse/internal/domain/property"
	"rentverse/internal/domain/shared/daterange"
	"rentverse/internal/domain/shared/money"
)

// statusForError maps domain sentinels to HTTP statuses. Anything not listed
// is treated as an internal failure so infra errors never leak as 4xx.
func statusForError(err error) int {
	switch {
	case errors.Is(err, commands.ErrInvalidCommand),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, domainlease.ErrStartDateInPast),
		errors.Is(err, domainlease.ErrTenantRequired),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, money.ErrNegativeAmount):
		return http.StatusBadRequest
	case errors.Is(err, domainlease.ErrNotFound),
		errors.Is(err, domainproperty.ErrNotFound),
		errors.Is(err, domainproperty.ErrApprovalNotFound),
		errors.Is(err, domainpolicy.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainlease.ErrAccessDenied),
		errors.Is(err, domainproperty.ErrAccessDenied),
		errors.Is(err, domainlease.ErrSelfLease):
		return http.StatusForbidden
	case errors.Is(err, domainlease.ErrDateConflict),
		errors.Is(err, domainlease.ErrInvalidState),
		errors.Is(err, domainlease.ErrPropertyUnavailable),
		errors.Is(err, domainproperty.ErrInvalidState),
		errors.Is(err, domainproperty.ErrApprovalAlreadyFinal),
		errors.Is(err, domainproperty.ErrStatusMismatch):
		return http.StatusConflict
	case errors.Is(err, domainlease.ErrReasonRequired),
		errors.Is(err, domainproperty.ErrReviewNotesRequired):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainlease.ErrLockTimeout):
		// Retryable: the property calendar was busy past the deadline.
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusForError(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body = gin.H{"error": "internal error"}
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, body)
}
