package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	apierrors "github.com/stwalsh4118/permits/api/internal/errors"
	"github.com/stwalsh4118/permits/api/internal/services"
)

// notFoundMessages maps service sentinels to the 404 message sent to clients.
var notFoundMessages = []struct {
	err     error
	message string
}{
	{services.ErrPropertyNotFound, "Property not found"},
	{services.ErrPermitTypeNotFound, "Permit type not found"},
	{services.ErrGoalNotFound, "Statewide goal not found"},
	{services.ErrCheckNotFound, "Compliance check not found"},
	{services.ErrApplicationNotFound, "Application not found"},
}

// respondError writes the error envelope for a service error. A store that
// could not be reached is a 503. Anything that is neither a validation
// failure nor a known not-found becomes a 500 with the given message.
func respondError(c *gin.Context, err error, message string) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		fields := verr.Fields
		if len(fields) == 0 {
			fields = map[string]string{verr.Field: verr.Message}
		}
		apierrors.FieldErrors(c, "Validation failed for one or more fields", fields)
		return
	}

	for _, nf := range notFoundMessages {
		if errors.Is(err, nf.err) {
			apierrors.NotFound(c, nf.message)
			return
		}
	}

	if storeUnavailable(err) {
		apierrors.ServiceUnavailable(c, "Data store unavailable", err)
		return
	}

	apierrors.InternalServerError(c, message, err)
}

// storeUnavailable reports errors from a backing store that timed out or
// refused the connection, as opposed to a failed query.
func storeUnavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	return errors.Is(err, context.DeadlineExceeded) || errors.As(err, &connectErr)
}

// respondBindError writes the error envelope for a request that could not be bound.
func respondBindError(c *gin.Context, err error, message string) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		apierrors.ValidationError(c, validationErrors)
		return
	}
	apierrors.BadRequest(c, message, map[string]interface{}{
		"reason": err.Error(),
	})
}

// int64Param parses a positive integer path parameter. On failure it writes
// a 400 and returns false.
func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		apierrors.BadRequest(c, "Invalid "+name+" parameter", map[string]interface{}{
			name: c.Param(name),
		})
		return 0, false
	}
	return v, true
}

// uuidParam parses a UUID path parameter. On failure it writes a 400 naming
// what the id refers to and returns false.
func uuidParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+what+" id", map[string]interface{}{
			name: c.Param(name),
		})
		return uuid.Nil, false
	}
	return id, true
}
