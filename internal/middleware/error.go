package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/dental-api/internal/handler"
	"github.com/jwalitptl/dental-api/internal/service/auth"
	"github.com/jwalitptl/dental-api/internal/store"
	"github.com/jwalitptl/dental-api/pkg/circuitbreaker"
	apperrors "github.com/jwalitptl/dental-api/pkg/errors"
)

// ErrorHandler writes the response for the last error a handler attached
// with c.Error, unless the handler already wrote one.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("Request error")
		}

		status, body := Classify(c.Errors.Last().Err)
		c.AbortWithStatusJSON(status, body)
	}
}

// Classify maps an error onto a status code and response body.
func Classify(err error) (int, *handler.Response) {
	if fields := FieldErrors(err); fields != nil {
		return http.StatusBadRequest, handler.NewValidationResponse(fields)
	}

	if appErr, ok := apperrors.As(err); ok {
		status := appErr.StatusCode()
		if status == http.StatusInternalServerError {
			return status, handler.NewErrorResponse("internal server error")
		}
		return status, handler.NewErrorResponse(appErr.Error())
	}

	switch {
	case errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest, handler.NewErrorResponse(err.Error())
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, handler.NewErrorResponse(err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, handler.NewErrorResponse("invalid email or password")
	case errors.Is(err, store.ErrNotReady),
		errors.Is(err, circuitbreaker.ErrOpen),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, handler.NewErrorResponse("storage unavailable")
	}
	return http.StatusInternalServerError, handler.NewErrorResponse("internal server error")
}
