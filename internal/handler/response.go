package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/dental-api/internal/model"
)

const (
	// ContextSession is the gin context key holding the caller's *model.Session.
	ContextSession = "session"
	// ContextToken holds the bearer token the session was resolved from.
	ContextToken = "access_token"
)

type Response struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError names one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewMessageResponse(message string) *Response {
	return &Response{
		Status:  "success",
		Message: message,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

func NewValidationResponse(errs []FieldError) *Response {
	return &Response{
		Status:  "error",
		Message: "validation failed",
		Errors:  errs,
	}
}

// SessionFrom returns the session the auth middleware resolved, or nil.
func SessionFrom(c *gin.Context) *model.Session {
	if v, ok := c.Get(ContextSession); ok {
		if s, ok := v.(*model.Session); ok {
			return s
		}
	}
	return nil
}
