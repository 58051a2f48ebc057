package middleware

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/dental-api/internal/handler"
)

var validationMessages = map[string]string{
	"required": "Field is required",
	"gte":      "Value is too small",
	"oneof":    "Value is not allowed",
}

// FieldErrors turns binding and validation failures into per-field
// messages. It returns nil for any other error.
func FieldErrors(err error) []handler.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]handler.FieldError, 0, len(verrs))
		for _, e := range verrs {
			msg := validationMessages[e.Tag()]
			if msg == "" {
				msg = e.Error()
			}
			out = append(out, handler.FieldError{Field: e.Field(), Message: msg})
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return []handler.FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s", typeErr.Type),
		}}
	}
	return nil
}
