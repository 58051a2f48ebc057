package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/dental-api/internal/model"
)

// TagName is shared with gin's binding tags so request types carry one set of rules.
const TagName = "binding"

var (
	once     sync.Once
	instance *validator.Validate
)

// Default returns the process-wide validator.
func Default() *validator.Validate {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New builds a validator that reports json field names and understands model.DateTime.
func New() *validator.Validate {
	v := validator.New()
	v.SetTagName(TagName)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(model.DateTime); ok && !d.IsZero() {
			return d.Unix()
		}
		return nil
	}, model.DateTime{})
	return v
}

// Struct validates obj with the default validator.
func Struct(obj interface{}) error {
	return Default().Struct(obj)
}

// Gin adapts the validator to gin's binding.StructValidator.
type Gin struct {
	v *validator.Validate
}

func NewGin(v *validator.Validate) *Gin {
	return &Gin{v: v}
}

func (g *Gin) ValidateStruct(obj interface{}) error {
	if obj == nil {
		return nil
	}
	val := reflect.ValueOf(obj)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}
	return g.v.Struct(obj)
}

func (g *Gin) Engine() interface{} {
	return g.v
}
