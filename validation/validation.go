package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func NonNegative(field string, val int64, v Violations) {
	if val < 0 {
		v[field] = "must_not_be_negative"
	}
}

func Min(field string, val, minVal int64, v Violations) {
	if val < minVal {
		v[field] = "below_minimum"
	}
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report fields by their json name
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s with its `validate` tags and returns one code per failing field.
func Struct(s any) Violations {
	v := Violations{}
	err := instance().Struct(s)
	if err == nil {
		return v
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v["_"] = "invalid"
		return v
	}
	for _, fe := range verrs {
		v[fieldPath(fe)] = code(fe)
	}
	return v
}

// fieldPath drops the top-level struct name: "orderInput.ppat.buyer_name" -> "ppat.buyer_name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func code(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return "required"
	case "min", "gte", "gt":
		return "too_small"
	case "max", "lte", "lt":
		return "too_large"
	case "oneof":
		return "invalid_choice"
	case "email":
		return "invalid_email"
	default:
		return "invalid"
	}
}
