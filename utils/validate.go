package utils

import (
	"errors"
	"reflect"
	"strings"

	"blackline/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks validate tags on s and reports every failing field. The
// message comes from the field's msg tag when present.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("validation setup", err)
	}

	t := reflect.Indirect(reflect.ValueOf(s)).Type()
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.Field(fieldPath(fe), message(t, fe)))
	}
	return apperr.Validation(fields...)
}

// fieldPath drops the root struct name: "RegisterInput.email" -> "email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(root reflect.Type, fe validator.FieldError) string {
	if sf, ok := lookupField(root, fe.StructNamespace()); ok {
		if msg := sf.Tag.Get("msg"); msg != "" {
			return msg
		}
	}
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Valid email is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	}
	return fe.Field() + " is invalid"
}

// lookupField walks a struct namespace like "OrderInput.ShippingAddress.City".
func lookupField(t reflect.Type, ns string) (reflect.StructField, bool) {
	parts := strings.Split(ns, ".")
	var sf reflect.StructField
	for _, p := range parts[1:] {
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return sf, false
		}
		if i := strings.IndexByte(p, '['); i >= 0 {
			p = p[:i]
		}
		f, ok := t.FieldByName(p)
		if !ok {
			return sf, false
		}
		sf, t = f, f.Type
		for t.Kind() == reflect.Slice || t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
	}
	return sf, true
}
