// Package validation decodes storefront request bodies and query strings and
// checks them against their validate tags.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/formbricks/storefront/internal/api/response"
)

// ErrInvalidBody wraps JSON decoding failures.
var ErrInvalidBody = errors.New("invalid request body")

// Both are configured once in newValidate/newQueryDecoder and only read afterwards.
var (
	validate     = newValidate()
	queryDecoder = newQueryDecoder()
)

func newValidate() *validator.Validate {
	v := validator.New()

	// Messages name the wire field (json, then form), not the Go field.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "form"} {
			switch name, _, _ := strings.Cut(f.Tag.Get(key), ","); name {
			case "-":
				return ""
			case "":
			default:
				return name
			}
		}

		return f.Name
	})

	// A nil product or item id counts as missing.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if id, ok := field.Interface().(uuid.UUID); ok && id != uuid.Nil {
			return id.String()
		}

		return ""
	}, uuid.UUID{})

	mustRegister(v, "no_null_bytes", noNullBytes)
	mustRegister(v, "ascending", ascending)

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validator: %v", tag, err))
	}
}

func newQueryDecoder() *form.Decoder {
	d := form.NewDecoder()

	d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
		if len(vals) == 0 || vals[0] == "" {
			return uuid.Nil, nil
		}

		id, err := uuid.Parse(vals[0])
		if err != nil {
			return nil, fmt.Errorf("invalid UUID: %w", err)
		}

		return id, nil
	}, uuid.UUID{})

	return d
}

// Error is a failed struct validation. It unwraps to validator.ValidationErrors.
type Error struct {
	message string
	fields  validator.ValidationErrors
}

func (e *Error) Error() string { return e.message }

func (e *Error) Unwrap() error { return e.fields }

// ValidateStruct checks s against its validate tags.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return fmt.Errorf("validate: %w", err)
	}

	messages := make([]string, len(fields))
	for i, fe := range fields {
		messages[i] = describe(fe)
	}

	return &Error{message: "validation failed: " + strings.Join(messages, "; "), fields: fields}
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields and
// trailing data, then validates dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON object", ErrInvalidBody)
	}

	return ValidateStruct(dst)
}

// DecodeQueryParams decodes URL query parameters into dst using form tags.
func DecodeQueryParams(r *http.Request, dst any) error {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return fmt.Errorf("failed to decode query parameters: %w", err)
	}

	return nil
}

// ValidateAndDecodeQueryParams decodes and validates query parameters in one step.
func ValidateAndDecodeQueryParams(r *http.Request, dst any) error {
	if err := DecodeQueryParams(r, dst); err != nil {
		return err
	}

	return ValidateStruct(dst)
}

// RespondDecodeError answers a DecodeJSON or ValidateAndDecodeQueryParams failure with 400.
// Validation failures carry one problem entry per offending field.
func RespondDecodeError(w http.ResponseWriter, err error) {
	var fields validator.ValidationErrors

	switch {
	case errors.As(err, &fields):
		details := make([]response.ErrorDetail, len(fields))
		for i, fe := range fields {
			details[i] = response.ErrorDetail{Location: fe.Field(), Message: describe(fe), Value: fe.Value()}
		}

		response.RespondProblem(w, response.ProblemDetails{
			Type:   "about:blank",
			Title:  "Validation Error",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
			Errors: details,
		})
	case errors.Is(err, ErrInvalidBody):
		response.RespondBadRequest(w, "Invalid request body")
	default:
		response.RespondBadRequest(w, err.Error())
	}
}

var paramMessages = map[string]string{
	"min":   "must be at least",
	"max":   "must be at most",
	"len":   "must have length",
	"gte":   "must be greater than or equal to",
	"lte":   "must be less than or equal to",
	"oneof": "must be one of:",
}

func describe(fe validator.FieldError) string {
	field := fe.Field()

	if msg, ok := paramMessages[fe.Tag()]; ok {
		return fmt.Sprintf("%s %s %s", field, msg, fe.Param())
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "no_null_bytes":
		return field + " must not contain NULL bytes"
	case "ascending":
		return field + " must be in ascending order"
	default:
		return field + " is invalid"
	}
}

// noNullBytes rejects strings (or non-nil *string) containing NUL, which Postgres text refuses.
func noNullBytes(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return true
		}

		field = field.Elem()
	}

	if field.Kind() != reflect.String {
		return true
	}

	return !strings.ContainsRune(field.String(), 0)
}

// ascending holds for numeric slices whose elements never decrease, e.g. a [min, max] price range.
func ascending(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice && field.Kind() != reflect.Array {
		return true
	}

	for i := 1; i < field.Len(); i++ {
		prev, cur := field.Index(i-1), field.Index(i)

		switch cur.Kind() {
		case reflect.Float32, reflect.Float64:
			if cur.Float() < prev.Float() {
				return false
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if cur.Int() < prev.Int() {
				return false
			}
		default:
			return true
		}
	}

	return true
}
