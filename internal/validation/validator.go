package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ISO8601 is the layout accepted for date-time fields. Fractional seconds
// are accepted on input.
const ISO8601 = time.RFC3339

// MaxPageSize bounds the limit query parameter.
const MaxPageSize = 100

// MaxPage bounds the page query parameter so offsets cannot overflow.
const MaxPage = 1_000_000_000

var phonePattern = regexp.MustCompile(`^[\d\s\-+()]+$`)

// Validator checks structs against their validate tags and reports every
// violation as a FieldError named after the JSON field.
//
// Thread Safety:
//   - Safe for concurrent use once constructed.
type Validator struct {
	engine   *validator.Validate
	enums    map[string][]string
	messages map[string]string
}

// Option customises a Validator.
type Option func(*Validator) error

// WithEnum registers tag as a rule accepting exactly the given values.
func WithEnum(tag string, values ...string) Option {
	return func(v *Validator) error {
		allowed := slices.Clone(values)
		v.enums[tag] = allowed
		return v.engine.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return slices.Contains(allowed, fl.Field().String())
		})
	}
}

// WithMessage overrides the message for one field and rule, e.g.
// WithMessage("confirmPassword", "eqfield", "Passwords don't match").
func WithMessage(field, tag, message string) Option {
	return func(v *Validator) error {
		v.messages[field+"."+tag] = message
		return nil
	}
}

// New creates a Validator with the built-in rules plus:
//   - phone: digits, spaces and + - ( )
//   - datetime8601: an ISO 8601 / RFC 3339 timestamp
//   - notbefore=Field: a timestamp not earlier than the named sibling
//   - page: an integer string between 1 and MaxPage
//   - pagesize: an integer string between 1 and MaxPageSize
func New(opts ...Option) (*Validator, error) {
	engine := validator.New(validator.WithRequiredStructEnabled())
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"phone": func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		},
		"datetime8601": func(fl validator.FieldLevel) bool {
			_, err := time.Parse(ISO8601, fl.Field().String())
			return err == nil
		},
		"notbefore": notBefore,
		"page": func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Field().String())
			return err == nil && n > 0 && n <= MaxPage
		},
		"pagesize": func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Field().String())
			return err == nil && n > 0 && n <= MaxPageSize
		},
	}
	for tag, fn := range custom {
		if err := engine.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("registering %s: %w", tag, err)
		}
	}

	v := &Validator{
		engine:   engine,
		enums:    make(map[string][]string),
		messages: make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// notBefore compares two timestamp strings. Unparseable values pass here
// so that datetime8601 reports them.
func notBefore(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	parent := fl.Parent()
	if parent.Kind() == reflect.Pointer {
		parent = parent.Elem()
	}
	other := parent.FieldByName(fl.Param())
	if !other.IsValid() || other.Kind() != reflect.String {
		return false
	}
	end, err1 := time.Parse(ISO8601, value)
	start, err2 := time.Parse(ISO8601, other.String())
	if err1 != nil || err2 != nil {
		return true
	}
	return !end.Before(start)
}

// Struct validates s and returns Errors listing every violation, or nil.
func (v *Validator) Struct(s any) error {
	err := v.engine.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating %T: %w", s, err)
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, v.fieldError(fe))
	}
	return out
}

func (v *Validator) fieldError(fe validator.FieldError) FieldError {
	field := fe.Field()
	kind, message := v.describe(fe)
	if custom, ok := v.messages[field+"."+fe.Tag()]; ok {
		message = custom
	}
	return FieldError{Field: field, Message: message, Kind: kind}
}

func (v *Validator) describe(fe validator.FieldError) (kind, message string) {
	field := fe.Field()
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return KindRequired, field + " is required"
	case "min", "gte":
		if isString {
			return KindTooSmall, fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return KindTooSmall, fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		if isString {
			return KindTooBig, fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return KindTooBig, fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return KindInvalidFormat, "Invalid email address"
	case "url", "http_url":
		return KindInvalidFormat, field + " must be a valid URL"
	case "phone":
		return KindInvalidFormat, "Invalid phone number"
	case "datetime8601":
		return KindInvalidFormat, field + " must be an ISO 8601 date-time"
	case "notbefore":
		return KindTooSmall, fmt.Sprintf("%s must not be before %s", field, lowerFirst(fe.Param()))
	case "page":
		return KindInvalidFormat, fmt.Sprintf("Page must be between 1 and %d", MaxPage)
	case "pagesize":
		return KindInvalidFormat, fmt.Sprintf("Limit must be between 1 and %d", MaxPageSize)
	case "oneof":
		return KindInvalidEnum, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return KindMismatch, fmt.Sprintf("%s must match %s", field, lowerFirst(fe.Param()))
	}

	if values, ok := v.enums[fe.Tag()]; ok {
		return KindInvalidEnum, fmt.Sprintf("%s must be one of: %s", field, strings.Join(values, ", "))
	}
	return KindCustom, fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// lowerFirst maps a Go field name in a tag parameter to its usual JSON name.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
