// Package validation turns request input into typed values or a list of
// field errors.
//
// Rules are declared as validate struct tags and checked with
// go-playground/validator. Every violation is reported (not just the
// first) as a FieldError carrying the JSON field name, a message and a
// machine-readable kind:
//
//	type LoginInput struct {
//	    Username string `json:"username" validate:"required,min=3"`
//	    Password string `json:"password" validate:"required"`
//	}
//
//	if err := v.Struct(in); err != nil {
//	    var verrs validation.Errors
//	    errors.As(err, &verrs) // [{username too_small ...}]
//	}
package validation
