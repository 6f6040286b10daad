// Package validation checks form payloads before they are relayed to the
// backend API.  It plugs into echo as the context validator so handlers
// call c.Validate(&form).
package validation

import (
    "errors"
    "fmt"
    "reflect"
    "regexp"
    "strings"
    "unicode"

    "github.com/go-playground/validator/v10"
)

// MaxImageBytes is the largest image accepted for upload.
const MaxImageBytes = 10_000_000

var (
    ErrImageEmpty    = errors.New("image is empty")
    ErrImageTooLarge = fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
)

// adTextPattern admits letters, digits, spaces and basic punctuation.
var adTextPattern = regexp.MustCompile(`^[\p{L}\p{N} .,;:!?'"()/&+\-]*$`)

// Validator implements echo.Validator.
type Validator struct {
    v *validator.Validate
}

func New() *Validator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        if name := strings.Split(f.Tag.Get("form"), ",")[0]; name != "" && name != "-" {
            return name
        }
        return f.Name
    })
    _ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
        return StrongPassword(fl.Field().String())
    })
    _ = v.RegisterValidation("adtext", func(fl validator.FieldLevel) bool {
        return adTextPattern.MatchString(fl.Field().String())
    })
    return &Validator{v: v}
}

// Validate returns nil or an *Error describing the first failed rule.
func (cv *Validator) Validate(i any) error {
    err := cv.v.Struct(i)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if errors.As(err, &verrs) && len(verrs) > 0 {
        fe := verrs[0]
        return &Error{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
    }
    return err
}

// Error is a failed validation rule on one form field.
type Error struct {
    Field string
    Rule  string
    Param string
}

func (e *Error) Error() string { return e.Message() }

// Message is the human readable reason shown back on the form.
func (e *Error) Message() string {
    switch e.Rule {
    case "required":
        return e.Field + " is required"
    case "min":
        return fmt.Sprintf("%s must be at least %s characters", e.Field, e.Param)
    case "max":
        return fmt.Sprintf("%s must be at most %s characters", e.Field, e.Param)
    case "alphanum":
        return e.Field + " may only contain letters and digits"
    case "ascii":
        return e.Field + " may only contain ASCII characters"
    case "email":
        return e.Field + " is not a valid email address"
    case "eqfield":
        return e.Field + " does not match"
    case "strongpassword":
        return e.Field + " needs an upper case letter, a lower case letter, a digit and a special character"
    case "adtext":
        return e.Field + " may only contain letters, digits, spaces and punctuation"
    case "uuid":
        return e.Field + " is not a valid identifier"
    case "gt":
        return fmt.Sprintf("%s must be greater than %s", e.Field, e.Param)
    }
    return e.Field + " is invalid"
}

// Message extracts the user facing reason from a validation error.
func Message(err error) string {
    var ve *Error
    if errors.As(err, &ve) {
        return ve.Message()
    }
    switch {
    case errors.Is(err, ErrImageEmpty), errors.Is(err, ErrImageTooLarge):
        return err.Error()
    }
    return "invalid form"
}

// StrongPassword requires at least eight characters with one upper case
// letter, one lower case letter, one digit and one special character.
func StrongPassword(s string) bool {
    if len(s) < 8 {
        return false
    }
    var upper, lower, digit, special bool
    for _, r := range s {
        switch {
        case unicode.IsUpper(r):
            upper = true
        case unicode.IsLower(r):
            lower = true
        case unicode.IsDigit(r):
            digit = true
        case unicode.IsPunct(r) || unicode.IsSymbol(r):
            special = true
        }
    }
    return upper && lower && digit && special
}

// Image checks an uploaded image payload.
func Image(data []byte) error {
    switch {
    case len(data) == 0:
        return ErrImageEmpty
    case len(data) > MaxImageBytes:
        return ErrImageTooLarge
    }
    return nil
}
