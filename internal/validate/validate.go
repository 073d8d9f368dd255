// Package validate registers the request validation rules shared by handlers.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const passwordSpecials = "@$!%*?&"

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	registerOnce    sync.Once
	errRegister     error
)

// ErrWeakPassword is returned for passwords that miss a character class.
var ErrWeakPassword = errors.New("password must be at least 8 characters and include lower, upper, digit and one of " + passwordSpecials)

// ErrInvalidUsername is returned for usernames outside the allowed pattern.
var ErrInvalidUsername = errors.New("username must be 3-20 characters of letters, digits or underscore")

// Register installs the custom rules on gin's validator. Safe to call repeatedly.
func Register() error {
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			errRegister = errors.New("validate: unexpected validator engine")
			return
		}
		engine.RegisterTagNameFunc(jsonFieldName)
		if errRule := engine.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return Password(fl.Field().String()) == nil
		}); errRule != nil {
			errRegister = errRule
			return
		}
		if errRule := engine.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return Username(fl.Field().String()) == nil
		}); errRule != nil {
			errRegister = errRule
		}
	})
	return errRegister
}

// Password checks length, character classes and the allowed character set.
func Password(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return ErrWeakPassword
		}
	}
	if !lower || !upper || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}

// Username checks the handle pattern.
func Username(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// Message turns a binding error into a short client-facing message.
func Message(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid json"
	}
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "password":
		return ErrWeakPassword.Error()
	case "username":
		return ErrInvalidUsername.Error()
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid url", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
