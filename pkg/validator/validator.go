// Package validator registers the custom binding tags used by request models.
package validator

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// phonePattern accepts an optional leading + followed by 7 to 20 digits,
// spaces or dashes, starting and ending on a digit.
var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,18}[0-9]$`)

// Register adds the custom tags to v.
//
//	phone  a dialable phone number
func Register(v *validator.Validate) error {
	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}

var (
	ginOnce sync.Once
	ginErr  error
)

// RegisterGin adds the custom tags to gin's default validator. It is safe
// to call more than once.
func RegisterGin() error {
	ginOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			ginErr = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		ginErr = Register(v)
	})
	return ginErr
}
