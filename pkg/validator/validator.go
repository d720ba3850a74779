package validator

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterCustom installs domain validations on gin's binding engine.
// `clocktime` accepts minute-precision HH:MM times of day.
func RegisterCustom() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}

	if err := v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	}); err != nil {
		return fmt.Errorf("failed to register clocktime validation: %w", err)
	}
	return nil
}
