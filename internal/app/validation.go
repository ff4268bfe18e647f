package app

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"interview-scheduler/internal/availability"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// registerValidators adds the "weekday" tag to gin's validator.
func registerValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator is not go-playground/validator")
			return
		}
		registerErr = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			_, err := availability.ParseDay(fl.Field().String())
			return err == nil
		})
	})
	return registerErr
}
