package controllers

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yeremiapane/table-reservations/services"
)

var registerOnce sync.Once

var phoneValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	return services.ValidPhone(fl.Field().String())
}

// clockhourValidatorFunc accepts "HH:MM" and "HH:MM:SS". Whether the time is
// on the hour and inside opening hours is checked by the booking policy.
var clockhourValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// RegisterValidators installs the custom binding rules on gin's validator and
// makes it report fields by their JSON name.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		v.RegisterValidation("phone", phoneValidatorFunc)
		v.RegisterValidation("clockhour", clockhourValidatorFunc)
	})
}
