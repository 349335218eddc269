package handler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/cashmais/internal/utils"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the document rules and reports JSON field names
// in errors.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "cpf", func(fl validator.FieldLevel) bool {
		return utils.IsCPF(fl.Field().String())
	})
	mustRegister(v, "cnpj", func(fl validator.FieldLevel) bool {
		return len(utils.NormalizeCNPJ(fl.Field().String())) == 14
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

func (cv *Validator) Validate(i any) error {
	return cv.v.Struct(i)
}
