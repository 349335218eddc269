package handler

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type docs struct {
	CPF  string `json:"cpf" validate:"cpf"`
	CNPJ string `json:"cnpj" validate:"cnpj"`
}

func TestValidatorDocumentRules(t *testing.T) {
	var v *Validator
	require.NotPanics(t, func() { v = NewValidator() })

	assert.NoError(t, v.Validate(docs{CPF: "529.982.247-25", CNPJ: "11.222.333/0001-81"}))

	err := v.Validate(docs{CPF: "123.456", CNPJ: "123"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := []string{verrs[0].Field(), verrs[1].Field()}
	assert.ElementsMatch(t, []string{"cpf", "cnpj"}, fields)
}

func TestMustRegisterPanicsOnBadTag(t *testing.T) {
	v := validator.New()
	assert.Panics(t, func() {
		mustRegister(v, "", func(validator.FieldLevel) bool { return true })
	})
}
