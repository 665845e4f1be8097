package app

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/domain"
	"github.com/jeremiasbittencourt/sistema-agendamento/internal/contact_service/dto"
)

// messages maps "field.tag" to the reason reported to clients.
var messages = map[string]string{
	"nome.notblank":    "Nome é obrigatório",
	"nome.max":         "Nome deve ter no máximo 100 caracteres",
	"email.email":      "Email deve ser válido",
	"email.max":        "Email deve ter no máximo 255 caracteres",
	"celular.notblank": "Celular é obrigatório",
	"celular.digits":   "Celular deve ter 11 dígitos",
	"telefone.digits":  "Telefone deve ter 10 dígitos",
}

// NewValidator returns a validator that knows the contact rules and reports json field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("digits", exactDigits)
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(field.String()) != ""
}

// exactDigits checks for exactly N ASCII digits, N given as the tag param.
func exactDigits(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil || fl.Field().Kind() != reflect.String {
		return false
	}
	s := fl.Field().String()
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// validateContact runs the struct rules and collects every failing field.
func (a *Application) validateContact(in *dto.ContactDTO) error {
	err := a.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = reasonFor(fe.Field(), fe.Tag())
	}
	return &domain.ValidationError{Fields: fields}
}

func reasonFor(field, tag string) string {
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}
	return "valor inválido"
}
