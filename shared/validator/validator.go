package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// ValidationError carries the translated messages of every failed field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}

// Validator validates request payloads using `validate` struct tags and reports
// errors in English, naming fields by their json tag.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a new Validator.
func New() (*Validator, error) {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)

	trans, found := uni.GetTranslator("en")
	if !found {
		return nil, errors.New("english translator not found")
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	return &Validator{validate: v, trans: trans}, nil
}

// Struct validates s. It returns a *ValidationError for field failures and
// the underlying error for anything else (e.g. a non-struct argument).
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = fe.Translate(v.trans)
	}

	return verr
}
