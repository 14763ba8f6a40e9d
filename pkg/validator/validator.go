package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks form structs and returns user-facing messages keyed by form field.
//
// Fields are named by their `form` tag; the `label` tag gives the human name used
// in messages ("Username is required.").
type Validator struct {
	v        *validator.Validate
	messages map[string]string
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{
		v: v,
		messages: map[string]string{
			"required": "%s is required.",
			"email":    "%s is invalid.",
			"min":      "%s must be at least %s characters.",
			"max":      "%s must not exceed %s characters.",
			"datetime": "%s must be a valid date.",
		},
	}
}

// Struct validates obj. It returns nil when obj is valid.
func (v *Validator) Struct(obj interface{}) map[string]string {
	err := v.v.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	labels := labelsOf(obj)
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		label := labels[fe.StructField()]
		if label == "" {
			label = fe.Field()
		}
		fields[fe.Field()] = v.message(fe, label)
	}
	return fields
}

func (v *Validator) message(fe validator.FieldError, label string) string {
	tmpl, ok := v.messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%s is invalid.", label)
	}
	if strings.Count(tmpl, "%s") == 2 {
		return fmt.Sprintf(tmpl, label, fe.Param())
	}
	return fmt.Sprintf(tmpl, label)
}

func labelsOf(obj interface{}) map[string]string {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	labels := make(map[string]string)
	if t.Kind() != reflect.Struct {
		return labels
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		labels[f.Name] = f.Tag.Get("label")
	}
	return labels
}
