package httpapi

import (
	"errors"
	"reflect"
	"strings"

	"github.com/PabloPavan/cobit_api/internal/snippets"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		return strings.TrimSpace(field.String()) != ""
	})
	validate.RegisterValidation("trimmedemail", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return false
		}
		email := strings.TrimSpace(field.String())
		if email == "" {
			return false
		}
		if len(email) > 254 {
			return false
		}
		return validate.Var(email, "email") == nil
	})
}

type UserCreateDTO struct {
	Email    string `json:"email" validate:"required,notblank,trimmedemail"`
	Password string `json:"password" validate:"required,notblank,min=8,max=72"`
}

func (r *UserCreateDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Email": {
				"required":     "email and password are required",
				"notblank":     "email and password are required",
				"trimmedemail": "invalid email",
			},
			"Password": {
				"required": "email and password are required",
				"notblank": "email and password are required",
				"min":      "password must have at least 8 characters",
				"max":      "password is too long",
			},
		}, "invalid request")
	}
	return nil
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,notblank"`
	Password string `json:"password" validate:"required,notblank"`
}

func (r *LoginDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Email":    {"*": "email and password are required"},
			"Password": {"*": "email and password are required"},
		}, "invalid request")
	}
	return nil
}

type SnippetCreateDTO struct {
	ID          string              `json:"id,omitempty" validate:"omitempty,alphanum,min=8,max=20"`
	Title       string              `json:"title" validate:"required,notblank,max=200"`
	Description string              `json:"description" validate:"required,notblank,max=2000"`
	Code        string              `json:"code" validate:"required,notblank"`
	Visibility  snippets.Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

func (r *SnippetCreateDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"ID": {
				"*": "id must be 8 to 20 alphanumeric characters",
			},
			"Title": {
				"required": "title, description and code are required",
				"notblank": "title, description and code are required",
				"max":      "title is too long",
			},
			"Description": {
				"required": "title, description and code are required",
				"notblank": "title, description and code are required",
				"max":      "description is too long",
			},
			"Code": {
				"*": "title, description and code are required",
			},
			"Visibility": {
				"oneof": "visibility must be public or private",
			},
		}, "invalid request")
	}
	return nil
}

// SnippetUpdateDTO only bounds sizes. Required fields are checked by the
// service after the snippet is found, so a missing id reports 404 first.
type SnippetUpdateDTO struct {
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=2000"`
	Code        string `json:"code"`
}

func (r *SnippetUpdateDTO) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationMessage(err, map[string]map[string]string{
			"Title":       {"max": "title is too long"},
			"Description": {"max": "description is too long"},
		}, "invalid request")
	}
	return nil
}

func validationMessage(err error, messages map[string]map[string]string, fallback string) error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return errors.New(fallback)
	}
	for _, valErr := range valErrs {
		if fieldMessages, ok := messages[valErr.Field()]; ok {
			if msg, ok := fieldMessages[valErr.Tag()]; ok {
				return errors.New(msg)
			}
			if msg, ok := fieldMessages["*"]; ok {
				return errors.New(msg)
			}
		}
	}
	return errors.New(fallback)
}
