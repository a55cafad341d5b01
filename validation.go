package goSession

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type registerInput struct {
	Username string `json:"username" validate:"required,max=64,excludes=@"`
	Email    string `json:"email" validate:"required,email,max=254"`
	FullName string `json:"fullName" validate:"required,max=128"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldError converts validator output into an ErrInvalidField naming the
// first failing field and rule.
func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed %s", ErrInvalidField, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidField, err)
}

func (e *Engine) validateRegister(in registerInput) error {
	if err := e.validate.Struct(in); err != nil {
		return fieldError(err)
	}
	return nil
}

func (e *Engine) validateField(field ProfileField, value string) error {
	var tag string
	switch field {
	case FieldFullName:
		tag = "max=128"
	case FieldEmail:
		tag = "email,max=254"
	case FieldAvatarURI, FieldCoverURI:
		tag = "uri,max=2048"
	default:
		return fmt.Errorf("%w: unknown field %d", ErrInvalidField, field)
	}
	if err := e.validate.Var(value, tag); err != nil {
		return fmt.Errorf("%w: %s failed %s", ErrInvalidField, field, tagOf(err, tag))
	}
	return nil
}

func tagOf(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return fallback
}

func (e *Engine) checkAsset(a *MediaAsset) error {
	if a.empty() {
		return ErrMissingRequiredAsset
	}
	if limit := e.config.Media.MaxAssetBytes; limit > 0 && a.Size > limit {
		return fmt.Errorf("%w: asset exceeds %d bytes", ErrInvalidField, limit)
	}
	return nil
}
