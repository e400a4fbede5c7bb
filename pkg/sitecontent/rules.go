package sitecontent

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func assetClassValues() []interface{} {
	values := make([]interface{}, len(AssetClasses))
	for i, c := range AssetClasses {
		values[i] = c
	}
	return values
}

// Validate checks the fields an editor must fill in.
func (p *Project) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.AssetClass, validation.In(assetClassValues()...)),
	)
}

// Validate checks the fields an editor must fill in.
func (e *EventItem) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Title, validation.Required),
	)
}

// Validate checks the fields an editor must fill in.
func (n *NewsItem) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.Title, validation.Required),
	)
}

// Validate checks a contact form submission.
func (r SubmitInquiryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, validation.Match(emailPattern).Error("must be a valid email address")),
		validation.Field(&r.Message, validation.Required),
	)
}

// asValidationError turns ozzo validation failures into *ValidationError and
// passes anything else through.
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		if len(fieldErrs) == 1 {
			for field, fieldErr := range fieldErrs {
				return &ValidationError{Field: field, Message: fieldErr.Error()}
			}
		}
		return &ValidationError{Message: fieldErrs.Error()}
	}
	return err
}
