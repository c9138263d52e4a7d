package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Photo count and duration limits for a submission.
const (
	MinPhotos = 3
	MaxPhotos = 10
)

// SubmitRequest is a client's request to turn a photo sequence into a video.
// PhotoURLs order is significant and preserved.
type SubmitRequest struct {
	PhotoURLs []string  `json:"photoUrls" validate:"min=3,max=10,dive,required,url"`
	Style     Style     `json:"style"     validate:"required,oneof=trendy elegant energetic"`
	Duration  int       `json:"duration"  validate:"required,oneof=5 10"`
	EventID   string    `json:"eventId"   validate:"omitempty,max=255"`
	UserID    uuid.UUID `json:"userId"`
}

var submissionValidator = newSubmissionValidator()

func newSubmissionValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so errors match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateSubmission checks the shape and ranges of req without any I/O.
// It returns a *ValidationError naming the first violated constraint.
func ValidateSubmission(req SubmitRequest) error {
	err := submissionValidator.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return NewValidationError(fe.Field(), describeConstraint(fe), ErrValidation)
	}
	return NewValidationError("", err.Error(), ErrValidation)
}

func describeConstraint(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s photos", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain at most %s photos", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed on the '%s' constraint", fe.Tag())
	}
}
