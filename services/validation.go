// ABOUTME: Payload validation for creates, patches and stage updates
// ABOUTME: Wraps go-playground/validator with the stage rule and readable messages

package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/dealflow/models"
)

func newValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("stage", func(fl validator.FieldLevel) bool {
		return models.IsKnownStage(fl.Field().String())
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		deal := sl.Current().Interface().(models.Deal)
		if deal.Value.IsNegative() {
			sl.ReportError(deal.Value, "Value", "Value", "gte", "0")
		}
	}, models.Deal{})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		patch := sl.Current().Interface().(models.DealPatch)
		if patch.Value != nil && patch.Value.IsNegative() {
			sl.ReportError(patch.Value, "Value", "Value", "gte", "0")
		}
	}, models.DealPatch{})

	return v
}

// validate checks s and converts validator output into a ValidationError.
func validate(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Problems: []string{err.Error()}}
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		param := fe.Param()

		switch fe.Tag() {
		case "required":
			problems = append(problems, field+" is required")
		case "email":
			problems = append(problems, field+" must be a valid email")
		case "oneof":
			problems = append(problems, field+" must be one of: "+param)
		case "min", "gte":
			problems = append(problems, field+" must be at least "+param)
		case "max":
			problems = append(problems, field+" must be at most "+param)
		case "datetime":
			problems = append(problems, field+" must be a date like "+param)
		case "stage":
			problems = append(problems, field+" must be one of: "+strings.Join(models.OrderedStages(), " "))
		default:
			problems = append(problems, field+" is invalid")
		}
	}

	return &ValidationError{Problems: problems}
}
