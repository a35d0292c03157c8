// Package inputval validates decoded request bodies with struct tags.
//
//	type createInput struct {
//	    BloodGroup string `json:"blood_group" validate:"required,bloodgroup" label:"Blood group"`
//	}
//	if res := inputval.Validate(in); res.HasErrors() { ... res.First() ... }
package inputval

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/bloodhub/internal/app/system/dates"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BloodGroups lists the accepted ABO/Rh groups.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var phoneRE = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

// FieldError is one failed rule, with a human-readable message.
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

// Result collects the field errors of one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if l := f.Tag.Get("label"); l != "" {
				return l
			}
			return f.Name
		})
		_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return IsValidObjectID(fl.Field().String())
		})
		_ = v.RegisterValidation("bloodgroup", func(fl validator.FieldLevel) bool {
			return IsValidBloodGroup(fl.Field().String())
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return IsValidPhone(fl.Field().String())
		})
		_ = v.RegisterValidation("ddmmyyyy", func(fl validator.FieldLevel) bool {
			_, err := dates.Parse(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// Validate runs the struct's validate tags.
func Validate(s any) *Result {
	res := &Result{}
	err := instance().Struct(s)
	if err == nil {
		return res
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		res.Errors = append(res.Errors, FieldError{Message: err.Error()})
		return res
	}
	for _, fe := range verrs {
		res.Errors = append(res.Errors, FieldError{
			Field:   fe.StructField(),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return res
}

func message(fe validator.FieldError) string {
	label := fe.Field()
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s.", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s.", label, fe.Param())
	case "objectid":
		return label + " must be a valid id."
	case "bloodgroup":
		return label + " must be one of " + strings.Join(BloodGroups, ", ") + "."
	case "phone":
		return label + " must be a phone number."
	case "ddmmyyyy":
		return label + " must be a date in dd/mm/yyyy format."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", label, fe.Param())
	}
	return label + " is invalid."
}

// IsValidObjectID reports whether s (trimmed) is a 24-char hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// IsValidBloodGroup reports whether s is one of BloodGroups.
func IsValidBloodGroup(s string) bool {
	for _, g := range BloodGroups {
		if s == g {
			return true
		}
	}
	return false
}

// IsValidPhone accepts 6-15 digits with an optional leading +.
func IsValidPhone(s string) bool {
	return phoneRE.MatchString(strings.TrimSpace(s))
}
