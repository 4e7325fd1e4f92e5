package services

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/terraincognita07/detailsync/internal/models"
)

// SignUpInput is the raw sign-up payload as it arrives from JSON or a form post.
type SignUpInput struct {
	Name          string `json:"name" form:"name" validate:"required,min=2"`
	Email         string `json:"email" form:"email" validate:"required,email"`
	CompanyName   string `json:"companyName" form:"companyName" validate:"required,min=2"`
	BusinessSize  string `json:"businessSize" form:"businessSize" validate:"oneof=solo small medium large"`
	Industry      string `json:"industry" form:"industry" validate:"required,min=2"`
	Address       string `json:"address,omitempty" form:"address" validate:"-"`
	MainChallenge string `json:"mainChallenge" form:"mainChallenge" validate:"oneof=scheduling customer analytics growth"`
	Plan          string `json:"plan" form:"plan" validate:"oneof=starter pro enterprise"`
	AgreeTerms    bool   `json:"agreeTerms" form:"-" validate:"accepted"`
	FormID        string `json:"formId,omitempty" form:"form_id" validate:"-"`
}

const (
	SignupFieldName          = "name"
	SignupFieldEmail         = "email"
	SignupFieldCompanyName   = "companyName"
	SignupFieldBusinessSize  = "businessSize"
	SignupFieldIndustry      = "industry"
	SignupFieldMainChallenge = "mainChallenge"
	SignupFieldPlan          = "plan"
	SignupFieldAgreeTerms    = "agreeTerms"
)

var signupFieldMessages = map[string]string{
	SignupFieldName:          "Name must be at least 2 characters",
	SignupFieldEmail:         "Invalid email address",
	SignupFieldCompanyName:   "Company name must be at least 2 characters",
	SignupFieldBusinessSize:  "Select a business size",
	SignupFieldIndustry:      "Industry must be at least 2 characters",
	SignupFieldMainChallenge: "Select your main challenge",
	SignupFieldPlan:          "Select a plan",
	SignupFieldAgreeTerms:    "You must agree to the terms and conditions",
}

// SignupFieldMessageKey is the i18n key of the message shown for a rejected field.
func SignupFieldMessageKey(field string) string {
	return "signup.errors." + field
}

type ValidationError struct {
	Fields map[string]string
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("invalid sign-up input: %s", strings.Join(err.FieldNames(), ", "))
}

func (err *ValidationError) Unwrap() error {
	return ErrSignupInvalid
}

func (err *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(err.Fields))
	for name := range err.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (err *ValidationError) TermsRejected() bool {
	_, rejected := err.Fields[SignupFieldAgreeTerms]
	return rejected
}

var signupValidator = newSignupValidator()

func newSignupValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("accepted", func(field validator.FieldLevel) bool {
		return field.Field().Kind() == reflect.Bool && field.Field().Bool()
	}); err != nil {
		panic(err)
	}
	return validate
}

// Normalize trims the free-text fields, lowercases the email and folds the
// legacy address alias into industry. Enum tokens are left byte-for-byte, so
// only an exact token passes the oneof rules.
func (input SignUpInput) Normalize() SignUpInput {
	normalized := input
	normalized.Name = strings.TrimSpace(input.Name)
	normalized.Email = strings.ToLower(strings.TrimSpace(input.Email))
	normalized.CompanyName = strings.TrimSpace(input.CompanyName)
	normalized.Industry = strings.TrimSpace(input.Industry)
	normalized.Address = strings.TrimSpace(input.Address)
	if normalized.Industry == "" {
		normalized.Industry = normalized.Address
	}
	normalized.FormID = strings.TrimSpace(input.FormID)
	return normalized
}

// ValidateSignUp applies the schema to a raw payload. Every failing field is
// reported at once through *ValidationError.
func ValidateSignUp(input SignUpInput) (models.SignUpRequest, error) {
	normalized := input.Normalize()

	if err := signupValidator.Struct(normalized); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return models.SignUpRequest{}, fmt.Errorf("validate sign-up input: %w", err)
		}

		fields := make(map[string]string, len(fieldErrors))
		for _, fieldError := range fieldErrors {
			name := fieldError.Field()
			if _, seen := fields[name]; seen {
				continue
			}
			fields[name] = signupFieldMessages[name]
		}
		return models.SignUpRequest{}, &ValidationError{Fields: fields}
	}

	return models.SignUpRequest{
		Name:          normalized.Name,
		Email:         normalized.Email,
		CompanyName:   normalized.CompanyName,
		BusinessSize:  models.BusinessSize(normalized.BusinessSize),
		Industry:      normalized.Industry,
		MainChallenge: models.MainChallenge(normalized.MainChallenge),
		Plan:          models.Plan(normalized.Plan),
		AgreeTerms:    normalized.AgreeTerms,
	}, nil
}

func SignUpInputFromRequest(request models.SignUpRequest) SignUpInput {
	return SignUpInput{
		Name:          request.Name,
		Email:         request.Email,
		CompanyName:   request.CompanyName,
		BusinessSize:  string(request.BusinessSize),
		Industry:      request.Industry,
		MainChallenge: string(request.MainChallenge),
		Plan:          string(request.Plan),
		AgreeTerms:    request.AgreeTerms,
	}
}

// CheckSignUpRequest re-applies the schema to an already typed request.
func CheckSignUpRequest(request models.SignUpRequest) error {
	_, err := ValidateSignUp(SignUpInputFromRequest(request))
	return err
}
