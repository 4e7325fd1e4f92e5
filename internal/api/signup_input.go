package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/detailsync/internal/services"
)

// parseSignupInput reads JSON bodies as-is and form posts with checkbox
// semantics for agreeTerms.
func parseSignupInput(c *fiber.Ctx) (services.SignUpInput, error) {
	input := services.SignUpInput{}
	if err := c.BodyParser(&input); err != nil {
		return services.SignUpInput{}, err
	}
	if !isJSONRequest(c) {
		input.AgreeTerms = parseBoolValue(c.FormValue("agreeTerms"))
	}
	return input, nil
}

func localizedFieldErrors(messages map[string]string, fields map[string]string) map[string]string {
	localized := make(map[string]string, len(fields))
	for field, fallback := range fields {
		localized[field] = translateOr(messages, services.SignupFieldMessageKey(field), fallback)
	}
	return localized
}
