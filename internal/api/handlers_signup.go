package api

import (
	"errors"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/detailsync/internal/models"
	"github.com/terraincognita07/detailsync/internal/services"
)

func (handler *Handler) ShowSignupForm(c *fiber.Ctx) error {
	messages := currentMessages(c)
	now := time.Now()

	token := c.Query("form")
	form, ok := handler.forms.lookup(token, now)
	if !ok || form.Closed() {
		var err error
		token, form, err = handler.forms.open(c.Query("plan"), now)
		if err != nil {
			handler.logger.Error().Err(err).Msg("open signup form")
			return c.Status(fiber.StatusInternalServerError).SendString("failed to open sign-up form")
		}
	}

	flash := handler.popFlashCookie(c)
	return handler.render(c, "signup", fiber.Map{
		"Title":          localizedPageTitle(messages, "meta.title.signup", "DetailSync | Sign Up"),
		"FormID":         token,
		"Values":         form.Values(),
		"Fields":         form.FieldErrors(),
		"BusinessSizes":  models.BusinessSizes(),
		"MainChallenges": models.MainChallenges(),
		"Plans":          models.Plans(),
		"FlashError":     translateIfSet(messages, flash.Error),
	})
}

// CreateSignup runs a submission through the form state machine. JSON callers
// get a status code per outcome; browser posts are redirected with a flash.
func (handler *Handler) CreateSignup(c *fiber.Ctx) error {
	messages := currentMessages(c)

	input, err := parseSignupInput(c)
	if err != nil {
		if wantsJSONResponse(c) {
			return apiError(c, fiber.StatusBadRequest, "invalid input")
		}
		return handler.redirectWithFlash(c, "/signup", FlashPayload{Error: "signup.toast.failure"})
	}

	now := time.Now()
	token := input.FormID
	form, ok := handler.forms.lookup(token, now)
	if !ok {
		token, form, err = handler.forms.open(input.Plan, now)
		if err != nil {
			handler.logger.Error().Err(err).Msg("open signup form")
			return handler.respondSignupFailure(c, token, fiber.StatusInternalServerError, "signup failed", "signup.toast.failure")
		}
	}

	submission, err := form.Submit(c.UserContext(), input)
	if err == nil {
		return handler.respondSignupSuccess(c, submission)
	}

	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		if wantsJSONResponse(c) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "invalid input",
				"fields": localizedFieldErrors(messages, validationErr.Fields),
			})
		}
		return handler.redirectWithFlash(c, signupFormPath(token), FlashPayload{})
	case errors.Is(err, services.ErrSubmissionInFlight):
		return handler.respondSignupFailure(c, token, fiber.StatusConflict, "submission in progress", "signup.toast.in_flight")
	case errors.Is(err, services.ErrFormClosed):
		return handler.respondSignupFailure(c, "", fiber.StatusConflict, "form already submitted", "signup.toast.closed")
	case errors.Is(err, services.ErrEmailAlreadyRegistered):
		return handler.respondSignupFailure(c, token, fiber.StatusConflict, "email already registered", submission.Notice.MessageKey)
	default:
		handler.logger.Error().
			Err(err).
			Str("request_id", currentRequestID(c)).
			Msg("signup submission failed")
		return handler.respondSignupFailure(c, token, fiber.StatusInternalServerError, "signup failed", "signup.toast.failure")
	}
}

func (handler *Handler) respondSignupSuccess(c *fiber.Ctx, submission services.SignupSubmission) error {
	messageKey := submission.Notice.MessageKey

	receipt, err := handler.receipts.Issue(submission.UserID, submission.Plan)
	if err != nil {
		handler.logger.Warn().Err(err).Str("user_id", submission.UserID).Msg("issue signup receipt")
		receipt = ""
	}

	if wantsJSONResponse(c) {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"ok":      true,
			"id":      submission.UserID,
			"receipt": receipt,
			"message": translateOr(currentMessages(c), messageKey, submission.Notice.Message),
		})
	}
	return handler.redirectWithFlash(c, "/", FlashPayload{Success: messageKey})
}

func (handler *Handler) respondSignupFailure(c *fiber.Ctx, token string, status int, code string, messageKey string) error {
	if wantsJSONResponse(c) {
		return c.Status(status).JSON(fiber.Map{
			"error":   code,
			"message": translateOr(currentMessages(c), messageKey, services.SignupFailureMessage),
		})
	}
	if token == "" {
		return handler.redirectWithFlash(c, "/", FlashPayload{Error: messageKey})
	}
	return handler.redirectWithFlash(c, signupFormPath(token), FlashPayload{Error: messageKey})
}

func (handler *Handler) GetSignupReceipt(c *fiber.Ctx) error {
	claims, err := handler.receipts.Parse(c.Params("token"))
	switch {
	case errors.Is(err, services.ErrReceiptExpired):
		return apiError(c, fiber.StatusGone, "receipt expired")
	case err != nil:
		return apiError(c, fiber.StatusBadRequest, "invalid receipt")
	}

	record, err := handler.signups.FindUser(c.UserContext(), claims.Subject)
	switch {
	case errors.Is(err, models.ErrRecordNotFound):
		return apiError(c, fiber.StatusNotFound, "signup not found")
	case err != nil:
		handler.logger.Error().Err(err).Str("request_id", currentRequestID(c)).Msg("load signup for receipt")
		return apiError(c, fiber.StatusInternalServerError, "failed to load signup")
	}

	return c.JSON(fiber.Map{
		"id":          record.ID,
		"name":        record.Name,
		"companyName": record.CompanyName,
		"plan":        record.Plan,
		"planName":    handler.catalog.PlanName(record.Plan),
		"createdAt":   record.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func signupFormPath(token string) string {
	if token == "" {
		return "/signup"
	}
	return "/signup?form=" + url.QueryEscape(token)
}
