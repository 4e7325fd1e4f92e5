package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	cookieLanguage := c.Cookies(languageCookieName)
	language := handler.i18n.DetectFromAcceptLanguage(c.Get("Accept-Language"))
	if cookieLanguage != "" {
		language = handler.i18n.NormalizeLanguage(cookieLanguage)
	}

	if cookieLanguage != language {
		handler.setLanguageCookie(c, language)
	}

	c.Locals(contextLanguageKey, language)
	c.Locals(contextMessagesKey, handler.i18n.Messages(language))
	return c.Next()
}

func (handler *Handler) setLanguageCookie(c *fiber.Ctx, language string) {
	c.Cookie(&fiber.Cookie{
		Name:     languageCookieName,
		Value:    handler.i18n.NormalizeLanguage(language),
		Path:     "/",
		HTTPOnly: false,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().AddDate(1, 0, 0),
	})
}

// RequestLogger tags every request with an X-Request-ID and logs its outcome.
func (handler *Handler) RequestLogger(c *fiber.Ctx) error {
	started := time.Now()

	requestID := strings.TrimSpace(c.Get(requestIDHeader))
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	c.Locals(contextRequestID, requestID)
	c.Set(requestIDHeader, requestID)

	chainErr := c.Next()
	if chainErr != nil {
		if handlerErr := c.App().ErrorHandler(c, chainErr); handlerErr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	event := handler.logger.Info()
	switch {
	case status >= fiber.StatusInternalServerError:
		event = handler.logger.Error()
	case status >= fiber.StatusBadRequest:
		event = handler.logger.Warn()
	}
	event.
		Str("request_id", requestID).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("latency", time.Since(started)).
		Msg("request handled")
	return nil
}

func currentRequestID(c *fiber.Ctx) string {
	requestID, _ := c.Locals(contextRequestID).(string)
	return requestID
}
