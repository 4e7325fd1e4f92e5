package api

import (
	"context"
	"html/template"
	"time"

	"github.com/rs/zerolog"
	"github.com/terraincognita07/detailsync/internal/i18n"
	"github.com/terraincognita07/detailsync/internal/services"
)

const (
	languageCookieName = "detailsync_lang"
	flashCookieName    = "detailsync_flash"
	contextLanguageKey = "current_language"
	contextMessagesKey = "current_messages"
	contextRequestID   = "request_id"
	requestIDHeader    = "X-Request-ID"

	defaultSignupFormTTL = 30 * time.Minute
)

// HealthChecker reports whether the record store answers.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	signups      *services.SignupService
	receipts     *services.ReceiptIssuer
	catalog      *services.Catalog
	socialProof  *services.SocialProofCounter
	health       HealthChecker
	i18n         *i18n.Manager
	forms        *signupFormRegistry
	cookies      *secureCookieCodec
	cookieSecure bool
	signupLimit  int
	logger       zerolog.Logger
	templates    map[string]*template.Template
}

type Dependencies struct {
	Signups     *services.SignupService
	Receipts    *services.ReceiptIssuer
	Catalog     *services.Catalog
	SocialProof *services.SocialProofCounter
	Health      HealthChecker
	I18n        *i18n.Manager
	Logger      zerolog.Logger
}

type Options struct {
	SecretKey                string
	TemplateDir              string
	CookieSecure             bool
	SignupRateLimitPerMinute int
	SignupFormTTL            time.Duration
}

// FlashPayload carries i18n keys across one redirect.
type FlashPayload struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}
