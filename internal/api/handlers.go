package api

import (
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/terraincognita07/detailsync/internal/services"
)

func NewHandler(deps Dependencies, options Options) (*Handler, error) {
	if deps.Signups == nil {
		return nil, errors.New("signup service is required")
	}
	if deps.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if deps.SocialProof == nil {
		deps.SocialProof = services.NewSocialProofCounter(0)
	}
	if deps.Receipts == nil {
		deps.Receipts = services.NewReceiptIssuer([]byte(options.SecretKey), 0)
	}

	cookies, err := newSecureCookieCodec([]byte(options.SecretKey))
	if err != nil {
		return nil, fmt.Errorf("init cookie codec: %w", err)
	}

	funcMap := template.FuncMap{
		"t": func(messages map[string]string, key string) string {
			return translateMessage(messages, key)
		},
		"tf": func(messages map[string]string, key string, args ...any) string {
			return fmt.Sprintf(translateMessage(messages, key), args...)
		},
		"optionLabel": func(messages map[string]string, group string, value string) string {
			return translateMessage(messages, "signup."+group+"."+value)
		},
		"fieldError": func(messages map[string]string, fields map[string]string, field string) string {
			if _, failed := fields[field]; !failed {
				return ""
			}
			localized := translateMessage(messages, services.SignupFieldMessageKey(field))
			if localized == services.SignupFieldMessageKey(field) {
				return fields[field]
			}
			return localized
		},
		"eq": func(left string, right string) bool {
			return strings.TrimSpace(left) == strings.TrimSpace(right)
		},
	}

	templates, err := parsePageTemplates(options.TemplateDir, funcMap, pageTemplates)
	if err != nil {
		return nil, err
	}

	formTTL := options.SignupFormTTL
	if formTTL <= 0 {
		formTTL = defaultSignupFormTTL
	}

	return &Handler{
		signups:      deps.Signups,
		receipts:     deps.Receipts,
		catalog:      deps.Catalog,
		socialProof:  deps.SocialProof,
		health:       deps.Health,
		i18n:         deps.I18n,
		forms:        newSignupFormRegistry(deps.Signups, formTTL),
		cookies:      cookies,
		cookieSecure: options.CookieSecure,
		signupLimit:  options.SignupRateLimitPerMinute,
		logger:       deps.Logger.With().Str("component", "http").Logger(),
		templates:    templates,
	}, nil
}
