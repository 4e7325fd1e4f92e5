package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/terraincognita07/detailsync/internal/models"
)

var (
	ErrSignupInvalid          = errors.New("invalid sign-up input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrSignupRejected         = errors.New("sign-up rejected by record store")
	ErrRecordStoreUnavailable = errors.New("record store unavailable")
)

type SignupRepository interface {
	Create(ctx context.Context, record *models.UserRecord) error
	CreateUniqueEmail(ctx context.Context, record *models.UserRecord) error
	FindByID(ctx context.Context, id string) (models.UserRecord, error)
	FindByNormalizedEmail(ctx context.Context, email string) (models.UserRecord, error)
	List(ctx context.Context, filter models.SignupFilter) ([]models.UserRecord, error)
	Update(ctx context.Context, id string, request models.SignUpRequest) error
}

type SignupServiceOptions struct {
	RequireUniqueEmail bool
	Logger             zerolog.Logger
}

type SignupService struct {
	records            SignupRepository
	requireUniqueEmail bool
	logger             zerolog.Logger
}

func NewSignupService(records SignupRepository, options SignupServiceOptions) *SignupService {
	return &SignupService{
		records:            records,
		requireUniqueEmail: options.RequireUniqueEmail,
		logger:             options.Logger.With().Str("component", "signup_service").Logger(),
	}
}

func NormalizeSignupEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// CreateUser persists one sign-up and returns the identity assigned by the store.
// Identical requests produce distinct records.
func (service *SignupService) CreateUser(ctx context.Context, request models.SignUpRequest) (string, error) {
	if err := CheckSignUpRequest(request); err != nil {
		return "", err
	}

	record := models.NewUserRecord(request)
	create := service.records.Create
	if service.requireUniqueEmail {
		create = service.records.CreateUniqueEmail
	}
	if err := create(ctx, &record); err != nil {
		if errors.Is(err, models.ErrEmailTaken) {
			return "", ErrEmailAlreadyRegistered
		}
		return "", service.storeFailure("create user", err)
	}

	service.logger.Info().
		Str("user_id", record.ID).
		Str("plan", string(record.Plan)).
		Str("business_size", string(record.BusinessSize)).
		Msg("sign-up recorded")
	return record.ID, nil
}

func (service *SignupService) FindUser(ctx context.Context, id string) (models.UserRecord, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return models.UserRecord{}, models.ErrRecordNotFound
	}

	record, err := service.records.FindByID(ctx, trimmed)
	if err != nil {
		return models.UserRecord{}, service.lookupFailure("find user", err)
	}
	return record, nil
}

// FindUserByEmail returns the earliest record registered under the email.
func (service *SignupService) FindUserByEmail(ctx context.Context, email string) (models.UserRecord, error) {
	normalized := NormalizeSignupEmail(email)
	if normalized == "" {
		return models.UserRecord{}, models.ErrRecordNotFound
	}

	record, err := service.records.FindByNormalizedEmail(ctx, normalized)
	if err != nil {
		return models.UserRecord{}, service.lookupFailure("find user by email", err)
	}
	return record, nil
}

func (service *SignupService) ListUsers(ctx context.Context, filter models.SignupFilter) ([]models.UserRecord, error) {
	if filter.BusinessSize != "" && !filter.BusinessSize.Valid() {
		return nil, fmt.Errorf("%w: unknown business size %q", ErrSignupInvalid, filter.BusinessSize)
	}
	if !filter.CreatedAfter.IsZero() && !filter.CreatedBefore.IsZero() && !filter.CreatedAfter.Before(filter.CreatedBefore) {
		return nil, fmt.Errorf("%w: created-after must precede created-before", ErrSignupInvalid)
	}

	records, err := service.records.List(ctx, filter)
	if err != nil {
		return nil, service.storeFailure("list users", err)
	}
	return records, nil
}

// UpdateUser replaces the editable fields of an existing record. The terms
// gate only applies to new sign-ups.
func (service *SignupService) UpdateUser(ctx context.Context, id string, request models.SignUpRequest) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return models.ErrRecordNotFound
	}

	checked := request
	checked.AgreeTerms = true
	if err := CheckSignUpRequest(checked); err != nil {
		return err
	}

	normalized := request
	normalized.Email = NormalizeSignupEmail(request.Email)
	if err := service.records.Update(ctx, trimmed, normalized); err != nil {
		return service.lookupFailure("update user", err)
	}
	return nil
}

func (service *SignupService) lookupFailure(operation string, err error) error {
	if errors.Is(err, models.ErrRecordNotFound) {
		return models.ErrRecordNotFound
	}
	return service.storeFailure(operation, err)
}

func (service *SignupService) storeFailure(operation string, err error) error {
	if errors.Is(err, models.ErrRecordRejected) {
		service.logger.Warn().Err(err).Str("operation", operation).Msg("record store rejected write")
		return fmt.Errorf("%s: %w", operation, ErrSignupRejected)
	}
	service.logger.Error().Err(err).Str("operation", operation).Msg("record store failure")
	return fmt.Errorf("%s: %w: %w", operation, ErrRecordStoreUnavailable, err)
}
