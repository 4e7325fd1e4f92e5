package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/detailsync/internal/models"
	"gorm.io/gorm"
)

const insertUniqueEmailSQLite = `
INSERT INTO users (id, created_at, updated_at, name, email, company_name, business_size, industry, main_challenge, plan)
SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
WHERE NOT EXISTS (SELECT 1 FROM users WHERE lower(trim(email)) = ?)`

type SignupRepository struct {
	database *gorm.DB
	clock    *storeClock
	// uniqueMu keeps conditional inserts on one connection at a time so they
	// never race each other for the SQLite write lock.
	uniqueMu sync.Mutex
}

func NewSignupRepository(database *gorm.DB) *SignupRepository {
	return &SignupRepository{database: database, clock: newStoreClock(nil)}
}

func (repo *SignupRepository) Create(ctx context.Context, record *models.UserRecord) error {
	createdAt := repo.clock.next()
	record.CreatedAt = createdAt
	record.UpdatedAt = createdAt
	if err := repo.database.WithContext(ctx).Create(record).Error; err != nil {
		record.ID = ""
		return classifySQLiteError(err)
	}
	return nil
}

// CreateUniqueEmail inserts the record only when no stored record shares its
// normalized email. The check and the insert are one statement.
func (repo *SignupRepository) CreateUniqueEmail(ctx context.Context, record *models.UserRecord) error {
	if !record.BusinessSize.Valid() || !record.MainChallenge.Valid() || !record.Plan.Valid() {
		return models.ErrRecordRejected
	}

	repo.uniqueMu.Lock()
	defer repo.uniqueMu.Unlock()

	id := uuid.NewString()
	createdAt := repo.clock.next()
	result := repo.database.WithContext(ctx).Exec(insertUniqueEmailSQLite,
		id,
		createdAt,
		createdAt,
		record.Name,
		record.Email,
		record.CompanyName,
		string(record.BusinessSize),
		record.Industry,
		string(record.MainChallenge),
		string(record.Plan),
		normalizedEmail(record.Email),
	)
	if result.Error != nil {
		return classifySQLiteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrEmailTaken
	}

	record.ID = id
	record.CreatedAt = createdAt
	record.UpdatedAt = createdAt
	return nil
}

func (repo *SignupRepository) FindByID(ctx context.Context, id string) (models.UserRecord, error) {
	var record models.UserRecord
	if err := repo.database.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).First(&record).Error; err != nil {
		return models.UserRecord{}, classifySQLiteError(err)
	}
	return record, nil
}

func (repo *SignupRepository) FindByNormalizedEmail(ctx context.Context, email string) (models.UserRecord, error) {
	var record models.UserRecord
	if err := repo.database.WithContext(ctx).
		Where("lower(trim(email)) = ?", email).
		Order("created_at ASC").
		First(&record).Error; err != nil {
		return models.UserRecord{}, classifySQLiteError(err)
	}
	return record, nil
}

func (repo *SignupRepository) List(ctx context.Context, filter models.SignupFilter) ([]models.UserRecord, error) {
	query := repo.database.WithContext(ctx).Model(&models.UserRecord{})
	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where("name = ?", name)
	}
	if email := normalizedEmail(filter.Email); email != "" {
		query = query.Where("lower(trim(email)) = ?", email)
	}
	if !filter.CreatedAfter.IsZero() {
		query = query.Where("created_at >= ?", filter.CreatedAfter.UTC())
	}
	if !filter.CreatedBefore.IsZero() {
		query = query.Where("created_at < ?", filter.CreatedBefore.UTC())
	}
	if filter.BusinessSize != "" {
		query = query.Where("business_size = ?", filter.BusinessSize)
	}
	if company := strings.TrimSpace(filter.CompanyName); company != "" {
		query = query.Where("company_name = ?", company)
	}

	records := make([]models.UserRecord, 0)
	if err := query.Order("created_at ASC, id ASC").Limit(filter.EffectiveLimit()).Find(&records).Error; err != nil {
		return nil, classifySQLiteError(err)
	}
	return records, nil
}

func (repo *SignupRepository) Update(ctx context.Context, id string, request models.SignUpRequest) error {
	result := repo.database.WithContext(ctx).Model(&models.UserRecord{}).
		Where("id = ?", strings.TrimSpace(id)).
		Updates(map[string]any{
			"name":           request.Name,
			"email":          request.Email,
			"company_name":   request.CompanyName,
			"business_size":  request.BusinessSize,
			"industry":       request.Industry,
			"main_challenge": request.MainChallenge,
			"plan":           request.Plan,
			"updated_at":     repo.clock.next(),
		})
	if result.Error != nil {
		return classifySQLiteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

func (repo *SignupRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.database.WithContext(ctx).Model(&models.UserRecord{}).Count(&count).Error; err != nil {
		return 0, classifySQLiteError(err)
	}
	return count, nil
}

func (repo *SignupRepository) Ping(ctx context.Context) error {
	sqlDB, err := repo.database.DB()
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

func (repo *SignupRepository) Close() error {
	sqlDB, err := repo.database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func classifySQLiteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrRecordNotFound
	case errors.Is(err, models.ErrRecordRejected):
		return err
	}

	message := strings.ToLower(err.Error())
	if strings.Contains(message, "constraint failed") {
		return fmt.Errorf("%w: %v", models.ErrRecordRejected, err)
	}
	return err
}

func normalizedEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
