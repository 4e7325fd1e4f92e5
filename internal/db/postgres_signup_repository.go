package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/terraincognita07/detailsync/internal/models"
)

const (
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgInvalidTextInput    = "22P02"
	pgStringDataTruncated = "22001"
)

const userRecordColumns = `id::text, created_at, COALESCE(updated_at, created_at), name, email, company_name,
  business_size, industry, main_challenge, plan`

type PostgresSignupRepository struct {
	pool  *pgxpool.Pool
	clock *storeClock
}

func NewPostgresSignupRepository(pool *pgxpool.Pool) *PostgresSignupRepository {
	return &PostgresSignupRepository{pool: pool, clock: newStoreClock(nil)}
}

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (repo *PostgresSignupRepository) Create(ctx context.Context, record *models.UserRecord) error {
	if !record.BusinessSize.Valid() || !record.MainChallenge.Valid() || !record.Plan.Valid() {
		return models.ErrRecordRejected
	}

	id := uuid.NewString()
	createdAt := repo.clock.next()
	if err := insertUserRecord(ctx, repo.pool, id, createdAt, record); err != nil {
		return classifyPostgresError(err)
	}

	record.ID = id
	record.CreatedAt = createdAt
	record.UpdatedAt = createdAt
	return nil
}

// CreateUniqueEmail serializes writers of the same normalized email with a
// transaction-scoped advisory lock, then checks and inserts under it.
func (repo *PostgresSignupRepository) CreateUniqueEmail(ctx context.Context, record *models.UserRecord) error {
	if !record.BusinessSize.Valid() || !record.MainChallenge.Valid() || !record.Plan.Valid() {
		return models.ErrRecordRejected
	}

	id := uuid.NewString()
	createdAt := repo.clock.next()
	email := normalizedEmail(record.Email)
	err := pgx.BeginFunc(ctx, repo.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, email); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE lower(btrim(email)) = $1)`,
			email,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return models.ErrEmailTaken
		}
		return insertUserRecord(ctx, tx, id, createdAt, record)
	})
	if err != nil {
		return classifyPostgresError(err)
	}

	record.ID = id
	record.CreatedAt = createdAt
	record.UpdatedAt = createdAt
	return nil
}

func insertUserRecord(ctx context.Context, exec pgExecutor, id string, createdAt time.Time, record *models.UserRecord) error {
	_, err := exec.Exec(ctx, `
INSERT INTO users (id, created_at, updated_at, name, email, company_name, business_size, industry, main_challenge, plan)
VALUES ($1, $2, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id,
		createdAt,
		record.Name,
		record.Email,
		record.CompanyName,
		string(record.BusinessSize),
		record.Industry,
		string(record.MainChallenge),
		string(record.Plan),
	)
	return err
}

func (repo *PostgresSignupRepository) FindByID(ctx context.Context, id string) (models.UserRecord, error) {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return models.UserRecord{}, models.ErrRecordNotFound
	}
	rows, err := repo.pool.Query(ctx, `SELECT `+userRecordColumns+` FROM users WHERE id = $1`, strings.TrimSpace(id))
	if err != nil {
		return models.UserRecord{}, classifyPostgresError(err)
	}
	return collectOneUserRecord(rows)
}

func (repo *PostgresSignupRepository) FindByNormalizedEmail(ctx context.Context, email string) (models.UserRecord, error) {
	rows, err := repo.pool.Query(ctx,
		`SELECT `+userRecordColumns+` FROM users WHERE lower(btrim(email)) = $1 ORDER BY created_at ASC LIMIT 1`,
		email,
	)
	if err != nil {
		return models.UserRecord{}, classifyPostgresError(err)
	}
	return collectOneUserRecord(rows)
}

func (repo *PostgresSignupRepository) List(ctx context.Context, filter models.SignupFilter) ([]models.UserRecord, error) {
	clauses := make([]string, 0, 6)
	args := make([]any, 0, 7)
	addClause := func(expression string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(expression, len(args)))
	}

	if name := strings.TrimSpace(filter.Name); name != "" {
		addClause("name = $%d", name)
	}
	if email := normalizedEmail(filter.Email); email != "" {
		addClause("lower(btrim(email)) = $%d", email)
	}
	if !filter.CreatedAfter.IsZero() {
		addClause("created_at >= $%d", filter.CreatedAfter.UTC())
	}
	if !filter.CreatedBefore.IsZero() {
		addClause("created_at < $%d", filter.CreatedBefore.UTC())
	}
	if filter.BusinessSize != "" {
		addClause("business_size = $%d", string(filter.BusinessSize))
	}
	if company := strings.TrimSpace(filter.CompanyName); company != "" {
		addClause("company_name = $%d", company)
	}

	query := `SELECT ` + userRecordColumns + ` FROM users`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	args = append(args, filter.EffectiveLimit())
	query += " ORDER BY created_at ASC, id ASC LIMIT $" + strconv.Itoa(len(args))

	rows, err := repo.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPostgresError(err)
	}
	records, err := pgx.CollectRows(rows, scanUserRecord)
	if err != nil {
		return nil, classifyPostgresError(err)
	}
	return records, nil
}

func (repo *PostgresSignupRepository) Update(ctx context.Context, id string, request models.SignUpRequest) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return models.ErrRecordNotFound
	}
	tag, err := repo.pool.Exec(ctx, `
UPDATE users
SET name = $2, email = $3, company_name = $4, business_size = $5, industry = $6,
    main_challenge = $7, plan = $8, updated_at = $9
WHERE id = $1`,
		strings.TrimSpace(id),
		request.Name,
		request.Email,
		request.CompanyName,
		string(request.BusinessSize),
		request.Industry,
		string(request.MainChallenge),
		string(request.Plan),
		repo.clock.next(),
	)
	if err != nil {
		return classifyPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrRecordNotFound
	}
	return nil
}

func (repo *PostgresSignupRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&count); err != nil {
		return 0, classifyPostgresError(err)
	}
	return count, nil
}

func (repo *PostgresSignupRepository) Ping(ctx context.Context) error {
	return repo.pool.Ping(ctx)
}

func (repo *PostgresSignupRepository) Close() error {
	repo.pool.Close()
	return nil
}

func collectOneUserRecord(rows pgx.Rows) (models.UserRecord, error) {
	record, err := pgx.CollectExactlyOneRow(rows, scanUserRecord)
	if err != nil {
		return models.UserRecord{}, classifyPostgresError(err)
	}
	return record, nil
}

func scanUserRecord(row pgx.CollectableRow) (models.UserRecord, error) {
	var (
		record        models.UserRecord
		businessSize  string
		mainChallenge string
		plan          string
	)
	if err := row.Scan(
		&record.ID,
		&record.CreatedAt,
		&record.UpdatedAt,
		&record.Name,
		&record.Email,
		&record.CompanyName,
		&businessSize,
		&record.Industry,
		&mainChallenge,
		&plan,
	); err != nil {
		return models.UserRecord{}, err
	}
	record.BusinessSize = models.BusinessSize(businessSize)
	record.MainChallenge = models.MainChallenge(mainChallenge)
	record.Plan = models.Plan(plan)
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func classifyPostgresError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrRecordNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCheckViolation, pgNotNullViolation, pgInvalidTextInput, pgStringDataTruncated:
			return fmt.Errorf("%w: %s", models.ErrRecordRejected, pgErr.Message)
		}
	}
	return err
}
