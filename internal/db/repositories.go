package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/terraincognita07/detailsync/internal/config"
	"github.com/terraincognita07/detailsync/internal/models"
)

// RecordStore is the persistence backend selected by configuration.
type RecordStore interface {
	Create(ctx context.Context, record *models.UserRecord) error
	CreateUniqueEmail(ctx context.Context, record *models.UserRecord) error
	FindByID(ctx context.Context, id string) (models.UserRecord, error)
	FindByNormalizedEmail(ctx context.Context, email string) (models.UserRecord, error)
	List(ctx context.Context, filter models.SignupFilter) ([]models.UserRecord, error)
	Update(ctx context.Context, id string, request models.SignUpRequest) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ RecordStore = (*SignupRepository)(nil)
	_ RecordStore = (*PostgresSignupRepository)(nil)
)

func OpenRecordStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (RecordStore, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", cfg.DBDriver).Msg("record store ready")
		return NewPostgresSignupRepository(pool), nil
	case config.DriverSQLite, "":
		database, err := OpenSQLite(cfg.DBPath, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", config.DriverSQLite).Str("path", cfg.DBPath).Msg("record store ready")
		return NewSignupRepository(database), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}
