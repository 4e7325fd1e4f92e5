package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/terraincognita07/detailsync/internal/models"
)

type stubSignupRepository struct {
	records   []models.UserRecord
	nextID    int
	createErr error
	listErr   error
	creates   int

	uniqueCreates int
}

func (repo *stubSignupRepository) Create(_ context.Context, record *models.UserRecord) error {
	repo.creates++
	if repo.createErr != nil {
		return repo.createErr
	}
	repo.nextID++
	record.ID = fmt.Sprintf("user-%d", repo.nextID)
	repo.records = append(repo.records, *record)
	return nil
}

func (repo *stubSignupRepository) FindByID(_ context.Context, id string) (models.UserRecord, error) {
	for _, record := range repo.records {
		if record.ID == id {
			return record, nil
		}
	}
	return models.UserRecord{}, models.ErrRecordNotFound
}

func (repo *stubSignupRepository) FindByNormalizedEmail(_ context.Context, email string) (models.UserRecord, error) {
	for _, record := range repo.records {
		if strings.ToLower(strings.TrimSpace(record.Email)) == email {
			return record, nil
		}
	}
	return models.UserRecord{}, models.ErrRecordNotFound
}

func (repo *stubSignupRepository) CreateUniqueEmail(ctx context.Context, record *models.UserRecord) error {
	repo.uniqueCreates++
	if _, err := repo.FindByNormalizedEmail(ctx, strings.ToLower(strings.TrimSpace(record.Email))); err == nil {
		return models.ErrEmailTaken
	}
	return repo.Create(ctx, record)
}

func (repo *stubSignupRepository) List(_ context.Context, filter models.SignupFilter) ([]models.UserRecord, error) {
	if repo.listErr != nil {
		return nil, repo.listErr
	}
	matched := make([]models.UserRecord, 0, len(repo.records))
	for _, record := range repo.records {
		if filter.BusinessSize != "" && record.BusinessSize != filter.BusinessSize {
			continue
		}
		matched = append(matched, record)
	}
	return matched, nil
}

func (repo *stubSignupRepository) Update(_ context.Context, id string, request models.SignUpRequest) error {
	for index := range repo.records {
		if repo.records[index].ID == id {
			updated := models.NewUserRecord(request)
			updated.ID = id
			repo.records[index] = updated
			return nil
		}
	}
	return models.ErrRecordNotFound
}

func validSignUpRequest() models.SignUpRequest {
	request, err := ValidateSignUp(validSignUpInput())
	if err != nil {
		panic(err)
	}
	return request
}

func TestCreateUserIsNotIdempotent(t *testing.T) {
	repo := &stubSignupRepository{}
	service := NewSignupService(repo, SignupServiceOptions{Logger: zerolog.Nop()})

	firstID, err := service.CreateUser(context.Background(), validSignUpRequest())
	if err != nil {
		t.Fatalf("CreateUser() unexpected error: %v", err)
	}
	secondID, err := service.CreateUser(context.Background(), validSignUpRequest())
	if err != nil {
		t.Fatalf("CreateUser() second call unexpected error: %v", err)
	}

	if firstID == secondID {
		t.Fatalf("expected distinct identities, got %q twice", firstID)
	}
	if len(repo.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(repo.records))
	}
}

func TestCreateUserRejectsInvalidRequestBeforeStore(t *testing.T) {
	repo := &stubSignupRepository{}
	service := NewSignupService(repo, SignupServiceOptions{Logger: zerolog.Nop()})

	request := validSignUpRequest()
	request.AgreeTerms = false
	if _, err := service.CreateUser(context.Background(), request); !errors.Is(err, ErrSignupInvalid) {
		t.Fatalf("expected ErrSignupInvalid, got %v", err)
	}

	request = validSignUpRequest()
	request.Plan = "free"
	if _, err := service.CreateUser(context.Background(), request); !errors.Is(err, ErrSignupInvalid) {
		t.Fatalf("expected ErrSignupInvalid for unknown plan, got %v", err)
	}

	if repo.creates != 0 {
		t.Fatalf("expected store to be untouched, got %d creates", repo.creates)
	}
}

func TestCreateUserClassifiesStoreFailures(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{name: "rejected", storeErr: fmt.Errorf("%w: CHECK constraint failed", models.ErrRecordRejected), want: ErrSignupRejected},
		{name: "unavailable", storeErr: errors.New("database is locked"), want: ErrRecordStoreUnavailable},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			repo := &stubSignupRepository{createErr: testCase.storeErr}
			service := NewSignupService(repo, SignupServiceOptions{Logger: zerolog.Nop()})

			id, err := service.CreateUser(context.Background(), validSignUpRequest())
			if !errors.Is(err, testCase.want) {
				t.Fatalf("expected %v, got %v", testCase.want, err)
			}
			if id != "" {
				t.Fatalf("expected no identity on failure, got %q", id)
			}
		})
	}
}

func TestCreateUserEnforcesUniqueEmailWhenEnabled(t *testing.T) {
	repo := &stubSignupRepository{}
	service := NewSignupService(repo, SignupServiceOptions{RequireUniqueEmail: true, Logger: zerolog.Nop()})

	if _, err := service.CreateUser(context.Background(), validSignUpRequest()); err != nil {
		t.Fatalf("CreateUser() unexpected error: %v", err)
	}

	duplicate := validSignUpRequest()
	duplicate.Email = "ANA@example.com"
	if _, err := service.CreateUser(context.Background(), duplicate); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected a single record, got %d", len(repo.records))
	}
	if repo.uniqueCreates != 2 {
		t.Fatalf("expected both writes to use the conditional insert, got %d", repo.uniqueCreates)
	}
}

func TestCreateUserUsesPlainInsertWhenUniquenessDisabled(t *testing.T) {
	repo := &stubSignupRepository{}
	service := NewSignupService(repo, SignupServiceOptions{Logger: zerolog.Nop()})

	for range 2 {
		if _, err := service.CreateUser(context.Background(), validSignUpRequest()); err != nil {
			t.Fatalf("CreateUser() unexpected error: %v", err)
		}
	}
	if repo.uniqueCreates != 0 || len(repo.records) != 2 {
		t.Fatalf("expected two plain inserts, got %d conditional and %d records", repo.uniqueCreates, len(repo.records))
	}
}

func TestFindUserAndFindUserByEmail(t *testing.T) {
	repo := &stubSignupRepository{}
	service := NewSignupService(repo, SignupServiceOptions{Logger: zerolog.Nop()})

	id, err := service.CreateUser(context.Background(), validSignUpRequest())
	if err != nil {
		t.Fatalf("CreateUser() unexpected error: %v", err)
	}

	record, err := service.FindUser(context.Background(), id)
	if err != nil {
		t.Fatalf("FindUser() unexpected error: %v", err)
	}
	if record.ID != id {
		t.Fatalf("expected record %q, got %q", id, record.ID)
	}

	byEmail, err := service.FindUserByEmail(context.Background(), "  ANA@example.com ")
	if err != nil {
		t.Fatalf("FindUserByEmail() unexpected error: %v", err)
	}
	if byEmail.ID != id {
		t.Fatalf("expected email lookup to return %q, got %q", id, byEmail.ID)
	}

	if _, err := service.FindUserByEmail(context.Background(), "Ana Diaz"); !errors.Is(err, models.ErrRecordNotFound) {
		t.Fatalf("expected name-shaped email lookup to miss, got %v", err)
	}
	if _, err := service.FindUser(context.Background(), "  "); !errors.Is(err, models.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for blank id, got %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	repo := &stubSignupRepository{}
	service := NewSignupService(repo, SignupServiceOptions{Logger: zerolog.Nop()})

	id, err := service.CreateUser(context.Background(), validSignUpRequest())
	if err != nil {
		t.Fatalf("CreateUser() unexpected error: %v", err)
	}

	update := validSignUpRequest()
	update.AgreeTerms = false
	update.Plan = models.PlanEnterprise
	if err := service.UpdateUser(context.Background(), id, update); err != nil {
		t.Fatalf("UpdateUser() unexpected error: %v", err)
	}
	record, err := service.FindUser(context.Background(), id)
	if err != nil {
		t.Fatalf("FindUser() unexpected error: %v", err)
	}
	if record.Plan != models.PlanEnterprise {
		t.Fatalf("expected updated plan, got %q", record.Plan)
	}

	if err := service.UpdateUser(context.Background(), "missing", update); !errors.Is(err, models.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	update.Name = "A"
	if err := service.UpdateUser(context.Background(), id, update); !errors.Is(err, ErrSignupInvalid) {
		t.Fatalf("expected ErrSignupInvalid, got %v", err)
	}
}

func TestListUsersValidatesFilter(t *testing.T) {
	repo := &stubSignupRepository{}
	service := NewSignupService(repo, SignupServiceOptions{Logger: zerolog.Nop()})

	if _, err := service.ListUsers(context.Background(), models.SignupFilter{BusinessSize: "huge"}); !errors.Is(err, ErrSignupInvalid) {
		t.Fatalf("expected ErrSignupInvalid, got %v", err)
	}

	repo.listErr = errors.New("disk I/O error")
	if _, err := service.ListUsers(context.Background(), models.SignupFilter{}); !errors.Is(err, ErrRecordStoreUnavailable) {
		t.Fatalf("expected ErrRecordStoreUnavailable, got %v", err)
	}
}
