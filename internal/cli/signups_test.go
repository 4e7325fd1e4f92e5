package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/terraincognita07/detailsync/internal/db"
	"github.com/terraincognita07/detailsync/internal/models"
	"github.com/terraincognita07/detailsync/internal/services"
)

type fakeSignupReader struct {
	records    []models.UserRecord
	lastFilter models.SignupFilter
}

func (reader *fakeSignupReader) FindUser(_ context.Context, id string) (models.UserRecord, error) {
	for _, record := range reader.records {
		if record.ID == id {
			return record, nil
		}
	}
	return models.UserRecord{}, models.ErrRecordNotFound
}

func (reader *fakeSignupReader) FindUserByEmail(_ context.Context, email string) (models.UserRecord, error) {
	for _, record := range reader.records {
		if strings.EqualFold(record.Email, email) {
			return record, nil
		}
	}
	return models.UserRecord{}, models.ErrRecordNotFound
}

func (reader *fakeSignupReader) ListUsers(_ context.Context, filter models.SignupFilter) ([]models.UserRecord, error) {
	reader.lastFilter = filter
	return reader.records, nil
}

func newFakeSignupReader() *fakeSignupReader {
	return &fakeSignupReader{records: []models.UserRecord{
		{
			ID:            "6f1c2f7e-8a52-4f4e-9d43-3f2a2b1c0d01",
			CreatedAt:     time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC),
			Name:          "Ana Diaz",
			Email:         "ana@example.com",
			CompanyName:   "Shine Co",
			BusinessSize:  models.BusinessSizeSmall,
			Industry:      "Detailing",
			MainChallenge: models.MainChallengeScheduling,
			Plan:          models.PlanPro,
		},
	}}
}

func TestRunListSignupsPrintsTable(t *testing.T) {
	t.Parallel()

	reader := newFakeSignupReader()
	var out bytes.Buffer
	err := RunListSignups(context.Background(), reader, ListOptions{
		BusinessSize: "small",
		CreatedAfter: "2026-03-01",
		Limit:        10,
	}, &out)
	if err != nil {
		t.Fatalf("RunListSignups returned error: %v", err)
	}

	output := out.String()
	for _, fragment := range []string{"ID", "Ana Diaz", "Shine Co", "2026-03-02T09:30:00Z", "1 signup(s)"} {
		if !strings.Contains(output, fragment) {
			t.Fatalf("expected output to contain %q, got:\n%s", fragment, output)
		}
	}
	if reader.lastFilter.BusinessSize != models.BusinessSizeSmall {
		t.Fatalf("expected business size filter small, got %q", reader.lastFilter.BusinessSize)
	}
	if want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC); !reader.lastFilter.CreatedAfter.Equal(want) {
		t.Fatalf("expected created-after %s, got %s", want, reader.lastFilter.CreatedAfter)
	}
	if reader.lastFilter.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", reader.lastFilter.Limit)
	}
}

func TestRunListSignupsRejectsBadFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options ListOptions
	}{
		{name: "unknown business size", options: ListOptions{BusinessSize: "huge"}},
		{name: "bad created-after", options: ListOptions{CreatedAfter: "yesterday"}},
		{name: "bad created-before", options: ListOptions{CreatedBefore: "03/02/2026"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := RunListSignups(context.Background(), newFakeSignupReader(), testCase.options, &out); err == nil {
				t.Fatal("expected filter error")
			}
		})
	}
}

func TestRunShowSignupByIDAndEmail(t *testing.T) {
	t.Parallel()

	reader := newFakeSignupReader()

	var byID bytes.Buffer
	if err := RunShowSignup(context.Background(), reader, "6f1c2f7e-8a52-4f4e-9d43-3f2a2b1c0d01", false, &byID); err != nil {
		t.Fatalf("RunShowSignup by id returned error: %v", err)
	}
	if !strings.Contains(byID.String(), "Main challenge:") || !strings.Contains(byID.String(), "scheduling") {
		t.Fatalf("unexpected show output:\n%s", byID.String())
	}

	var byEmail bytes.Buffer
	if err := RunShowSignup(context.Background(), reader, "ANA@example.com", true, &byEmail); err != nil {
		t.Fatalf("RunShowSignup by email returned error: %v", err)
	}
	view := map[string]string{}
	if err := json.Unmarshal(byEmail.Bytes(), &view); err != nil {
		t.Fatalf("decode show json: %v", err)
	}
	if view["plan"] != "pro" || view["companyName"] != "Shine Co" {
		t.Fatalf("unexpected json view: %v", view)
	}
}

func TestRunShowSignupNotFound(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := RunShowSignup(context.Background(), newFakeSignupReader(), "missing-id", false, &out)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if err := RunShowSignup(context.Background(), newFakeSignupReader(), "  ", false, &out); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestRunListSignupsAgainstStoreMatchesEmailLooselyOldestFirst(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "detailsync-cli-test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := db.NewSignupRepository(database)
	t.Cleanup(func() {
		_ = store.Close()
	})
	service := services.NewSignupService(store, services.SignupServiceOptions{Logger: zerolog.Nop()})

	ctx := context.Background()
	for _, request := range []models.SignUpRequest{
		{Name: "Ana Diaz", Email: "ana@example.com", CompanyName: "Shine Co", BusinessSize: models.BusinessSizeSmall, Industry: "Detailing", MainChallenge: models.MainChallengeScheduling, Plan: models.PlanPro, AgreeTerms: true},
		{Name: "Bo Lee", Email: "bo@example.com", CompanyName: "Gloss Bros", BusinessSize: models.BusinessSizeSolo, Industry: "Detailing", MainChallenge: models.MainChallengeGrowth, Plan: models.PlanStarter, AgreeTerms: true},
	} {
		if _, err := service.CreateUser(ctx, request); err != nil {
			t.Fatalf("create %s: %v", request.Name, err)
		}
	}

	var all bytes.Buffer
	if err := RunListSignups(ctx, service, ListOptions{JSON: true}, &all); err != nil {
		t.Fatalf("list all: %v", err)
	}
	var views []signupView
	if err := json.Unmarshal(all.Bytes(), &views); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(views) != 2 || views[0].Name != "Ana Diaz" || views[1].Name != "Bo Lee" {
		t.Fatalf("expected oldest sign-up first, got %+v", views)
	}

	var filtered bytes.Buffer
	if err := RunListSignups(ctx, service, ListOptions{Email: " ANA@Example.COM ", JSON: true}, &filtered); err != nil {
		t.Fatalf("list by email: %v", err)
	}
	views = nil
	if err := json.Unmarshal(filtered.Bytes(), &views); err != nil {
		t.Fatalf("decode filtered list: %v", err)
	}
	if len(views) != 1 || views[0].Email != "ana@example.com" {
		t.Fatalf("expected email filter to ignore case and padding, got %+v", views)
	}
}
