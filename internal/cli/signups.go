package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/terraincognita07/detailsync/internal/models"
)

// SignupReader is the read side of the sign-up service used by the admin commands.
type SignupReader interface {
	FindUser(ctx context.Context, id string) (models.UserRecord, error)
	FindUserByEmail(ctx context.Context, email string) (models.UserRecord, error)
	ListUsers(ctx context.Context, filter models.SignupFilter) ([]models.UserRecord, error)
}

type ListOptions struct {
	Name          string
	Email         string
	BusinessSize  string
	CompanyName   string
	CreatedAfter  string
	CreatedBefore string
	Limit         int
	JSON          bool
}

type signupView struct {
	ID            string `json:"id"`
	CreatedAt     string `json:"createdAt"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	CompanyName   string `json:"companyName"`
	BusinessSize  string `json:"businessSize"`
	Industry      string `json:"industry"`
	MainChallenge string `json:"mainChallenge"`
	Plan          string `json:"plan"`
}

func RunListSignups(ctx context.Context, reader SignupReader, options ListOptions, out io.Writer) error {
	filter, err := options.filter()
	if err != nil {
		return err
	}

	records, err := reader.ListUsers(ctx, filter)
	if err != nil {
		return fmt.Errorf("list signups: %w", err)
	}

	if options.JSON {
		views := make([]signupView, 0, len(records))
		for _, record := range records {
			views = append(views, newSignupView(record))
		}
		return writeJSON(out, views)
	}

	table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tCREATED\tNAME\tEMAIL\tCOMPANY\tSIZE\tPLAN")
	for _, record := range records {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			record.ID,
			record.CreatedAt.UTC().Format(time.RFC3339),
			record.Name,
			record.Email,
			record.CompanyName,
			record.BusinessSize,
			record.Plan,
		)
	}
	if err := table.Flush(); err != nil {
		return fmt.Errorf("write signup table: %w", err)
	}
	fmt.Fprintf(out, "%d signup(s)\n", len(records))
	return nil
}

// RunShowSignup prints one record looked up by identity, or by email when the
// argument parses as an address.
func RunShowSignup(ctx context.Context, reader SignupReader, idOrEmail string, asJSON bool, out io.Writer) error {
	key := strings.TrimSpace(idOrEmail)
	if key == "" {
		return errors.New("signup id or email is required")
	}

	var (
		record models.UserRecord
		err    error
	)
	if _, parseErr := mail.ParseAddress(key); parseErr == nil {
		record, err = reader.FindUserByEmail(ctx, key)
	} else {
		record, err = reader.FindUser(ctx, key)
	}
	if errors.Is(err, models.ErrRecordNotFound) {
		return fmt.Errorf("signup %s not found", key)
	}
	if err != nil {
		return fmt.Errorf("load signup: %w", err)
	}

	view := newSignupView(record)
	if asJSON {
		return writeJSON(out, view)
	}

	table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"ID", view.ID},
		{"Created", view.CreatedAt},
		{"Name", view.Name},
		{"Email", view.Email},
		{"Company", view.CompanyName},
		{"Business size", view.BusinessSize},
		{"Industry", view.Industry},
		{"Main challenge", view.MainChallenge},
		{"Plan", view.Plan},
	}
	for _, row := range rows {
		fmt.Fprintf(table, "%s:\t%s\n", row[0], row[1])
	}
	return table.Flush()
}

func (options ListOptions) filter() (models.SignupFilter, error) {
	filter := models.SignupFilter{
		Name:        strings.TrimSpace(options.Name),
		Email:       strings.TrimSpace(options.Email),
		CompanyName: strings.TrimSpace(options.CompanyName),
		Limit:       options.Limit,
	}

	if raw := strings.TrimSpace(options.BusinessSize); raw != "" {
		size, ok := models.ParseBusinessSize(raw)
		if !ok {
			return models.SignupFilter{}, fmt.Errorf("invalid business size %q", raw)
		}
		filter.BusinessSize = size
	}

	var err error
	if filter.CreatedAfter, err = parseFilterTime("created-after", options.CreatedAfter); err != nil {
		return models.SignupFilter{}, err
	}
	if filter.CreatedBefore, err = parseFilterTime("created-before", options.CreatedBefore); err != nil {
		return models.SignupFilter{}, err
	}
	return filter, nil
}

// parseFilterTime accepts RFC 3339 timestamps or plain YYYY-MM-DD dates in UTC.
func parseFilterTime(flag string, raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.DateOnly, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s value %q", flag, trimmed)
	}
	return parsed, nil
}

func newSignupView(record models.UserRecord) signupView {
	return signupView{
		ID:            record.ID,
		CreatedAt:     record.CreatedAt.UTC().Format(time.RFC3339Nano),
		Name:          record.Name,
		Email:         record.Email,
		CompanyName:   record.CompanyName,
		BusinessSize:  string(record.BusinessSize),
		Industry:      record.Industry,
		MainChallenge: string(record.MainChallenge),
		Plan:          string(record.Plan),
	}
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
