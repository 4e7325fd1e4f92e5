package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/terraincognita07/detailsync/internal/db"
	"github.com/terraincognita07/detailsync/internal/i18n"
	"github.com/terraincognita07/detailsync/internal/services"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

var formIDPattern = regexp.MustCompile(`name="form_id" value="([A-Za-z0-9]+)"`)

type signupTestOptions struct {
	repository         services.SignupRepository
	requireUniqueEmail bool
	rateLimit          int
}

type signupTestApp struct {
	app     *fiber.App
	handler *Handler
	store   *db.SignupRepository
}

func newSignupTestApp(t *testing.T) *signupTestApp {
	t.Helper()
	return newSignupTestAppWithOptions(t, signupTestOptions{})
}

func newSignupTestAppWithOptions(t *testing.T, options signupTestOptions) *signupTestApp {
	t.Helper()

	_, testFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("resolve current test file path")
	}
	internalDir := filepath.Dir(filepath.Dir(testFile))
	templatesDir := filepath.Join(internalDir, "templates")
	localesDir := filepath.Join(internalDir, "i18n", "locales")

	testApp := &signupTestApp{}
	repository := options.repository
	if repository == nil {
		database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "detailsync-api-test.db"), zerolog.Nop())
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		testApp.store = db.NewSignupRepository(database)
		t.Cleanup(func() {
			_ = testApp.store.Close()
		})
		repository = testApp.store
	}

	i18nManager, err := i18n.NewManager("en", localesDir)
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}
	catalog, err := services.LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	handler, err := NewHandler(Dependencies{
		Signups: services.NewSignupService(repository, services.SignupServiceOptions{
			RequireUniqueEmail: options.requireUniqueEmail,
			Logger:             zerolog.Nop(),
		}),
		Catalog: catalog,
		I18n:    i18nManager,
		Logger:  zerolog.Nop(),
	}, Options{
		SecretKey:                testSecretKey,
		TemplateDir:              templatesDir,
		SignupRateLimitPerMinute: options.rateLimit,
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	app.Use(handler.RequestLogger)
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)

	testApp.app = app
	testApp.handler = handler
	return testApp
}

func anaDiazPayload() map[string]any {
	return map[string]any{
		"name":          "Ana Diaz",
		"email":         "ana@example.com",
		"companyName":   "Shine Co",
		"businessSize":  "small",
		"industry":      "Detailing",
		"mainChallenge": "scheduling",
		"plan":          "pro",
		"agreeTerms":    true,
	}
}

func anaDiazForm() url.Values {
	return url.Values{
		"name":          {"Ana Diaz"},
		"email":         {"ana@example.com"},
		"companyName":   {"Shine Co"},
		"businessSize":  {"small"},
		"industry":      {"Detailing"},
		"mainChallenge": {"scheduling"},
		"plan":          {"pro"},
		"agreeTerms":    {"on"},
	}
}

func (testApp *signupTestApp) do(t *testing.T, request *http.Request) *http.Response {
	t.Helper()
	response, err := testApp.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", request.Method, request.URL.Path, err)
	}
	return response
}

func (testApp *signupTestApp) postSignupJSON(t *testing.T, payload map[string]any, headers map[string]string) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	request := httptest.NewRequest(http.MethodPost, "/api/signups", strings.NewReader(string(body)))
	request.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		request.Header.Set(name, value)
	}
	return testApp.do(t, request)
}

func (testApp *signupTestApp) postSignupForm(t *testing.T, form url.Values) *http.Response {
	t.Helper()
	request := httptest.NewRequest(http.MethodPost, "/api/signups", strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testApp.do(t, request)
}

func (testApp *signupTestApp) get(t *testing.T, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	for _, cookie := range cookies {
		request.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return testApp.do(t, request)
}

func (testApp *signupTestApp) signupCount(t *testing.T) int64 {
	t.Helper()
	if testApp.store == nil {
		t.Fatal("signupCount needs the sqlite store")
	}
	count, err := testApp.store.Count(t.Context())
	if err != nil {
		t.Fatalf("count signups: %v", err)
	}
	return count
}

func renderedFormID(t *testing.T, body string) string {
	t.Helper()
	matches := formIDPattern.FindStringSubmatch(body)
	if len(matches) != 2 {
		t.Fatalf("form_id not found in rendered page")
	}
	return matches[1]
}

func readBody(t *testing.T, body io.Reader) string {
	t.Helper()
	content, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(content)
}

func readJSONMap(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	payload := map[string]any{}
	if err := json.Unmarshal([]byte(readBody(t, body)), &payload); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return payload
}

func responseCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie != nil && cookie.Name == name && cookie.Value != "" {
			return cookie
		}
	}
	return nil
}
