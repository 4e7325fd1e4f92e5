package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func TestCSRFMiddlewareConfigUsesCookieSecureFlag(t *testing.T) {
	secureConfig := csrfMiddlewareConfig(true)
	if !secureConfig.CookieSecure {
		t.Fatal("expected csrf cookie secure flag to be enabled")
	}
	if secureConfig.CookieName != "detailsync_csrf" {
		t.Fatalf("expected csrf cookie name detailsync_csrf, got %q", secureConfig.CookieName)
	}
	if secureConfig.KeyLookup != "form:csrf_token" {
		t.Fatalf("expected csrf key lookup form:csrf_token, got %q", secureConfig.KeyLookup)
	}

	insecureConfig := csrfMiddlewareConfig(false)
	if insecureConfig.CookieSecure {
		t.Fatal("expected csrf cookie secure flag to be disabled")
	}
}

func TestCSRFMiddlewareSkipsJSONPosts(t *testing.T) {
	app := fiber.New()
	app.Use(csrf.New(csrfMiddlewareConfig(false)))
	app.Post("/api/signups", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	jsonRequest := httptest.NewRequest(http.MethodPost, "/api/signups", strings.NewReader(`{}`))
	jsonRequest.Header.Set("Content-Type", "application/json")
	response, err := app.Test(jsonRequest, -1)
	if err != nil {
		t.Fatalf("json request failed: %v", err)
	}
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected json post to bypass csrf, got %d", response.StatusCode)
	}

	formRequest := httptest.NewRequest(http.MethodPost, "/api/signups", strings.NewReader("name=Ana"))
	formRequest.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	response, err = app.Test(formRequest, -1)
	if err != nil {
		t.Fatalf("form request failed: %v", err)
	}
	if response.StatusCode != http.StatusForbidden {
		t.Fatalf("expected form post without token to be rejected, got %d", response.StatusCode)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()

	for _, path := range [][]string{{"serve"}, {"migrate"}, {"signups", "list"}, {"signups", "show"}} {
		command, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("find %v: %v", path, err)
		}
		if command.Name() != path[len(path)-1] {
			t.Fatalf("expected command %q, got %q", path[len(path)-1], command.Name())
		}
	}

	list, _, _ := root.Find([]string{"signups", "list"})
	for _, flag := range []string{"name", "email", "business-size", "company", "created-after", "created-before", "limit", "json"} {
		if list.Flags().Lookup(flag) == nil {
			t.Fatalf("expected signups list flag --%s", flag)
		}
	}
}

func TestMigrateRequiresSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("DB_PATH", t.TempDir()+"/detailsync.db")

	root := newRootCommand()
	root.SetArgs([]string{"migrate", "--env-file", t.TempDir() + "/missing.env"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "SECRET_KEY") {
		t.Fatalf("expected SECRET_KEY error, got %v", err)
	}
}
