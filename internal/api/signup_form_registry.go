package api

import (
	"sync"
	"time"

	"github.com/terraincognita07/detailsync/internal/security"
	"github.com/terraincognita07/detailsync/internal/services"
)

const (
	maxTrackedSignupForms = 10_000
	minSignupFormSweep    = time.Second
)

type trackedSignupForm struct {
	form    *services.SignupForm
	touched time.Time
}

// signupFormRegistry keeps the server side of every rendered sign-up form,
// keyed by an opaque token embedded in the page. Idle forms are swept at most
// once per sweepEvery; between sweeps a lookup expires its own entry.
type signupFormRegistry struct {
	mu         sync.Mutex
	mutation   services.SignupMutation
	ttl        time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
	forms      map[string]*trackedSignupForm
}

func newSignupFormRegistry(mutation services.SignupMutation, ttl time.Duration) *signupFormRegistry {
	sweepEvery := ttl / 2
	if sweepEvery < minSignupFormSweep {
		sweepEvery = minSignupFormSweep
	}
	return &signupFormRegistry{
		mutation:   mutation,
		ttl:        ttl,
		sweepEvery: sweepEvery,
		forms:      make(map[string]*trackedSignupForm),
	}
}

func (registry *signupFormRegistry) open(selectedPlan string, now time.Time) (string, *services.SignupForm, error) {
	token, err := security.NewFormToken()
	if err != nil {
		return "", nil, err
	}
	form := services.NewSignupForm(registry.mutation, selectedPlan)

	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.maybeSweepLocked(now)
	if len(registry.forms) >= maxTrackedSignupForms {
		registry.sweepLocked(now)
	}
	if len(registry.forms) >= maxTrackedSignupForms {
		registry.evictOldestLocked()
	}
	registry.forms[token] = &trackedSignupForm{form: form, touched: now}
	return token, form, nil
}

func (registry *signupFormRegistry) lookup(token string, now time.Time) (*services.SignupForm, bool) {
	if !security.IsFormToken(token) {
		return nil, false
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	registry.maybeSweepLocked(now)
	tracked, ok := registry.forms[token]
	if !ok {
		return nil, false
	}
	if registry.expiredLocked(tracked, now) {
		delete(registry.forms, token)
		return nil, false
	}
	tracked.touched = now
	return tracked.form, true
}

func (registry *signupFormRegistry) size() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.forms)
}

func (registry *signupFormRegistry) maybeSweepLocked(now time.Time) {
	if now.Sub(registry.lastSweep) < registry.sweepEvery {
		return
	}
	registry.sweepLocked(now)
}

// sweepLocked drops forms idle for longer than the TTL. Forms with an
// outstanding submission are kept.
func (registry *signupFormRegistry) sweepLocked(now time.Time) {
	registry.lastSweep = now
	for token, tracked := range registry.forms {
		if registry.expiredLocked(tracked, now) {
			delete(registry.forms, token)
		}
	}
}

func (registry *signupFormRegistry) expiredLocked(tracked *trackedSignupForm, now time.Time) bool {
	return !tracked.touched.After(now.Add(-registry.ttl)) && !tracked.form.Submitting()
}

func (registry *signupFormRegistry) evictOldestLocked() {
	oldestToken := ""
	var oldest time.Time
	for token, tracked := range registry.forms {
		if tracked.form.Submitting() {
			continue
		}
		if oldestToken == "" || tracked.touched.Before(oldest) {
			oldestToken = token
			oldest = tracked.touched
		}
	}
	if oldestToken != "" {
		delete(registry.forms, oldestToken)
	}
}
