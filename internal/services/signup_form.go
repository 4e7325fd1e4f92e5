package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/terraincognita07/detailsync/internal/models"
)

var (
	ErrSubmissionInFlight = errors.New("submission in progress")
	ErrFormClosed         = errors.New("sign-up form closed")
	ErrSubmissionPanicked = errors.New("sign-up submission panicked")
)

type SignupFormState string

const (
	SignupFormIdle       SignupFormState = "idle"
	SignupFormValidating SignupFormState = "validating"
	SignupFormSubmitting SignupFormState = "submitting"
	SignupFormSucceeded  SignupFormState = "succeeded"
	SignupFormFailed     SignupFormState = "failed"
)

const (
	SignupSuccessMessage   = "Sign up successful! Welcome to DetailSync."
	SignupFailureMessage   = "An unexpected error occurred. Please try again later."
	SignupDuplicateMessage = "This email is already registered."
)

type SignupNoticeKind string

const (
	SignupNoticeSuccess SignupNoticeKind = "success"
	SignupNoticeError   SignupNoticeKind = "error"
)

// SignupNotice is the toast shown after a submission resolves.
type SignupNotice struct {
	Kind       SignupNoticeKind
	Message    string
	MessageKey string
}

type SignupMutation interface {
	CreateUser(ctx context.Context, request models.SignUpRequest) (string, error)
}

type SignupMutationFunc func(ctx context.Context, request models.SignUpRequest) (string, error)

func (fn SignupMutationFunc) CreateUser(ctx context.Context, request models.SignUpRequest) (string, error) {
	return fn(ctx, request)
}

// SignupTransitionObserver is called with the form lock held and must not call back into the form.
type SignupTransitionObserver func(from SignupFormState, to SignupFormState)

// SignupSubmission reports one Submit call. Plan is the validated tier and is
// only set on success.
type SignupSubmission struct {
	Outcome SignupFormState
	UserID  string
	Plan    models.Plan
	Fields  map[string]string
	Notice  *SignupNotice
}

type SignupForm struct {
	mu          sync.Mutex
	mutation    SignupMutation
	state       SignupFormState
	values      SignUpInput
	fieldErrors map[string]string
	closed      bool
	userID      string
	observer    SignupTransitionObserver
}

// NewSignupForm opens a form in the idle state. A selectedPlan naming a known
// tier pre-fills the plan field.
func NewSignupForm(mutation SignupMutation, selectedPlan string) *SignupForm {
	form := &SignupForm{
		mutation: mutation,
		state:    SignupFormIdle,
	}
	if plan, ok := models.ParsePlan(selectedPlan); ok {
		form.values.Plan = string(plan)
	}
	return form
}

func (form *SignupForm) SetObserver(observer SignupTransitionObserver) {
	form.mu.Lock()
	defer form.mu.Unlock()
	form.observer = observer
}

func (form *SignupForm) State() SignupFormState {
	form.mu.Lock()
	defer form.mu.Unlock()
	return form.state
}

func (form *SignupForm) Values() SignUpInput {
	form.mu.Lock()
	defer form.mu.Unlock()
	return form.values
}

func (form *SignupForm) FieldErrors() map[string]string {
	form.mu.Lock()
	defer form.mu.Unlock()

	fields := make(map[string]string, len(form.fieldErrors))
	for name, message := range form.fieldErrors {
		fields[name] = message
	}
	return fields
}

func (form *SignupForm) Closed() bool {
	form.mu.Lock()
	defer form.mu.Unlock()
	return form.closed
}

func (form *SignupForm) UserID() string {
	form.mu.Lock()
	defer form.mu.Unlock()
	return form.userID
}

// Submitting reports whether a mutation call is currently outstanding.
func (form *SignupForm) Submitting() bool {
	return form.State() == SignupFormSubmitting
}

// Submit runs one pass of the form state machine. Schema failures return the
// form to idle without calling the mutation. Mutation failures pass through
// failed back to idle with the entered values kept.
func (form *SignupForm) Submit(ctx context.Context, input SignUpInput) (SignupSubmission, error) {
	form.mu.Lock()
	if form.closed {
		form.mu.Unlock()
		return SignupSubmission{}, ErrFormClosed
	}
	if form.state != SignupFormIdle {
		form.mu.Unlock()
		return SignupSubmission{}, ErrSubmissionInFlight
	}

	form.values = input.Normalize()
	form.transitionLocked(SignupFormValidating)

	request, err := ValidateSignUp(input)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			form.fieldErrors = validationErr.Fields
		}
		form.transitionLocked(SignupFormIdle)
		fields := form.fieldErrors
		form.mu.Unlock()
		return SignupSubmission{Outcome: SignupFormIdle, Fields: fields}, err
	}

	form.fieldErrors = nil
	form.transitionLocked(SignupFormSubmitting)
	form.mu.Unlock()

	userID, err := form.callMutation(ctx, request)

	form.mu.Lock()
	defer form.mu.Unlock()

	if err != nil {
		form.transitionLocked(SignupFormFailed)
		notice := failureNotice(err)
		form.transitionLocked(SignupFormIdle)
		return SignupSubmission{Outcome: SignupFormFailed, Notice: &notice}, err
	}

	form.transitionLocked(SignupFormSucceeded)
	form.closed = true
	form.userID = userID
	form.values = SignUpInput{}
	return SignupSubmission{
		Outcome: SignupFormSucceeded,
		UserID:  userID,
		Plan:    request.Plan,
		Notice: &SignupNotice{
			Kind:       SignupNoticeSuccess,
			Message:    SignupSuccessMessage,
			MessageKey: "signup.toast.success",
		},
	}, nil
}

func (form *SignupForm) callMutation(ctx context.Context, request models.SignUpRequest) (userID string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			userID = ""
			err = fmt.Errorf("%w: %v", ErrSubmissionPanicked, recovered)
		}
	}()
	return form.mutation.CreateUser(ctx, request)
}

func (form *SignupForm) transitionLocked(next SignupFormState) {
	previous := form.state
	form.state = next
	if form.observer != nil {
		form.observer(previous, next)
	}
}

func failureNotice(err error) SignupNotice {
	if errors.Is(err, ErrEmailAlreadyRegistered) {
		return SignupNotice{Kind: SignupNoticeError, Message: SignupDuplicateMessage, MessageKey: "signup.toast.duplicate"}
	}
	return SignupNotice{Kind: SignupNoticeError, Message: SignupFailureMessage, MessageKey: "signup.toast.failure"}
}
