// Package regform is the client side of a registration: it holds form state,
// gates submission with the same rules the server enforces, drives one
// submission at a time and turns the result into feedback and per-field
// error state.
package regform

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/form"
	"github.com/geocoder89/clubhub/internal/domain/registration"
)

var (
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	ErrUnknownField   = errors.New("unknown form field")
)

const DefaultTimeout = 10 * time.Second

// Submitter delivers one payload to the registration handler.  A non-nil
// error means the call itself did not complete.
type Submitter interface {
	Submit(ctx context.Context, formID string, p registration.Payload) (registration.SubmissionResult, error)
}

type SubmitterFunc func(ctx context.Context, formID string, p registration.Payload) (registration.SubmissionResult, error)

func (f SubmitterFunc) Submit(ctx context.Context, formID string, p registration.Payload) (registration.SubmissionResult, error) {
	return f(ctx, formID, p)
}

type Phase int

const (
	Idle Phase = iota
	Submitting
)

func (p Phase) String() string {
	if p == Submitting {
		return "submitting"
	}
	return "idle"
}

type Lifecycle int

const (
	Uninitialized Lifecycle = iota
	Ready
)

type Tone int

const (
	None Tone = iota
	Positive
	Negative
)

// Feedback is the acknowledgment shown after a submit attempt.
type Feedback struct {
	Tone    Tone
	Message string
}

// Presenter receives feedback as soon as a submit attempt settles.
type Presenter interface {
	Present(Feedback)
}

type PresenterFunc func(Feedback)

func (f PresenterFunc) Present(fb Feedback) { f(fb) }

type Option func(*Controller)

func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithPresenter(p Presenter) Option {
	return func(c *Controller) { c.presenter = p }
}

// Controller owns the state of one form instance.  It is safe for
// concurrent use; Submit does not hold the lock while the handler runs.
type Controller struct {
	def       form.Definition
	submitter Submitter
	timeout   time.Duration
	presenter Presenter

	mu        sync.Mutex
	values    registration.Individual
	teamName  string
	members   []registration.Member
	errs      map[string]string
	phase     Phase
	lifecycle Lifecycle
	feedback  Feedback
}

func New(def form.Definition, s Submitter, opts ...Option) *Controller {
	c := &Controller{
		def:       def,
		submitter: s,
		timeout:   DefaultTimeout,
		errs:      map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resetLocked()
	return c
}

func (c *Controller) Definition() form.Definition { return c.def }

// Mount marks the form as drawn.  Renderers hold animated content until
// Ready reports true.
func (c *Controller) Mount() {
	c.mu.Lock()
	c.lifecycle = Ready
	c.mu.Unlock()
}

func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lifecycle == Ready
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) Feedback() Feedback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedback
}

// Errors returns a copy of the per-field error state.
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.errs)
}

func (c *Controller) FieldError(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs[c.canonical(path)]
}

// UpdateField writes value at path and clears any error recorded for it.
// Team member paths are "teamMembers.<i>.<field>"; the short "<i>.<field>"
// form is accepted too.
func (c *Controller) UpdateField(path, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path = c.canonical(path)
	ptr, err := c.fieldLocked(path)
	if err != nil {
		return err
	}
	*ptr = value
	delete(c.errs, path)
	return nil
}

// Value reads the current value at path.
func (c *Controller) Value(path string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ptr, err := c.fieldLocked(c.canonical(path))
	if err != nil {
		return "", err
	}
	return *ptr, nil
}

func (c *Controller) canonical(path string) string {
	if c.def.IsTeam() {
		if head, _, ok := strings.Cut(path, "."); ok {
			if _, err := strconv.Atoi(head); err == nil {
				return "teamMembers." + path
			}
		}
	}
	return path
}

func (c *Controller) fieldLocked(path string) (*string, error) {
	if c.def.IsTeam() {
		if path == "teamName" {
			return &c.teamName, nil
		}
		rest, ok := strings.CutPrefix(path, "teamMembers.")
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		idx, field, ok := strings.Cut(rest, ".")
		i, err := strconv.Atoi(idx)
		if !ok || err != nil || i < 0 || i >= len(c.members) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
		}
		if p := memberField(&c.members[i], field); p != nil {
			return p, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
	}

	if p := individualField(&c.values, path); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownField, path)
}

func memberField(m *registration.Member, name string) *string {
	switch name {
	case "name":
		return &m.Name
	case "registrationNumber":
		return &m.RegistrationNumber
	case "srmMailId":
		return &m.SrmMailID
	case "phoneNumber":
		return &m.PhoneNumber
	}
	return nil
}

func individualField(in *registration.Individual, name string) *string {
	switch name {
	case "name":
		return &in.Name
	case "registrationNumber":
		return &in.RegistrationNumber
	case "srmMailId":
		return &in.SrmMailID
	case "phoneNumber":
		return &in.PhoneNumber
	case "githubProfile":
		return &in.GithubProfile
	case "linkedinProfile":
		return &in.LinkedinProfile
	case "firstDomain":
		return &in.FirstDomain
	case "secondDomain":
		return &in.SecondDomain
	}
	return nil
}

func (c *Controller) resetLocked() {
	c.values = registration.Individual{}
	c.teamName = ""
	c.members = nil
	if c.def.IsTeam() {
		c.members = make([]registration.Member, c.def.Slots())
	}
	clear(c.errs)
}
