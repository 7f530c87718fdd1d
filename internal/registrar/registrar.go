// Package registrar is the authoritative server-side registration step.  It
// re-validates every payload, makes exactly one insert attempt and turns the
// outcome into a SubmissionResult.
package registrar

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/form"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/observability"
	"github.com/geocoder89/clubhub/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store persists registrations.  Implementations report uniqueness conflicts
// as *registration.UniqueViolation and must not write anything on failure.
type Store interface {
	InsertIndividual(ctx context.Context, r registration.Registration) (registration.Registration, error)
	InsertTeam(ctx context.Context, t registration.TeamRegistration) (registration.TeamRegistration, error)
}

// Forms resolves a form id to its open definition.
type Forms interface {
	Lookup(id string) (form.Definition, error)
}

type Service struct {
	store  Store
	forms  Forms
	log    *slog.Logger
	prom   *observability.Prom
	tracer trace.Tracer
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithProm(p *observability.Prom) Option {
	return func(s *Service) { s.prom = p }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(store Store, forms Forms, opts ...Option) *Service {
	s := &Service{
		store:  store,
		forms:  forms,
		log:    slog.Default(),
		tracer: observability.Tracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates p against formID and stores it.  It never returns an
// error: every outcome, including store failures, is a SubmissionResult.
func (s *Service) Register(ctx context.Context, formID string, p registration.Payload) (res registration.SubmissionResult) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "registrar.Register", trace.WithAttributes(
		attribute.String("form.id", formID),
	))
	defer func() {
		span.SetAttributes(attribute.String("registration.outcome", string(res.Outcome)))
		if res.Outcome == registration.OutcomeStoreFailure {
			span.SetStatus(codes.Error, res.Message)
		}
		span.End()

		if s.prom != nil {
			s.prom.ObserveRegistration(formID, string(res.Outcome), time.Since(start))
		}
	}()

	def, err := s.forms.Lookup(formID)
	switch {
	case errors.Is(err, form.ErrFormNotFound):
		return registration.Failure(registration.OutcomeUnknownForm, registration.MsgFormNotFound, nil)
	case errors.Is(err, form.ErrFormClosed):
		return registration.Failure(registration.OutcomeClosed, registration.MsgFormClosed, nil)
	case err != nil:
		s.log.ErrorContext(ctx, "form lookup failed", "form_id", formID, "err", err)
		return registration.Failure(registration.OutcomeStoreFailure, registration.MsgUnexpected, nil)
	}

	if def.IsTeam() {
		return s.registerTeam(ctx, def, p.AsTeam())
	}
	return s.registerIndividual(ctx, def, p.Individual)
}

func (s *Service) registerIndividual(ctx context.Context, def form.Definition, in registration.Individual) registration.SubmissionResult {
	if !def.HasField("githubProfile") {
		in.GithubProfile = ""
	}
	if !def.HasField("linkedinProfile") {
		in.LinkedinProfile = ""
	}

	missing, invalid, err := validation.Check(in)
	if err != nil {
		s.log.ErrorContext(ctx, "validator failed", "form_id", def.ID, "err", err)
		return registration.Failure(registration.OutcomeStoreFailure, registration.MsgUnexpected, nil)
	}

	first, second, domMissing, domInvalid := checkDomains(def, in.FirstDomain, in.SecondDomain)
	missing = append(missing, domMissing...)
	invalid = append(invalid, domInvalid...)
	in.FirstDomain, in.SecondDomain = first, second

	if res, failed := rejection(missing, invalid); failed {
		return res
	}

	rec := registration.NewFromIndividual(def.ID, def.Round, in)

	created, err := s.store.InsertIndividual(ctx, rec)
	if err != nil {
		return s.classify(ctx, def.ID, err, true)
	}

	s.log.InfoContext(ctx, "registration created", "form_id", def.ID, "registration_id", created.ID)
	return registration.Created(created)
}

func (s *Service) registerTeam(ctx context.Context, def form.Definition, t registration.Team) registration.SubmissionResult {
	t.TeamMembers = registration.CompactMembers(t.TeamMembers)

	missing, invalid, err := validation.Check(t)
	if err != nil {
		s.log.ErrorContext(ctx, "validator failed", "form_id", def.ID, "err", err)
		return registration.Failure(registration.OutcomeStoreFailure, registration.MsgUnexpected, nil)
	}

	if len(missing) > 0 {
		return registration.Failure(registration.OutcomeMissing, registration.MsgMissingFields, missing)
	}

	if msg := def.TeamSizeMessage(len(t.TeamMembers)); msg != "" {
		return registration.Failure(registration.OutcomeInvalid, msg, []registration.FieldError{
			{Field: "teamMembers", Message: msg},
		})
	}

	if res, failed := rejection(nil, invalid); failed {
		return res
	}

	team := registration.NewFromTeam(def.ID, def.Round, t)

	created, err := s.store.InsertTeam(ctx, team)
	if err != nil {
		return s.classify(ctx, def.ID, err, false)
	}

	s.log.InfoContext(ctx, "team registration created", "form_id", def.ID, "team_id", created.ID, "members", len(created.Members))
	return registration.Created(created)
}

func rejection(missing, invalid []registration.FieldError) (registration.SubmissionResult, bool) {
	if len(missing) > 0 {
		return registration.Failure(registration.OutcomeMissing, registration.MsgMissingFields, missing), true
	}
	if len(invalid) > 0 {
		return registration.Failure(registration.OutcomeInvalid, invalid[0].Message, invalid), true
	}
	return registration.SubmissionResult{}, false
}

// checkDomains canonicalises the domain choices for forms that offer them.
// Forms without domains drop whatever the client sent.
func checkDomains(def form.Definition, first, second string) (string, string, []registration.FieldError, []registration.FieldError) {
	if len(def.Domains) == 0 {
		return "", "", nil, nil
	}

	var missing, invalid []registration.FieldError
	choices := "Please choose one of: " + strings.Join(def.Domains, ", ")

	if strings.TrimSpace(first) == "" {
		if def.RequireDomain {
			missing = append(missing, registration.FieldError{Field: "firstDomain", Message: "is required"})
		}
	} else if canon, ok := def.CanonicalDomain(first); ok {
		first = canon
	} else {
		invalid = append(invalid, registration.FieldError{Field: "firstDomain", Message: choices})
	}

	if strings.TrimSpace(second) != "" {
		canon, ok := def.CanonicalDomain(second)
		switch {
		case !ok:
			invalid = append(invalid, registration.FieldError{Field: "secondDomain", Message: choices})
		case canon == first:
			invalid = append(invalid, registration.FieldError{Field: "secondDomain", Message: "Second domain must differ from the first"})
		default:
			second = canon
		}
	} else {
		second = ""
	}

	return first, second, missing, invalid
}

// classify maps an insert error to a result.  For individual forms a
// duplicate on a known column is also reported against that field; team
// conflicts cannot name the member.
func (s *Service) classify(ctx context.Context, formID string, err error, individual bool) registration.SubmissionResult {
	var uv *registration.UniqueViolation
	if errors.As(err, &uv) {
		kind := registration.ClassifyDuplicate(uv)
		msg := registration.DuplicateMessage(kind)
		s.log.InfoContext(ctx, "duplicate registration", "form_id", formID, "kind", string(kind), "constraint", uv.Constraint)

		var errs []registration.FieldError
		switch {
		case kind == registration.DuplicateTeamName:
			errs = []registration.FieldError{{Field: "teamName", Message: msg}}
		case individual && kind == registration.DuplicateRegistrationNumber:
			errs = []registration.FieldError{{Field: "registrationNumber", Message: msg}}
		case individual && kind == registration.DuplicateEmail:
			errs = []registration.FieldError{{Field: "srmMailId", Message: msg}}
		}
		return registration.Failure(registration.OutcomeDuplicate, msg, errs)
	}

	s.log.ErrorContext(ctx, "registration insert failed", "form_id", formID, "err", err)
	return registration.Failure(registration.OutcomeStoreFailure, registration.MsgStoreFailure, nil)
}
