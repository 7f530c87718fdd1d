package regform

import (
	"context"
	"strconv"
	"strings"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/validation"
)

// draft is a payload built from a snapshot of form state.  slots maps each
// compacted member index back to the row the user filled in.
type draft struct {
	payload registration.Payload
	slots   []int
}

// Submit runs one submission attempt.  It returns ErrSubmitInFlight when
// another attempt from this controller has not settled; every other outcome
// is reported as Feedback.
func (c *Controller) Submit(ctx context.Context) (Feedback, error) {
	c.mu.Lock()
	if c.phase == Submitting {
		c.mu.Unlock()
		return Feedback{}, ErrSubmitInFlight
	}
	c.phase = Submitting
	d := c.draftLocked()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.phase = Idle
		c.mu.Unlock()
	}()

	if res, rejected := c.precheck(d); rejected {
		return c.settle(d, res), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.submitter.Submit(ctx, c.def.ID, d.payload)
	if err != nil {
		return c.fail(), nil
	}

	return c.settle(d, res), nil
}

func (c *Controller) draftLocked() draft {
	if !c.def.IsTeam() {
		return draft{payload: registration.Payload{Individual: c.values}}
	}

	var d draft
	d.payload.TeamName = c.teamName
	for i, m := range c.members {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		d.payload.TeamMembers = append(d.payload.TeamMembers, m)
		d.slots = append(d.slots, i)
	}
	return d
}

// precheck applies the team size bound and the field format rules before
// any request is made.  The server repeats all of it.
func (c *Controller) precheck(d draft) (registration.SubmissionResult, bool) {
	var target any = d.payload.Individual
	if c.def.IsTeam() {
		if msg := c.def.TeamSizeMessage(len(d.payload.TeamMembers)); msg != "" {
			return registration.Failure(registration.OutcomeInvalid, msg, nil), true
		}
		target = d.payload.AsTeam()
	}

	missing, invalid, err := validation.Check(target)
	if err != nil {
		return registration.SubmissionResult{}, false
	}
	if len(missing) > 0 {
		return registration.Failure(registration.OutcomeMissing, registration.MsgMissingFields, missing), true
	}
	if invalid = c.askedFor(invalid); len(invalid) > 0 {
		return registration.Failure(registration.OutcomeInvalid, invalid[0].Message, invalid), true
	}
	return registration.SubmissionResult{}, false
}

// askedFor drops errors on link fields the form does not render.
func (c *Controller) askedFor(errs []registration.FieldError) []registration.FieldError {
	out := errs[:0:0]
	for _, fe := range errs {
		if (fe.Field == "githubProfile" || fe.Field == "linkedinProfile") && !c.def.HasField(fe.Field) {
			continue
		}
		out = append(out, fe)
	}
	return out
}

// settle records the outcome of an attempt that reached a verdict.
func (c *Controller) settle(d draft, res registration.SubmissionResult) Feedback {
	c.mu.Lock()
	var fb Feedback
	if res.Success {
		c.resetLocked()
		fb = Feedback{Tone: Positive, Message: res.Message}
	} else {
		clear(c.errs)
		for _, fe := range res.Errors {
			c.errs[d.rowPath(fe.Field)] = fe.Message
		}
		fb = Feedback{Tone: Negative, Message: res.Message}
	}
	c.feedback = fb
	c.mu.Unlock()

	c.present(fb)
	return fb
}

// fail reports a call that did not complete.  Field errors stay as they are.
func (c *Controller) fail() Feedback {
	fb := Feedback{Tone: Negative, Message: registration.MsgUnexpected}

	c.mu.Lock()
	c.feedback = fb
	c.mu.Unlock()

	c.present(fb)
	return fb
}

func (c *Controller) present(fb Feedback) {
	if c.presenter != nil {
		c.presenter.Present(fb)
	}
}

// rowPath rewrites "teamMembers.<j>.<field>" from the compacted payload
// index to the form row it came from.
func (d draft) rowPath(path string) string {
	rest, ok := strings.CutPrefix(path, "teamMembers.")
	if !ok {
		return path
	}
	idx, field, ok := strings.Cut(rest, ".")
	if !ok {
		return path
	}
	j, err := strconv.Atoi(idx)
	if err != nil || j < 0 || j >= len(d.slots) {
		return path
	}
	return "teamMembers." + strconv.Itoa(d.slots[j]) + "." + field
}
