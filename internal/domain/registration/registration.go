package registration

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Member is one entry of a team registration.  It carries the same
// identifying fields as an individual registration.
type Member struct {
	Name               string `json:"name" validate:"notblank,alphaspace"`
	RegistrationNumber string `json:"registrationNumber" validate:"notblank,regno"`
	SrmMailID          string `json:"srmMailId" validate:"notblank,srmmail"`
	PhoneNumber        string `json:"phoneNumber" validate:"notblank,phone10"`
}

// Individual is the single-person payload shape.  The link and domain fields
// are only meaningful for forms that ask for them.
type Individual struct {
	Name               string `json:"name" validate:"notblank,alphaspace"`
	RegistrationNumber string `json:"registrationNumber" validate:"notblank,regno"`
	SrmMailID          string `json:"srmMailId" validate:"notblank,srmmail"`
	PhoneNumber        string `json:"phoneNumber" validate:"notblank,phone10"`
	GithubProfile      string `json:"githubProfile,omitempty" validate:"omitempty,url"`
	LinkedinProfile    string `json:"linkedinProfile,omitempty" validate:"omitempty,url"`
	FirstDomain        string `json:"firstDomain,omitempty"`
	SecondDomain       string `json:"secondDomain,omitempty"`
}

// Team is the team payload shape.
type Team struct {
	TeamName    string   `json:"teamName" validate:"notblank,alnumspace"`
	TeamMembers []Member `json:"teamMembers" validate:"dive"`
}

// Payload is what a client sends for one registration attempt.  Individual
// forms read the embedded fields, team forms read TeamName and TeamMembers.
type Payload struct {
	Individual
	TeamName    string   `json:"teamName,omitempty"`
	TeamMembers []Member `json:"teamMembers,omitempty"`
}

// AsTeam returns the team view of the payload.
func (p Payload) AsTeam() Team {
	return Team{TeamName: p.TeamName, TeamMembers: p.TeamMembers}
}

// CompactMembers drops members whose name is blank, keeping order.
func CompactMembers(members []Member) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if strings.TrimSpace(m.Name) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Registration is one persisted registration row.
type Registration struct {
	ID                 string    `json:"id"`
	FormID             string    `json:"formId"`
	TeamID             *string   `json:"teamId,omitempty"`
	Name               string    `json:"name"`
	RegistrationNumber string    `json:"registrationNumber"`
	PhoneNumber        string    `json:"phoneNumber"`
	SrmMailID          string    `json:"srmMailId"`
	GithubLink         string    `json:"githubLink,omitempty"`
	LinkedinLink       string    `json:"linkedinLink,omitempty"`
	Domain1            *string   `json:"domain1,omitempty"`
	Domain2            *string   `json:"domain2,omitempty"`
	Round              int       `json:"round"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// TeamRegistration is a persisted team with its member rows.
type TeamRegistration struct {
	ID        string         `json:"id"`
	FormID    string         `json:"formId"`
	TeamName  string         `json:"teamName"`
	Round     int            `json:"round"`
	Members   []Registration `json:"members"`
	CreatedAt time.Time      `json:"createdAt"`
}

var (
	ErrNotFound     = errors.New("registration not found")
	ErrInvalidRound = errors.New("round must be at least 1 and not below the current round")
)

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v := s
	return &v
}

// NewFromIndividual builds the row for an individual payload.
func NewFromIndividual(formID string, round int, in Individual) Registration {
	now := time.Now().UTC()

	return Registration{
		ID:                 uuid.NewString(),
		FormID:             formID,
		Name:               in.Name,
		RegistrationNumber: in.RegistrationNumber,
		PhoneNumber:        in.PhoneNumber,
		SrmMailID:          in.SrmMailID,
		GithubLink:         in.GithubProfile,
		LinkedinLink:       in.LinkedinProfile,
		Domain1:            optional(in.FirstDomain),
		Domain2:            optional(in.SecondDomain),
		Round:              round,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// NewFromTeam builds the team and its member rows.  Members are expected to
// be compacted already.
func NewFromTeam(formID string, round int, t Team) TeamRegistration {
	now := time.Now().UTC()
	teamID := uuid.NewString()

	members := make([]Registration, 0, len(t.TeamMembers))
	for _, m := range t.TeamMembers {
		id := teamID
		members = append(members, Registration{
			ID:                 uuid.NewString(),
			FormID:             formID,
			TeamID:             &id,
			Name:               m.Name,
			RegistrationNumber: m.RegistrationNumber,
			PhoneNumber:        m.PhoneNumber,
			SrmMailID:          m.SrmMailID,
			Round:              round,
			CreatedAt:          now,
			UpdatedAt:          now,
		})
	}

	return TeamRegistration{
		ID:        teamID,
		FormID:    formID,
		TeamName:  t.TeamName,
		Round:     round,
		Members:   members,
		CreatedAt: now,
	}
}
