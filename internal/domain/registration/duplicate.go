package registration

import (
	"errors"
	"fmt"
	"strings"
)

// Column names used by the store's uniqueness constraints.
const (
	ColumnRegistrationNumber = "registration_number"
	ColumnSrmMail            = "srm_mail"
	ColumnTeamName           = "team_name"
)

// UniqueViolation is returned by stores when an insert hits a uniqueness
// constraint.  Columns lists the violated columns when the store can tell;
// Message keeps the raw driver text for the legacy substring match.
type UniqueViolation struct {
	Constraint string
	Columns    []string
	Message    string
}

func (e *UniqueViolation) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("unique violation on %s (%s)", e.Constraint, strings.Join(e.Columns, ","))
	}
	return "unique violation: " + e.Message
}

// IsUniqueViolation reports whether err carries a *UniqueViolation.
func IsUniqueViolation(err error) bool {
	var uv *UniqueViolation
	return errors.As(err, &uv)
}

// DuplicateKind names the identifying field that conflicted.
type DuplicateKind string

const (
	DuplicateRegistrationNumber DuplicateKind = "registration_number"
	DuplicateEmail              DuplicateKind = "email"
	DuplicateTeamName           DuplicateKind = "team_name"
	DuplicateUnknown            DuplicateKind = "unknown"
)

// ClassifyDuplicate decides which identifying field a unique violation is
// about.  Structured columns win; the message substring check only runs when
// the store could not name the columns.
func ClassifyDuplicate(uv *UniqueViolation) DuplicateKind {
	for _, c := range uv.Columns {
		switch strings.ToLower(c) {
		case ColumnRegistrationNumber:
			return DuplicateRegistrationNumber
		case ColumnSrmMail, "srmist_email", "email":
			return DuplicateEmail
		case ColumnTeamName:
			return DuplicateTeamName
		}
	}

	msg := strings.ToLower(uv.Message + " " + uv.Constraint)
	switch {
	case strings.Contains(msg, ColumnRegistrationNumber):
		return DuplicateRegistrationNumber
	case strings.Contains(msg, ColumnSrmMail), strings.Contains(msg, "srmist_email"), strings.Contains(msg, "email"):
		return DuplicateEmail
	case strings.Contains(msg, ColumnTeamName):
		return DuplicateTeamName
	default:
		return DuplicateUnknown
	}
}

// DuplicateMessage is the user-facing text for a duplicate kind.
func DuplicateMessage(kind DuplicateKind) string {
	switch kind {
	case DuplicateRegistrationNumber:
		return MsgDuplicateRegNo
	case DuplicateEmail:
		return MsgDuplicateEmail
	case DuplicateTeamName:
		return MsgDuplicateTeam
	default:
		return MsgDuplicateAny
	}
}
