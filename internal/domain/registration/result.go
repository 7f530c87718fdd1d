package registration

// Outcome is the server-side classification of a submission.  It is not part
// of the wire contract; the HTTP layer uses it to pick a status code.
type Outcome string

const (
	OutcomeCreated      Outcome = "created"
	OutcomeMissing      Outcome = "missing_fields"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeStoreFailure Outcome = "store_failure"
	OutcomeUnknownForm  Outcome = "unknown_form"
	OutcomeClosed       Outcome = "closed"
)

// FieldError is one field-scoped validation failure.  Field uses the same
// path convention as the form controller: "name", "teamMembers.2.phoneNumber".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SubmissionResult is the only thing a registration call returns.
type SubmissionResult struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Data    any          `json:"data,omitempty"`

	Outcome Outcome `json:"-"`
}

const (
	MsgSuccess           = "Registration successful!"
	MsgMissingFields     = "Missing required fields"
	MsgDuplicateRegNo    = "This registration number is already registered"
	MsgDuplicateEmail    = "This email is already registered"
	MsgDuplicateTeam     = "This team name is already registered"
	MsgDuplicateAny      = "Registration number or email already exists"
	MsgStoreFailure      = "Failed to register. Please try again."
	MsgUnexpected        = "An unexpected error occurred. Please try again."
	MsgFormNotFound      = "Registration form not found"
	MsgFormClosed        = "Registrations for this event are closed"
	MsgTeamTooFew        = "Team must have at least %d members."
	MsgTeamTooMany       = "Team can have maximum %d members."
	MsgInvalidSubmission = "Invalid registration details"
)

func Failure(outcome Outcome, message string, errs []FieldError) SubmissionResult {
	return SubmissionResult{
		Success: false,
		Message: message,
		Errors:  errs,
		Outcome: outcome,
	}
}

func Created(data any) SubmissionResult {
	return SubmissionResult{
		Success: true,
		Message: MsgSuccess,
		Data:    data,
		Outcome: OutcomeCreated,
	}
}
