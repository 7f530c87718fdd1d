package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/clubhub/internal/config"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/gin-gonic/gin"
)

type Registrar interface {
	Register(ctx context.Context, formID string, p registration.Payload) registration.SubmissionResult
}

type RegistrationHandler struct {
	registrar Registrar
	timeout   time.Duration
}

func NewRegistrationHandler(registrar Registrar) *RegistrationHandler {
	return &RegistrationHandler{registrar: registrar, timeout: 5 * time.Second}
}

// Register answers every request with a SubmissionResult body, including
// malformed ones, so the form controller only has one shape to decode.
func (h *RegistrationHandler) Register(ctx *gin.Context) {
	formID := ctx.Param("formId")

	var p registration.Payload
	if err := json.NewDecoder(ctx.Request.Body).Decode(&p); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondSubmission(ctx, http.StatusRequestEntityTooLarge,
				registration.Failure(registration.OutcomeInvalid, registration.MsgInvalidSubmission, nil))
			return
		}
		RespondSubmission(ctx, http.StatusBadRequest,
			registration.Failure(registration.OutcomeInvalid, registration.MsgInvalidSubmission, nil))
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	res := h.registrar.Register(cctx, formID, p)
	RespondSubmission(ctx, SubmissionStatus(res.Outcome), res)
}

// SubmissionStatus picks the HTTP status for a registration outcome.
func SubmissionStatus(o registration.Outcome) int {
	switch o {
	case registration.OutcomeCreated:
		return http.StatusCreated
	case registration.OutcomeMissing, registration.OutcomeInvalid:
		return http.StatusBadRequest
	case registration.OutcomeDuplicate:
		return http.StatusConflict
	case registration.OutcomeUnknownForm:
		return http.StatusNotFound
	case registration.OutcomeClosed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func RespondSubmission(ctx *gin.Context, status int, res registration.SubmissionResult) {
	ctx.JSON(status, res)
}

// SubmissionRateLimited is the 429 body for the registration route.
func SubmissionRateLimited(ctx *gin.Context, _ int) {
	RespondSubmission(ctx, http.StatusTooManyRequests, registration.SubmissionResult{
		Success: false,
		Message: "Too many attempts. Please try again shortly.",
	})
}
