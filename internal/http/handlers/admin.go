package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/clubhub/internal/actorctx"
	"github.com/geocoder89/clubhub/internal/config"
	"github.com/geocoder89/clubhub/internal/domain/form"
	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type RegistrationReviewer interface {
	ListByForm(ctx context.Context, formID string, limit int, after *utils.RegistrationCursor) ([]registration.Registration, *string, error)
	AdvanceRound(ctx context.Context, formID, id string, round int) (registration.Registration, error)
}

type AdminHandler struct {
	store RegistrationReviewer
	forms FormReader
	log   *slog.Logger
}

func NewAdminHandler(store RegistrationReviewer, forms FormReader, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{store: store, forms: forms, log: log}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type RegistrationPage struct {
	Items      []registration.Registration `json:"items"`
	NextCursor *string                     `json:"nextCursor,omitempty"`
}

func (h *AdminHandler) knownForm(ctx *gin.Context) (string, bool) {
	formID := ctx.Param("formId")
	if _, err := h.forms.Get(formID); err != nil {
		RespondNotFound(ctx, "Registration form not found")
		return "", false
	}
	return formID, true
}

func (h *AdminHandler) ListRegistrations(ctx *gin.Context) {
	formID, ok := h.knownForm(ctx)
	if !ok {
		return
	}

	limit := defaultPageSize
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			RespondBadRequest(ctx, "limit must be between 1 and 100", nil)
			return
		}
		limit = n
	}

	var after *utils.RegistrationCursor
	if raw := ctx.Query("cursor"); raw != "" {
		c, err := utils.DecodeRegistrationCursor(raw)
		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor", nil)
			return
		}
		after = &c
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, next, err := h.store.ListByForm(cctx, formID, limit, after)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list registrations failed", "form_id", formID, "err", err)
		RespondInternal(ctx, "Could not list registrations")
		return
	}
	if items == nil {
		items = []registration.Registration{}
	}

	ctx.JSON(http.StatusOK, RegistrationPage{Items: items, NextCursor: next})
}

type AdvanceRoundRequest struct {
	Round int `json:"round" binding:"required,min=1"`
}

func (h *AdminHandler) AdvanceRound(ctx *gin.Context) {
	formID, ok := h.knownForm(ctx)
	if !ok {
		return
	}
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "registration id must be a valid UUID", nil)
		return
	}

	var req AdvanceRoundRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	reg, err := h.store.AdvanceRound(cctx, formID, id, req.Round)
	if err != nil {
		switch {
		case errors.Is(err, registration.ErrNotFound):
			RespondNotFound(ctx, "Registration not found")
		case errors.Is(err, registration.ErrInvalidRound):
			RespondError(ctx, http.StatusUnprocessableEntity, "invalid_round", err.Error(), nil)
		default:
			h.log.ErrorContext(ctx.Request.Context(), "advance round failed", "form_id", formID, "registration_id", id, "err", err)
			RespondInternal(ctx, "Could not update registration")
		}
		return
	}

	h.log.InfoContext(ctx.Request.Context(), "registration round advanced",
		"form_id", formID,
		"registration_id", id,
		"round", reg.Round,
		"actor", actorctx.UserIDFrom(ctx.Request.Context()),
	)
	ctx.JSON(http.StatusOK, reg)
}

var _ FormReader = (*form.Registry)(nil)
