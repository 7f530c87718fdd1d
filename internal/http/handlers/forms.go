package handlers

import (
	"errors"

	"github.com/geocoder89/clubhub/internal/domain/form"
	"github.com/gin-gonic/gin"
)

type FormReader interface {
	Get(id string) (form.Definition, error)
	List() []form.Definition
}

type FormsHandler struct {
	forms FormReader
}

func NewFormsHandler(forms FormReader) *FormsHandler {
	return &FormsHandler{forms: forms}
}

func (h *FormsHandler) ListForms(ctx *gin.Context) {
	respondCacheable(ctx, gin.H{"items": h.forms.List()}, 0)
}

func (h *FormsHandler) GetForm(ctx *gin.Context) {
	def, err := h.forms.Get(ctx.Param("formId"))
	if err != nil {
		if errors.Is(err, form.ErrFormNotFound) {
			RespondNotFound(ctx, "Registration form not found")
			return
		}
		RespondInternal(ctx, "Could not load form")
		return
	}

	respondCacheable(ctx, def, 0)
}
