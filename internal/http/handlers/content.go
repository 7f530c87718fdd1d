package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/blog"
	"github.com/geocoder89/clubhub/internal/domain/event"
	"github.com/gin-gonic/gin"
)

// Catalog never fails; an unavailable CMS yields empty lists.
type Catalog interface {
	Events(ctx context.Context) []event.Event
	Blogs(ctx context.Context) []blog.Post
}

// Lists come from a cache refreshed on its own schedule; browsers may hold
// them briefly.
const contentMaxAge = 30 * time.Second

type ContentHandler struct {
	catalog Catalog
}

func NewContentHandler(catalog Catalog) *ContentHandler {
	return &ContentHandler{catalog: catalog}
}

func (h *ContentHandler) ListEvents(ctx *gin.Context) {
	items := h.catalog.Events(ctx.Request.Context())
	respondCacheable(ctx, gin.H{"items": items}, contentMaxAge)
}

func (h *ContentHandler) ListBlogs(ctx *gin.Context) {
	items := h.catalog.Blogs(ctx.Request.Context())
	respondCacheable(ctx, gin.H{"items": items}, contentMaxAge)
}
