package cms

import (
	"context"
	"log/slog"

	"github.com/geocoder89/clubhub/internal/domain/blog"
	"github.com/geocoder89/clubhub/internal/domain/event"
)

// Catalog is the read side used by the HTTP layer.  It never returns an
// error; an unavailable CMS shows up as an empty list.
type Catalog struct {
	src Source
	log *slog.Logger
}

func NewCatalog(src Source, log *slog.Logger) *Catalog {
	if src == nil {
		src = EmptySource{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{src: src, log: log}
}

func (c *Catalog) Events(ctx context.Context) []event.Event {
	items, err := c.src.Events(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "cms events unavailable, serving empty list", "err", err)
		return []event.Event{}
	}
	if items == nil {
		return []event.Event{}
	}
	return items
}

func (c *Catalog) Blogs(ctx context.Context) []blog.Post {
	items, err := c.src.Blogs(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "cms blogs unavailable, serving empty list", "err", err)
		return []blog.Post{}
	}
	if items == nil {
		return []blog.Post{}
	}
	return items
}
