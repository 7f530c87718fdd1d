// Package cms reads published site content (events and blog posts) from a
// Sanity-style HTTP query API.  Readers never fail: any upstream problem
// degrades to an empty list.
package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/blog"
	"github.com/geocoder89/clubhub/internal/domain/event"
)

// Source fetches every published item of one kind.
type Source interface {
	Events(ctx context.Context) ([]event.Event, error)
	Blogs(ctx context.Context) ([]blog.Post, error)
}

// EmptySource is used when no CMS project is configured.
type EmptySource struct{}

func (EmptySource) Events(context.Context) ([]event.Event, error) { return []event.Event{}, nil }
func (EmptySource) Blogs(context.Context) ([]blog.Post, error)    { return []blog.Post{}, nil }

type HTTPConfig struct {
	// ProjectURL is the API host, e.g. https://abc123.api.sanity.io
	ProjectURL string
	Dataset    string
	APIVersion string
	Token      string
	Timeout    time.Duration
}

// HTTPSource runs GROQ queries against the CMS query endpoint.
type HTTPSource struct {
	cfg    HTTPConfig
	client *http.Client
}

var ErrUpstream = errors.New("cms upstream error")

func NewHTTPSource(cfg HTTPConfig, client *http.Client) *HTTPSource {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-01-01"
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.ProjectURL = strings.TrimRight(cfg.ProjectURL, "/")
	cfg.APIVersion = strings.TrimPrefix(cfg.APIVersion, "v")

	return &HTTPSource{cfg: cfg, client: client}
}

func (s *HTTPSource) Events(ctx context.Context) ([]event.Event, error) {
	return query[event.Event](ctx, s, event.Query)
}

func (s *HTTPSource) Blogs(ctx context.Context) ([]blog.Post, error) {
	return query[blog.Post](ctx, s, blog.Query)
}

func (s *HTTPSource) endpoint(groq string) string {
	return fmt.Sprintf("%s/v%s/data/query/%s?query=%s",
		s.cfg.ProjectURL, s.cfg.APIVersion, url.PathEscape(s.cfg.Dataset), url.QueryEscape(groq))
}

type queryResponse[T any] struct {
	Result []T `json:"result"`
}

func query[T any](ctx context.Context, s *HTTPSource, groq string) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(groq), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var out queryResponse[T]
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if out.Result == nil {
		out.Result = []T{}
	}
	return out.Result, nil
}
