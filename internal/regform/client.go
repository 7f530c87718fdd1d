package regform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/form"
	"github.com/geocoder89/clubhub/internal/domain/registration"
)

var ErrUnexpectedResponse = errors.New("unexpected response from registration server")

// Client talks to the clubhub API.  It satisfies Submitter.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Submit posts the payload.  Any response that decodes as a result with a
// message is returned as the verdict, whatever its status code.
func (c *Client) Submit(ctx context.Context, formID string, p registration.Payload) (registration.SubmissionResult, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return registration.SubmissionResult{}, err
	}

	endpoint := c.baseURL + "/forms/" + url.PathEscape(formID) + "/register"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return registration.SubmissionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return registration.SubmissionResult{}, err
	}
	defer resp.Body.Close()

	var res registration.SubmissionResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&res); err != nil {
		return registration.SubmissionResult{}, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	if res.Message == "" {
		return registration.SubmissionResult{}, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	return res, nil
}

// Forms lists the forms the server offers.
func (c *Client) Forms(ctx context.Context) ([]form.Definition, error) {
	var out struct {
		Items []form.Definition `json:"items"`
	}
	if err := c.getJSON(ctx, "/forms", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Form fetches one definition.
func (c *Client) Form(ctx context.Context, id string) (form.Definition, error) {
	var def form.Definition
	if err := c.getJSON(ctx, "/forms/"+url.PathEscape(id), &def); err != nil {
		return form.Definition{}, err
	}
	return def, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return form.ErrFormNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out)
}
