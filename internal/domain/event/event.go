package event

import "time"

// Event is a club event as published in the CMS.
type Event struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Poster      string     `json:"poster,omitempty"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	// FormID links the event to its registration form, when it has one.
	FormID string `json:"formId,omitempty"`
}

// Query is the GROQ projection for the events list, newest first.
const Query = `*[_type == "event"] | order(date desc){_id, title, "slug": slug.current, "poster": poster.asset->url, description, date, formId}`
