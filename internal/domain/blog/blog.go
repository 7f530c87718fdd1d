package blog

import "encoding/json"

// Post is a blog entry as published in the CMS.  Content is the portable
// text block array, passed through untouched.
type Post struct {
	ID          string          `json:"_id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Author      string          `json:"author"`
	PublishedOn string          `json:"publishedOn"`
	CoverImage  string          `json:"coverImage,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Link        string          `json:"link"`
}

const Query = `*[_type == "blog"] | order(publishedOn desc){_id, title, "slug": slug.current, author, publishedOn, "coverImage": coverImage.asset->url, content, "tags": tags[]->title, link}`
