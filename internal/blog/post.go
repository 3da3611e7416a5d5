package blog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrPostNotFound     = errors.New("blog post not found")
	ErrMalformedContent = errors.New("malformed blog content data")
)

// Date handles the bare calendar dates the content files use
// ("2024-03-01"), plus full RFC3339 timestamps just in case.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse publish date %q: %w", s, err)
		}
	}

	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

type Social struct {
	Twitter  string `json:"twitter,omitempty"`
	Github   string `json:"github,omitempty"`
	Linkedin string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Author is embedded in every post, not a referenced entity. The site
// has a single author, so no normalization was ever needed.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
	Bio    string `json:"bio"`
	Social Social `json:"social"`
}

type Post struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	Content     string   `json:"content,omitempty"`
	CoverImage  string   `json:"coverImage"`
	PublishDate Date     `json:"publishDate"`
	ReadTime    int      `json:"readTime"`
	Author      Author   `json:"author"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Views       int      `json:"views"`
	Comments    int      `json:"comments"`
	Featured    bool     `json:"featured,omitempty"`
}

// Popularity is a fixed weighting, comments count double.
func (p *Post) Popularity() int {
	return p.Views + 2*p.Comments
}

func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// sharedTagsCount counts exact tag overlap with another post, used for
// ranking related posts.
func (p *Post) sharedTagsCount(other *Post) int {
	count := 0
	for _, tag := range p.Tags {
		for _, otherTag := range other.Tags {
			if tag == otherTag {
				count++
				break
			}
		}
	}
	return count
}

func (p *Post) validate() error {
	var missing []string
	if p.ID == "" {
		missing = append(missing, "id")
	}
	if p.Slug == "" {
		missing = append(missing, "slug")
	}
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.Excerpt == "" {
		missing = append(missing, "excerpt")
	}
	if p.Category == "" {
		missing = append(missing, "category")
	}
	if p.PublishDate.IsZero() {
		missing = append(missing, "publishDate")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: post %q missing fields: %s",
			ErrMalformedContent, p.Slug, strings.Join(missing, ", "))
	}
	return nil
}

type Category struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalPosts      int `json:"totalPosts"`
	TotalCategories int `json:"totalCategories"`
	TotalTags       int `json:"totalTags"`
	TotalViews      int `json:"totalViews"`
	TotalComments   int `json:"totalComments"`
}
