package projects

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrProjectNotFound = errors.New("project not found")

// Testimonial is a quote from a project stakeholder.
type Testimonial struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Role   string `json:"role"`
}

// Project is a single portfolio project entry.
type Project struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Image        string       `json:"image"`
	Technologies []string     `json:"technologies"`
	GithubURL    string       `json:"githubUrl,omitempty"`
	LiveURL      string       `json:"liveUrl,omitempty"`
	Category     string       `json:"category"`
	Date         string       `json:"date"`
	Featured     bool         `json:"featured,omitempty"`
	Overview     string       `json:"overview,omitempty"`
	Challenge    string       `json:"challenge,omitempty"`
	Solution     string       `json:"solution,omitempty"`
	Features     []string     `json:"features,omitempty"`
	Testimonial  *Testimonial `json:"testimonial,omitempty"`
}

// Year returns the four digit year of the project date, or an empty
// string when the date cannot be parsed.
func (p *Project) Year() string {
	t, err := p.parseDate()
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d", t.Year())
}

func (p *Project) parseDate() (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "January 2006", "2006"} {
		if t, err := time.Parse(layout, p.Date); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized project date: %q", p.Date)
}

func (p *Project) matchesQuery(query string) bool {
	if strings.Contains(strings.ToLower(p.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Description), query) {
		return true
	}
	for _, tech := range p.Technologies {
		if strings.Contains(strings.ToLower(tech), query) {
			return true
		}
	}
	return false
}

func (p *Project) validate() error {
	var missing []string
	if p.ID == "" {
		missing = append(missing, "id")
	}
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.Description == "" {
		missing = append(missing, "description")
	}
	if p.Category == "" {
		missing = append(missing, "category")
	}
	if p.Date == "" {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("project %q missing fields: %s", p.ID, strings.Join(missing, ", "))
	}
	if _, err := p.parseDate(); err != nil {
		return err
	}
	return nil
}
