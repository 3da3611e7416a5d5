package projects

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// Store keeps the full set of portfolio projects in memory. Projects
// are loaded once at startup and never mutated afterwards, so reads
// need no locking.
type Store struct {
	projects []Project
}

type contentFile struct {
	Projects []Project `json:"projects"`
}

// NewStore validates the given projects and fails on the first sign of
// malformed content, duplicate ids included.
func NewStore(projects []Project) (*Store, error) {
	var errs error
	seenIDs := make(map[string]struct{}, len(projects))
	for i := range projects {
		p := &projects[i]
		if err := p.validate(); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, ok := seenIDs[p.ID]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate project id %q", p.ID))
			continue
		}
		seenIDs[p.ID] = struct{}{}
	}
	if errs != nil {
		return nil, errs
	}

	return &Store{projects: projects}, nil
}

func LoadFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read projects file: %w", err)
	}

	var content contentFile
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("unmarshal projects file: %w", err)
	}

	return NewStore(content.Projects)
}

func (s *Store) Count() int {
	return len(s.projects)
}

// All returns every project sorted newest first.
func (s *Store) All() []Project {
	return s.sorted(s.copyAll(), true)
}

func (s *Store) GetByID(id string) (*Project, error) {
	for i := range s.projects {
		if s.projects[i].ID == id {
			p := s.projects[i]
			return &p, nil
		}
	}
	return nil, ErrProjectNotFound
}

func (s *Store) Featured() []Project {
	var featured []Project
	for _, p := range s.projects {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return s.sorted(featured, true)
}

// Filter narrows the project list by category, year and free text
// query, any of which may be empty, then sorts by date. Oldest first
// when newestFirst is false.
func (s *Store) Filter(category, year, query string, newestFirst bool) []Project {
	query = strings.ToLower(strings.TrimSpace(query))

	var result []Project
	for _, p := range s.projects {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if year != "" && p.Year() != year {
			continue
		}
		if query != "" && !p.matchesQuery(query) {
			continue
		}
		result = append(result, p)
	}
	return s.sorted(result, newestFirst)
}

// Categories returns distinct project categories in first seen order.
func (s *Store) Categories() []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, p := range s.projects {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}

// Years returns distinct project years, most recent first.
func (s *Store) Years() []string {
	seen := make(map[string]struct{})
	var years []string
	for _, p := range s.projects {
		year := p.Year()
		if _, ok := seen[year]; ok {
			continue
		}
		seen[year] = struct{}{}
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

func (s *Store) copyAll() []Project {
	all := make([]Project, len(s.projects))
	copy(all, s.projects)
	return all
}

func (s *Store) sorted(projects []Project, newestFirst bool) []Project {
	sort.SliceStable(projects, func(i, j int) bool {
		ti, _ := projects[i].parseDate()
		tj, _ := projects[j].parseDate()
		if newestFirst {
			return ti.After(tj)
		}
		return ti.Before(tj)
	})
	return projects
}
