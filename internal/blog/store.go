package blog

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Store holds the static post collection, loaded once at startup and
// read-only for the process lifetime. Content changes mean redeploying
// the data file, this is a static content renderer and not a CMS. All
// query methods are pure, preserve source order unless stated otherwise
// and allocate fresh result slices.
type Store struct {
	author Author
	posts  []Post
}

type contentFile struct {
	Author Author `json:"author"`
	Posts  []Post `json:"posts"`
}

// NewStore validates the post collection eagerly: required fields
// present, no duplicate ids or slugs. Failing fast at startup beats the
// old behavior of silently propagating missing fields into rendering.
func NewStore(author Author, posts []Post) (*Store, error) {
	seenIDs := make(map[string]bool, len(posts))
	seenSlugs := make(map[string]bool, len(posts))

	for i := range posts {
		p := &posts[i]
		if err := p.validate(); err != nil {
			return nil, err
		}
		if seenIDs[p.ID] {
			return nil, fmt.Errorf("%w: duplicate post id %q", ErrMalformedContent, p.ID)
		}
		if seenSlugs[p.Slug] {
			return nil, fmt.Errorf("%w: duplicate post slug %q", ErrMalformedContent, p.Slug)
		}
		seenIDs[p.ID] = true
		seenSlugs[p.Slug] = true

		// summary-only posts have no author of their own
		if p.Author.Name == "" {
			p.Author = author
		}
	}

	return &Store{
		author: author,
		posts:  posts,
	}, nil
}

func LoadFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blog content file: %w", err)
	}

	var content contentFile
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedContent, err)
	}

	store, err := NewStore(content.Author, content.Posts)
	if err != nil {
		return nil, err
	}

	log.Printf("blog content file read, %d posts", len(content.Posts))
	return store, nil
}

func (s *Store) Author() Author {
	return s.author
}

func (s *Store) Count() int {
	return len(s.posts)
}

// All returns every post in source order.
func (s *Store) All() []Post {
	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// GetBySlug returns the post with the given slug or ErrPostNotFound.
// Slugs are unique (validated at load), so first match is the match.
func (s *Store) GetBySlug(slug string) (*Post, error) {
	for i := range s.posts {
		if s.posts[i].Slug == slug {
			p := s.posts[i]
			return &p, nil
		}
	}
	return nil, ErrPostNotFound
}

func (s *Store) Featured() []Post {
	var out []Post
	for _, p := range s.posts {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}

// ByCategory matches the category case-insensitively, source order.
func (s *Store) ByCategory(category string) []Post {
	var out []Post
	for _, p := range s.posts {
		if strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) ByTag(tag string) []Post {
	var out []Post
	for _, p := range s.posts {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// Search returns posts where the lowercased query is a substring of the
// title, excerpt, content, category or any tag. No ranking, source
// order preserved. Callers skip the call for blank queries.
func (s *Store) Search(query string) []Post {
	searchTerm := strings.ToLower(query)

	var out []Post
	for _, p := range s.posts {
		if strings.Contains(strings.ToLower(p.Title), searchTerm) ||
			strings.Contains(strings.ToLower(p.Excerpt), searchTerm) ||
			strings.Contains(strings.ToLower(p.Content), searchTerm) ||
			strings.Contains(strings.ToLower(p.Category), searchTerm) ||
			anyTagContains(p.Tags, searchTerm) {
			out = append(out, p)
		}
	}
	return out
}

func anyTagContains(tags []string, searchTerm string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), searchTerm) {
			return true
		}
	}
	return false
}

// ByDate returns posts newest first. A positive limit truncates the
// result to the first N.
func (s *Store) ByDate(limit int) []Post {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishDate.After(out[j].PublishDate.Time)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// ByPopularity sorts by views + 2*comments descending, ties keep
// source order.
func (s *Store) ByPopularity() []Post {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Popularity() > out[j].Popularity()
	})
	return out
}

// Related returns other posts sharing the category or at least one tag
// with the given post, ranked by overlapping tag count descending.
// Category overlap qualifies a post but adds nothing to the rank.
func (s *Store) Related(post *Post, limit int) []Post {
	if limit <= 0 {
		limit = 3
	}

	var out []Post
	for _, p := range s.posts {
		if p.ID == post.ID {
			continue
		}
		if p.Category == post.Category || p.sharedTagsCount(post) > 0 {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].sharedTagsCount(post) > out[j].sharedTagsCount(post)
	})

	if limit < len(out) {
		out = out[:limit]
	}
	return out
}

var categorySlugRe = regexp.MustCompile(`\s+`)

// Categories returns each distinct category with its post count, in
// first-seen order.
func (s *Store) Categories() []Category {
	counts := make(map[string]int)
	var order []string
	for _, p := range s.posts {
		if _, seen := counts[p.Category]; !seen {
			order = append(order, p.Category)
		}
		counts[p.Category]++
	}

	out := make([]Category, 0, len(order))
	for _, name := range order {
		out = append(out, Category{
			Name:  name,
			Slug:  categorySlugRe.ReplaceAllString(strings.ToLower(name), "-"),
			Count: counts[name],
		})
	}
	return out
}

// Tags returns all distinct tags, deduplicated, first-seen order.
func (s *Store) Tags() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range s.posts {
		for _, tag := range p.Tags {
			if !seen[tag] {
				seen[tag] = true
				out = append(out, tag)
			}
		}
	}
	return out
}

func (s *Store) Stats() Stats {
	stats := Stats{
		TotalPosts:      len(s.posts),
		TotalCategories: len(s.Categories()),
		TotalTags:       len(s.Tags()),
	}
	for _, p := range s.posts {
		stats.TotalViews += p.Views
		stats.TotalComments += p.Comments
	}
	return stats
}
