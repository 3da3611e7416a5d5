package search

import (
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index wraps an in-memory Bleve index over the blog posts. The post
// collection is static, so the index is built once at startup and never
// updated. This powers the ranked search endpoint; the plain substring
// search stays in the blog store.
type Index struct {
	index bleve.Index
}

type IndexedPost struct {
	Slug        string
	Title       string
	Excerpt     string
	Content     string
	Category    string
	Tags        []string
	PublishDate time.Time
}

type Result struct {
	Slug      string              `json:"slug"`
	Title     string              `json:"title"`
	Category  string              `json:"category"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"` // highlighted snippets
}

// NewInMemory creates an in-memory index with title boosting left to
// the analyzer, english stemming for title and content.
func NewInMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "en"

	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Slug", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Title", titleFieldMapping)
	docMapping.AddFieldMappingsAt("Excerpt", textFieldMapping)
	docMapping.AddFieldMappingsAt("Content", contentFieldMapping)
	docMapping.AddFieldMappingsAt("Category", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Tags", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	// bare query terms hit the composite _all field, keep its analyzer
	// consistent with the stemmed title/content fields
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

func (i *Index) Close() error {
	return i.index.Close()
}

// IndexPosts indexes the whole collection in one batch.
func (i *Index) IndexPosts(posts []IndexedPost) error {
	batch := i.index.NewBatch()
	for _, post := range posts {
		if err := batch.Index(post.Slug, post); err != nil {
			return fmt.Errorf("batch index %s: %w", post.Slug, err)
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	return nil
}

// Search runs a ranked query (supports quotes, boolean operators,
// fuzzy ~) and returns scored hits with highlighted snippets.
func (i *Index) Search(queryStr string, limit int) ([]*Result, error) {
	query := bleve.NewQueryStringQuery(queryStr)

	searchReq := bleve.NewSearchRequestOptions(query, limit, 0, false)
	searchReq.Highlight = bleve.NewHighlightWithStyle("html")
	searchReq.Fields = []string{"Title", "Category"}

	results, err := i.index.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var out []*Result
	for _, hit := range results.Hits {
		result := &Result{
			Slug:      hit.ID,
			Score:     hit.Score,
			Fragments: hit.Fragments,
		}
		if title, ok := hit.Fields["Title"].(string); ok {
			result.Title = title
		}
		if category, ok := hit.Fields["Category"].(string); ok {
			result.Category = category
		}
		out = append(out, result)
	}

	return out, nil
}

func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
