package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndexSetup(t *testing.T) *Index {
	t.Helper()

	idx, err := NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, idx.Close())
	})

	err = idx.IndexPosts([]IndexedPost{
		{
			Slug:        "intro-to-goroutines",
			Title:       "Introduction to Goroutines",
			Excerpt:     "Concurrency basics in Go",
			Content:     "Goroutines are lightweight threads managed by the Go runtime.",
			Category:    "Go",
			Tags:        []string{"go", "concurrency"},
			PublishDate: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			Slug:        "react-server-components",
			Title:       "Understanding React Server Components",
			Excerpt:     "Rendering on the server",
			Content:     "Server components let you render parts of the UI ahead of time.",
			Category:    "React",
			Tags:        []string{"react", "nextjs"},
			PublishDate: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)

	return idx
}

func TestIndex_Count(t *testing.T) {
	idx := testIndexSetup(t)

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestIndex_Search(t *testing.T) {
	idx := testIndexSetup(t)

	results, err := idx.Search("goroutines", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "intro-to-goroutines", results[0].Slug)
	assert.Equal(t, "Introduction to Goroutines", results[0].Title)
	assert.Equal(t, "Go", results[0].Category)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestIndex_Search_NoMatch(t *testing.T) {
	idx := testIndexSetup(t)

	results, err := idx.Search("kubernetes", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_Search_Limit(t *testing.T) {
	idx := testIndexSetup(t)

	// terms are OR-ed, together they hit both documents
	results, err := idx.Search("goroutines rendering", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	results, err = idx.Search("goroutines rendering", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
