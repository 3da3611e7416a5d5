package internal

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nkengderick/nkengdev/internal/blog"
	"github.com/nkengderick/nkengdev/internal/cache"
	"github.com/nkengderick/nkengdev/internal/config"
	"github.com/nkengderick/nkengdev/internal/contact"
	"github.com/nkengderick/nkengdev/internal/instrumentation"
	"github.com/nkengderick/nkengdev/internal/projects"
	"github.com/nkengderick/nkengdev/internal/search"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
		// bleve analysis workers outlive index.Close()
		goleak.IgnoreTopFunction(
			"github.com/blevesearch/bleve_index_api.AnalysisWorker",
		),
	)
}

func testServerSetup(t *testing.T) *Server {
	t.Helper()

	author := blog.Author{Name: "Test Author", Role: "Developer"}
	posts := []blog.Post{
		{
			ID: "1", Slug: "first-post", Title: "First Post",
			Excerpt: "The first one", Content: "# First Post\n\nHello.",
			Category: "Go", Tags: []string{"go"},
			PublishDate: testDate(t, "2024-01-01"),
		},
	}
	blogStore, err := blog.NewStore(author, posts)
	require.NoError(t, err)

	projectsStore, err := projects.NewStore([]projects.Project{
		{
			ID: "p1", Title: "Test Project", Description: "A project",
			Category: "Web App", Date: "2024-05-01",
		},
	})
	require.NoError(t, err)

	searchIndex, err := search.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, searchIndex.Close())
	})

	db, _ := redismock.NewClientMock()
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})

	return &Server{
		versionInfo:   "test-version",
		config:        &config.Config{ContactRateLimitAllowedPerMin: 5},
		blogStore:     blogStore,
		projectsStore: projectsStore,
		searchIndex:   searchIndex,
		renderCache:   cache.NewTestRenderCache(),
		emailClient:   contact.NewEmailClient("http://localhost", "test-key", http.DefaultClient),
		subscribers:   contact.NewSubscribers(db),
		redisClient:   db,
		instr:         instrumentation.NewTestInstrumentation(),
		otelShutdown:  func() {},
	}
}

func testDate(t *testing.T, value string) blog.Date {
	t.Helper()
	var d blog.Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"`+value+`"`)))
	return d
}

func TestServer_RouterSetup(t *testing.T) {
	server := testServerSetup(t)
	router := server.routerSetup()

	for caseName, tc := range map[string]struct {
		method   string
		path     string
		wantCode int
	}{
		"root":             {method: "GET", path: "/", wantCode: http.StatusOK},
		"version":          {method: "GET", path: "/version", wantCode: http.StatusOK},
		"blog posts":       {method: "GET", path: "/blog/posts", wantCode: http.StatusOK},
		"blog post":        {method: "GET", path: "/blog/post/first-post", wantCode: http.StatusOK},
		"blog missing":     {method: "GET", path: "/blog/post/nope", wantCode: http.StatusNotFound},
		"projects":         {method: "GET", path: "/projects", wantCode: http.StatusOK},
		"project":          {method: "GET", path: "/projects/p1", wantCode: http.StatusOK},
		"unknown path":     {method: "GET", path: "/whatisthis", wantCode: http.StatusNotFound},
		"wrong method":     {method: "PUT", path: "/blog/posts", wantCode: http.StatusMethodNotAllowed},
		"search no query":  {method: "GET", path: "/blog/search", wantCode: http.StatusBadRequest},
		"blog post render": {method: "GET", path: "/blog/post/first-post/render", wantCode: http.StatusOK},
	} {
		t.Run(caseName, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tc.wantCode, rr.Code, rr.Body.String())
		})
	}
}

func TestServer_RouterSetup_Cors(t *testing.T) {
	server := testServerSetup(t)
	router := server.routerSetup()

	req := httptest.NewRequest("GET", "/blog/posts", nil)
	req.Header.Set("Origin", "https://www.nkengderick.dev")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://www.nkengderick.dev", rr.Header().Get("Access-Control-Allow-Origin"))
}
