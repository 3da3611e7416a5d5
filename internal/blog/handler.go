package blog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/nkengderick/nkengdev/internal/cache"
	"github.com/nkengderick/nkengdev/internal/instrumentation"
	"github.com/nkengderick/nkengdev/internal/markdown"
	"github.com/nkengderick/nkengdev/internal/search"
	"github.com/nkengderick/nkengdev/internal/telemetry/tracing"
	"github.com/nkengderick/nkengdev/pkg"
)

type PostsResponse struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
}

// RenderedPostResponse carries the rendered segments plus, separately,
// the heading list for the table of contents sidebar.
type RenderedPostResponse struct {
	Post     Post               `json:"post"`
	Segments []markdown.Segment `json:"segments"`
	Headings []markdown.Heading `json:"headings"`
}

type rankedSearcher interface {
	Search(query string, limit int) ([]*search.Result, error)
}

type Handler struct {
	store       *Store
	renderCache cache.RenderCache
	searchIndex rankedSearcher
	instr       *instrumentation.Instrumentation
}

func NewHandler(
	store *Store,
	renderCache cache.RenderCache,
	searchIndex rankedSearcher,
	instr *instrumentation.Instrumentation,
) *Handler {
	return &Handler{
		store:       store,
		renderCache: renderCache,
		searchIndex: searchIndex,
		instr:       instr,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/blog/posts", handler.handleGetPosts).Methods("GET").Name("blog-posts")
	router.HandleFunc("/blog/post/{slug}", handler.handleGetPost).Methods("GET").Name("blog-post")
	router.HandleFunc("/blog/post/{slug}/render", handler.handleRenderPost).Methods("GET").Name("blog-post-render")
	router.HandleFunc("/blog/post/{slug}/related", handler.handleRelatedPosts).Methods("GET").Name("blog-post-related")
	router.HandleFunc("/blog/posts/category/{category}", handler.handleGetByCategory).Methods("GET").Name("blog-posts-category")
	router.HandleFunc("/blog/posts/tag/{tag}", handler.handleGetByTag).Methods("GET").Name("blog-posts-tag")
	router.HandleFunc("/blog/featured", handler.handleGetFeatured).Methods("GET").Name("blog-featured")
	router.HandleFunc("/blog/categories", handler.handleGetCategories).Methods("GET").Name("blog-categories")
	router.HandleFunc("/blog/tags", handler.handleGetTags).Methods("GET").Name("blog-tags")
	router.HandleFunc("/blog/stats", handler.handleGetStats).Methods("GET").Name("blog-stats")
	router.HandleFunc("/blog/author", handler.handleGetAuthor).Methods("GET").Name("blog-author")
	router.HandleFunc("/blog/search", handler.handleSearch).Methods("GET").Name("blog-search")
	router.HandleFunc("/blog/search/ranked", handler.handleRankedSearch).Methods("GET").Name("blog-search-ranked")
}

func (handler *Handler) handleGetPosts(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.getPosts")
	defer span.End()

	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 0 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	var posts []Post
	switch sortParam := r.URL.Query().Get("sort"); sortParam {
	case "", "latest":
		posts = handler.store.ByDate(limit)
	case "popular":
		posts = handler.store.ByPopularity()
		if limit > 0 && limit < len(posts) {
			posts = posts[:limit]
		}
	default:
		http.Error(w, "invalid sort parameter, use latest or popular", http.StatusBadRequest)
		return
	}

	handler.writePosts(w, posts)
}

func (handler *Handler) handleGetPost(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.getPost")
	defer span.End()

	post, err := handler.store.GetBySlug(mux.Vars(r)["slug"])
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "blog post not found", http.StatusNotFound)
			return
		}
		log.Errorf("get blog post: %s", err)
		http.Error(w, "failed to get blog post", http.StatusInternalServerError)
		return
	}

	postJson, err := json.Marshal(post)
	if err != nil {
		log.Errorf("marshal blog post error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, postJson)
}

func (handler *Handler) handleRenderPost(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.renderPost")
	defer span.End()

	slug := mux.Vars(r)["slug"]

	if cached, ok := handler.renderCache.Get(slug); ok {
		if handler.instr != nil {
			handler.instr.CounterRenderCacheHits.Inc()
		}
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, cached)
		return
	}
	if handler.instr != nil {
		handler.instr.CounterRenderCacheMisses.Inc()
	}

	post, err := handler.store.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "blog post not found", http.StatusNotFound)
			return
		}
		log.Errorf("render blog post: %s", err)
		http.Error(w, "failed to render blog post", http.StatusInternalServerError)
		return
	}

	rendered := markdown.Render(post.Content)

	resp := RenderedPostResponse{
		Post:     *post,
		Segments: rendered.Segments,
		Headings: rendered.Headings,
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal rendered blog post error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	handler.renderCache.Set(slug, respJson)

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func (handler *Handler) handleRelatedPosts(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.relatedPosts")
	defer span.End()

	post, err := handler.store.GetBySlug(mux.Vars(r)["slug"])
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "blog post not found", http.StatusNotFound)
			return
		}
		log.Errorf("related blog posts: %s", err)
		http.Error(w, "failed to get related posts", http.StatusInternalServerError)
		return
	}

	limit := 3
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	handler.writePosts(w, handler.store.Related(post, limit))
}

func (handler *Handler) handleGetByCategory(w http.ResponseWriter, r *http.Request) {
	handler.writePosts(w, handler.store.ByCategory(mux.Vars(r)["category"]))
}

func (handler *Handler) handleGetByTag(w http.ResponseWriter, r *http.Request) {
	handler.writePosts(w, handler.store.ByTag(mux.Vars(r)["tag"]))
}

func (handler *Handler) handleGetFeatured(w http.ResponseWriter, r *http.Request) {
	handler.writePosts(w, handler.store.Featured())
}

func (handler *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.search")
	defer span.End()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "empty search query", http.StatusBadRequest)
		return
	}

	handler.writePosts(w, handler.store.Search(query))
}

func (handler *Handler) handleRankedSearch(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "blogHandler.rankedSearch")
	defer span.End()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		http.Error(w, "empty search query", http.StatusBadRequest)
		return
	}

	limit := 10
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	results, err := handler.searchIndex.Search(query, limit)
	if err != nil {
		log.Errorf("ranked search [%s]: %s", query, err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []*search.Result{}
	}

	resultsJson, err := json.Marshal(results)
	if err != nil {
		log.Errorf("marshal search results error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resultsJson)
}

func (handler *Handler) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	handler.writeJSON(w, handler.store.Categories())
}

func (handler *Handler) handleGetTags(w http.ResponseWriter, r *http.Request) {
	tags := handler.store.Tags()
	if tags == nil {
		tags = []string{}
	}
	handler.writeJSON(w, tags)
}

func (handler *Handler) handleGetStats(w http.ResponseWriter, r *http.Request) {
	handler.writeJSON(w, handler.store.Stats())
}

func (handler *Handler) handleGetAuthor(w http.ResponseWriter, r *http.Request) {
	handler.writeJSON(w, handler.store.Author())
}

func (handler *Handler) writePosts(w http.ResponseWriter, posts []Post) {
	if posts == nil {
		posts = []Post{}
	}
	handler.writeJSON(w, PostsResponse{
		Posts: posts,
		Total: len(posts),
	})
}

func (handler *Handler) writeJSON(w http.ResponseWriter, payload any) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("marshal response error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, payloadJson)
}
