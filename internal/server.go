package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nkengderick/nkengdev/internal/blog"
	"github.com/nkengderick/nkengdev/internal/cache"
	"github.com/nkengderick/nkengdev/internal/config"
	"github.com/nkengderick/nkengdev/internal/contact"
	"github.com/nkengderick/nkengdev/internal/instrumentation"
	"github.com/nkengderick/nkengdev/internal/middleware"
	"github.com/nkengderick/nkengdev/internal/misc"
	"github.com/nkengderick/nkengdev/internal/projects"
	"github.com/nkengderick/nkengdev/internal/search"
	"github.com/nkengderick/nkengdev/internal/telemetry/tracing"
)

const renderCacheSizeBytes = 10 * 1024 * 1024

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config        *config.Config
	blogStore     *blog.Store
	projectsStore *projects.Store
	searchIndex   *search.Index
	renderCache   cache.RenderCache
	emailClient   *contact.EmailClient
	subscribers   *contact.Subscribers

	redisClient *redis.Client

	instr        *instrumentation.Instrumentation
	otelShutdown func()
}

type NewServerParams struct {
	Config                  *config.Config
	EmailAPIKey             string
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	instr := instrumentation.NewInstrumentation("backend", "main")
	instr.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "portfolio-backend", rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	blogStore, err := blog.LoadFromFile(params.Config.BlogPostsPath)
	if err != nil {
		return nil, fmt.Errorf("load blog posts: %w", err)
	}
	log.Debugf("loaded %d blog posts", blogStore.Count())

	projectsStore, err := projects.LoadFromFile(params.Config.ProjectsPath)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	log.Debugf("loaded %d projects", projectsStore.Count())

	searchIndex, err := search.NewInMemory()
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}

	var indexed []search.IndexedPost
	for _, p := range blogStore.All() {
		indexed = append(indexed, search.IndexedPost{
			Slug:        p.Slug,
			Title:       p.Title,
			Excerpt:     p.Excerpt,
			Content:     p.Content,
			Category:    p.Category,
			Tags:        p.Tags,
			PublishDate: p.PublishDate.Time,
		})
	}
	if err := searchIndex.IndexPosts(indexed); err != nil {
		return nil, fmt.Errorf("index blog posts: %w", err)
	}

	return &Server{
		versionInfo:   params.VersionInfo,
		config:        params.Config,
		blogStore:     blogStore,
		projectsStore: projectsStore,
		searchIndex:   searchIndex,
		renderCache:   cache.NewRenderCache(renderCacheSizeBytes),
		emailClient: contact.NewEmailClient(
			params.Config.EmailAPIBaseURL,
			params.EmailAPIKey,
			tracedHttpClient,
		),
		subscribers:  contact.NewSubscribers(rdb),
		redisClient:  rdb,
		instr:        instr,
		otelShutdown: otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	blogHandler := blog.NewHandler(s.blogStore, s.renderCache, s.searchIndex, s.instr)
	blogHandler.SetupRoutes(r)

	projectsHandler := projects.NewHandler(s.projectsStore)
	projectsHandler.SetupRoutes(r)

	miscHandler := misc.NewHandler(s.versionInfo)
	miscHandler.SetupRoutes(r)

	// contact form and newsletter are rate limited, they trigger
	// outbound email dispatch
	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	contactRouter := r.NewRoute().Subrouter()
	contactRouter.Use(middleware.RateLimit(
		reqRateLimiter,
		"contact",
		s.config.ContactRateLimitAllowedPerMin,
	))
	contactHandler := contact.NewHandler(contact.HandlerParams{
		EmailSender: s.emailClient,
		Subscribers: s.subscribers,
		Instr:       s.instr,
		FromAddress: s.config.EmailFromAddress,
		FromName:    s.config.EmailFromName,
		AdminEmail:  s.config.AdminEmail,
	})
	contactHandler.SetupRoutes(contactRouter)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.instr))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.instr))
	r.Use(middleware.Cors())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.instr.Registry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.instr.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.instr.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.searchIndex != nil {
		if err := s.searchIndex.Close(); err != nil {
			log.Errorf("failed to close search index: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.instr.GaugeRequests.Add(1)
	case http.StateClosed:
		s.instr.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
