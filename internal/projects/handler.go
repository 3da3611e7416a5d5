package projects

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/nkengderick/nkengdev/internal/telemetry/tracing"
	"github.com/nkengderick/nkengdev/pkg"
)

type ProjectsResponse struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/projects", handler.handleGetProjects).Methods("GET").Name("projects")
	router.HandleFunc("/projects/featured", handler.handleGetFeatured).Methods("GET").Name("projects-featured")
	router.HandleFunc("/projects/categories", handler.handleGetCategories).Methods("GET").Name("projects-categories")
	router.HandleFunc("/projects/years", handler.handleGetYears).Methods("GET").Name("projects-years")
	router.HandleFunc("/projects/category/{category}", handler.handleGetByCategory).Methods("GET").Name("projects-category")
	router.HandleFunc("/projects/{id}", handler.handleGetProject).Methods("GET").Name("project")
}

func (handler *Handler) handleGetProjects(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "projectsHandler.getProjects")
	defer span.End()

	params := r.URL.Query()
	newestFirst := true
	switch sortParam := params.Get("sort"); sortParam {
	case "", "newest":
	case "oldest":
		newestFirst = false
	default:
		http.Error(w, "invalid sort parameter, use newest or oldest", http.StatusBadRequest)
		return
	}

	projects := handler.store.Filter(
		params.Get("category"),
		params.Get("year"),
		params.Get("q"),
		newestFirst,
	)

	handler.writeProjects(w, projects)
}

func (handler *Handler) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := handler.store.GetByID(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}
		log.Errorf("get project: %s", err)
		http.Error(w, "failed to get project", http.StatusInternalServerError)
		return
	}

	handler.writeJSON(w, project)
}

func (handler *Handler) handleGetByCategory(w http.ResponseWriter, r *http.Request) {
	handler.writeProjects(w, handler.store.Filter(mux.Vars(r)["category"], "", "", true))
}

func (handler *Handler) handleGetFeatured(w http.ResponseWriter, r *http.Request) {
	handler.writeProjects(w, handler.store.Featured())
}

func (handler *Handler) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	handler.writeJSON(w, handler.store.Categories())
}

func (handler *Handler) handleGetYears(w http.ResponseWriter, r *http.Request) {
	handler.writeJSON(w, handler.store.Years())
}

func (handler *Handler) writeProjects(w http.ResponseWriter, projects []Project) {
	handler.writeJSON(w, ProjectsResponse{
		Projects: projects,
		Total:    len(projects),
	})
}

func (handler *Handler) writeJSON(w http.ResponseWriter, payload any) {
	respJson, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("marshal projects response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}
