package misc

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nkengderick/nkengdev/pkg"
)

type Handler struct {
	versionInfo string
}

func NewHandler(versionInfo string) *Handler {
	return &Handler{versionInfo: versionInfo}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/", handler.handleRoot).Methods("GET").Name("root")
	router.HandleFunc("/ping", handler.handlePing).Methods("GET").Name("ping")
	router.HandleFunc("/version", handler.handleVersionInfo).Methods("GET").Name("version")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	pkg.WriteJSONResponseOK(w, `{"ping":"pong"}`)
}

func (handler *Handler) handleVersionInfo(w http.ResponseWriter, r *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}
