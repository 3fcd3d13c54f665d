package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter configures API routes and read-only artifact serving rooted
// at the output root.
func NewRouter(handler *Handler, filesRoot string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/jobs", handler.SubmitJob).Methods("POST")
	r.HandleFunc("/api/jobs/current", handler.CurrentJob).Methods("GET")
	r.HandleFunc("/api/events", handler.Events).Methods("GET")
	r.HandleFunc("/api/diagnostics", handler.Diagnostics).Methods("GET")
	r.PathPrefix("/files/").Handler(http.StripPrefix("/files/", http.FileServer(http.Dir(filesRoot))))
	return r
}
