package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter serves the Telegram webhook and the metrics endpoint (each only
// when given) next to a liveness check.
func NewRouter(webhook http.Handler, metrics http.Handler) http.Handler {
	r := mux.NewRouter()

	if webhook != nil {
		r.Handle("/webhook", webhook).Methods(http.MethodPost)
	}
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}
