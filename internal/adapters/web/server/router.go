package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", s.handleLogout).Methods(http.MethodPost)

	r.HandleFunc("/status", s.requireAuth(s.handleStatus)).Methods(http.MethodGet)
	r.HandleFunc("/endpoints", s.requireAuth(s.handleEndpoints)).Methods(http.MethodGet)
	r.HandleFunc("/control", s.requireOperator(s.handleControl)).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.requireAuth(s.WSManager.HandleWebSocket))

	r.HandleFunc("/api/reports/download", s.requireOperator(s.handleReportDownload)).Methods(http.MethodGet)

	r.Handle("/metrics", s.requireAuth(func(w http.ResponseWriter, req *http.Request) {
		promhttp.Handler().ServeHTTP(w, req)
	}))

	return r
}
