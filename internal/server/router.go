package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Route binds a named handler to a method and path.
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// requestLogger logs each request once it completes.
func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)

		slog.Debug("HTTP request",
			slog.String("method", r.Method),
			slog.String("uri", r.RequestURI),
			slog.String("route", name),
			slog.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	routes := []Route{
		{"healthz", http.MethodGet, "/healthz", s.handleHealth},
		{"ws", http.MethodGet, "/ws", s.handleWS},
	}

	for _, route := range routes {
		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(requestLogger(route.HandlerFunc, route.Name))
	}
	return router
}
