package webserver

import (
	"embed"
	"net/http"

	"github.com/spboyer/mfqbench/internal/dashboard"
)

//go:embed static/dashboard.html
var assets embed.FS

// registerRoutes sets up the dashboard API and static result files on the given mux.
func registerRoutes(mux *http.ServeMux, store dashboard.ReportStore, dir string) {
	dashboard.RegisterRoutes(mux, store)
	mux.Handle("/", staticHandler(dir))
}

// staticHandler serves the embedded dashboard page at "/" and every other path from
// the results directory.
func staticHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			page, err := assets.ReadFile("static/dashboard.html")
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(page) //nolint:errcheck
			return
		}
		files.ServeHTTP(w, r)
	})
}
