package http

import (
	"embed"
	"net/http"
)

//go:embed static/index.html
var staticFS embed.FS

// serveIndex serves the recorder page.
func serveIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS, "static/index.html")
}
