package api

import (
	"net/http"
)

// NewRouter registers all routes and applies the global middleware.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /fetch-stream", h.FetchStream)
	mux.HandleFunc("POST /open-videos-stream", h.OpenVideosStream)
	mux.HandleFunc("GET /process", h.Process)
	mux.HandleFunc("POST /upload", h.Upload)
	mux.HandleFunc("POST /api/log", h.LogEvent)
	mux.HandleFunc("GET /logs", h.ViewLogs)
	mux.HandleFunc("GET /tutorial", h.Tutorial)
	mux.HandleFunc("GET /download-script", h.DownloadScript)
	mux.HandleFunc("GET /api/browse-folder", h.BrowseFolder)
	mux.HandleFunc("GET /api/browse-file", h.BrowseFile)

	return LoggingMiddleware(h.Logger, CORSMiddleware(allowedOrigins, mux))
}
