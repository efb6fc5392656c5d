package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"tubescout/internal/adapters/spreadsheet"
	"tubescout/internal/core/domain"
	"tubescout/internal/core/ports"
	"tubescout/internal/web"
)

const (
	maxUploadBytes = 32 << 20
	urlColumn      = "URL"
)

// Collector runs a channel collection as a progress stream.
type Collector interface {
	Collect(ctx context.Context, apiKey, channelIDs string) iter.Seq[string]
}

// Navigator runs a browser navigation as a progress stream.
type Navigator interface {
	Open(ctx context.Context, req domain.NavigateRequest) iter.Seq[string]
}

// UploadStore keeps uploaded workbooks.
type UploadStore interface {
	SaveUpload(filename string, r io.Reader) (string, error)
}

type Handler struct {
	Collector Collector
	Navigator Navigator
	Uploads   UploadStore
	Logs      ports.LogStore
	Picker    ports.Picker
	Logger    *log.Logger

	readTable func(path string) (*spreadsheet.Table, error)
}

func NewHandler(
	collector Collector,
	navigator Navigator,
	uploads UploadStore,
	logs ports.LogStore,
	picker ports.Picker,
	logger *log.Logger,
) *Handler {
	return &Handler{
		Collector: collector,
		Navigator: navigator,
		Uploads:   uploads,
		Logs:      logs,
		Picker:    picker,
		Logger:    logger,
		readTable: spreadsheet.Read,
	}
}

type processPage struct {
	Error    string
	Filename string
	FullPath string
	Header   []string
	Rows     []processRow
}

type processRow struct {
	URL   string
	Cells []string
}

type logRow struct {
	Timestamp string
	VideoID   string
	Title     string
	Status    string
	Message   string
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", nil)
}

func (h *Handler) Tutorial(w http.ResponseWriter, r *http.Request) {
	h.render(w, "tutorial.html", nil)
}

// FetchStream streams a collection run as plain text, one message per line.
func (h *Handler) FetchStream(w http.ResponseWriter, r *http.Request) {
	apiKey := r.URL.Query().Get("api_key")
	channelID := strings.TrimSpace(r.URL.Query().Get("channel_id"))
	if apiKey == "" || channelID == "" {
		http.Error(w, "Error: API Key and Channel ID are required", http.StatusBadRequest)
		return
	}
	h.stream(w, r, h.Collector.Collect(r.Context(), apiKey, channelID))
}

// OpenVideosStream accepts a form or JSON body and streams a navigation run.
func (h *Handler) OpenVideosStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeNavigateRequest(r)
	if err != nil {
		h.Logger.Printf("Bad open-videos request: %v", err)
	}
	if len(req.URLs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No videos provided"})
		return
	}
	h.stream(w, r, h.Navigator.Open(r.Context(), req))
}

func decodeNavigateRequest(r *http.Request) (domain.NavigateRequest, error) {
	var req domain.NavigateRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid JSON: %w", err)
		}
	} else {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return req, fmt.Errorf("invalid form: %w", err)
		}
		req.URLs = r.Form["video_urls"]
		req.DownloadDir = r.FormValue("download_dir")
		req.BrowserPath = r.FormValue("chromedriver_path")
	}

	req.URLs = slices.DeleteFunc(req.URLs, func(u string) bool { return strings.TrimSpace(u) == "" })
	req.DownloadDir = strings.TrimSpace(req.DownloadDir)
	req.BrowserPath = strings.TrimSpace(req.BrowserPath)
	return req, nil
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	h.render(w, "process.html", processPage{Error: r.URL.Query().Get("error")})
}

// Upload saves a workbook and renders its rows for selection.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			redirectWithError(w, r, "No file part")
		} else {
			redirectWithError(w, r, "Upload failed: "+err.Error())
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		redirectWithError(w, r, "No selected file")
		return
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		redirectWithError(w, r, "Allowed file types are .xlsx")
		return
	}

	path, err := h.Uploads.SaveUpload(header.Filename, file)
	if err != nil {
		h.Logger.Printf("ERROR: save upload %s: %v", header.Filename, err)
		redirectWithError(w, r, "Could not save file: "+err.Error())
		return
	}
	fullPath, err := filepath.Abs(path)
	if err != nil {
		fullPath = path
	}

	table, err := h.readTable(path)
	if err != nil {
		h.Logger.Printf("ERROR: read upload %s: %v", path, err)
		redirectWithError(w, r, "Could not read workbook: "+err.Error())
		return
	}
	h.Logger.Printf("Uploaded %s with %d rows", fullPath, len(table.Rows))

	page := processPage{
		Filename: filepath.Base(path),
		FullPath: fullPath,
		Header:   table.Header,
	}
	for _, row := range table.Rows {
		cells := make([]string, len(table.Header))
		for i, col := range table.Header {
			cells[i] = row[col]
		}
		page.Rows = append(page.Rows, processRow{URL: strings.TrimSpace(row[urlColumn]), Cells: cells})
	}
	h.render(w, "process.html", page)
}

// LogEvent records a status object posted by the companion script.
func (h *Handler) LogEvent(w http.ResponseWriter, r *http.Request) {
	var entry domain.LogEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil || len(entry) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no data"})
		return
	}
	if err := h.Logs.AppendLog(entry); err != nil {
		h.Logger.Printf("ERROR: append log: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged"})
}

// ViewLogs renders the log, newest entry first.
func (h *Handler) ViewLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Logs.Logs()
	if err != nil {
		h.Logger.Printf("ERROR: read logs: %v", err)
		entries = nil
	}

	rows := make([]logRow, 0, len(entries))
	for _, e := range slices.Backward(entries) {
		rows = append(rows, logRow{
			Timestamp: e.Timestamp(),
			VideoID:   e.VideoID(),
			Title:     e.Title(),
			Status:    e.Status(),
			Message:   e.Message(),
		})
	}
	h.render(w, "logs.html", rows)
}

func (h *Handler) DownloadScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", web.ScriptName))
	w.Write(web.Userscript)
}

func (h *Handler) BrowseFolder(w http.ResponseWriter, r *http.Request) {
	h.browse(w, func() (string, error) { return h.Picker.PickFolder(r.Context()) })
}

func (h *Handler) BrowseFile(w http.ResponseWriter, r *http.Request) {
	h.browse(w, func() (string, error) { return h.Picker.PickFile(r.Context(), "Select browser executable") })
}

func (h *Handler) browse(w http.ResponseWriter, pick func() (string, error)) {
	path, err := pick()
	if err != nil {
		h.Logger.Printf("ERROR: picker: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// stream writes every message as a line and flushes it immediately. A write
// failure means the client is gone; returning stops the iteration and lets
// the run clean up.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request, messages iter.Seq[string]) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	rc := http.NewResponseController(w)
	for msg := range messages {
		if _, err := io.WriteString(w, msg+"\n"); err != nil {
			h.Logger.Printf("Stream %s aborted: %v", r.URL.Path, err)
			return
		}
		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			h.Logger.Printf("Stream %s aborted: %v", r.URL.Path, err)
			return
		}
	}
}

func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.Pages.ExecuteTemplate(w, name, data); err != nil {
		h.Logger.Printf("ERROR: render %s: %v", name, err)
	}
}

func redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/process?error="+url.QueryEscape(msg), http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
