package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/provide-io/emotepack/pkg/emote/archive"
	emoteerrors "github.com/provide-io/emotepack/pkg/emote/errors"
	"github.com/provide-io/emotepack/pkg/emote/export"
	"github.com/provide-io/emotepack/pkg/emote/naming"
	"github.com/provide-io/emotepack/pkg/emote/session"
	"github.com/provide-io/emotepack/pkg/emote/slots"
)

// State is the view of a session returned by most endpoints.
type State struct {
	Cells   []session.Cell `json:"cells"`
	Config  naming.Config  `json:"config"`
	Archive string         `json:"archive"`
	Formats []string       `json:"formats"`
	// ReplacePolicy tells clients whether replacing the list keeps images.
	ReplacePolicy slots.ReplacePolicy `json:"replace_policy"`
	Notice        *session.Notice     `json:"notice,omitempty"`
}

type appendRequest struct {
	Name string `json:"name"`
}

type configRequest struct {
	Mode          *string `json:"mode"`
	Label         *string `json:"label"`
	Extension     *string `json:"extension"`
	ArchiveFormat *string `json:"archive_format"`
}

type bindResponse struct {
	Ignored bool          `json:"ignored"`
	Cell    *session.Cell `json:"cell,omitempty"`
}

type individualResponse struct {
	Links   []Link        `json:"links"`
	Skipped []export.Skip `json:"skipped,omitempty"`
}

func (s *Server) state(notice *session.Notice) State {
	return State{
		Cells:         s.session.Render(),
		Config:        s.session.Config(),
		Archive:       s.session.ArchiveFileName(),
		Formats:       archive.Formats(),
		ReplacePolicy: s.session.Registry().Policy(),
		Notice:        notice,
	}
}

func (s *Server) handleGetSlots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.state(nil))
}

func (s *Server) handleAppendSlot(w http.ResponseWriter, r *http.Request) {
	var req appendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	added, err := s.session.AddName(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, s.state(nil))
}

func (s *Server) handleReplaceSlots(w http.ResponseWriter, r *http.Request) {
	text, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var notice *session.Notice
	if err := s.session.LoadList(string(text)); err != nil {
		if !emoteerrors.IsWarning(err) {
			s.writeError(w, err)
			return
		}
		notice = &session.Notice{Level: session.LevelWarning, Message: err.Error()}
	}
	writeJSON(w, http.StatusOK, s.state(notice))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.session.Reset()
	writeJSON(w, http.StatusOK, s.state(nil))
}

func (s *Server) handleBindImage(w http.ResponseWriter, r *http.Request) {
	slot := chi.URLParam(r, "name")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImageBytes))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	blob := slots.Blob{
		Name:      r.URL.Query().Get("filename"),
		MediaType: mediaTypeOf(r.Header.Get("Content-Type"), data),
		Data:      data,
	}
	if blob.Name == "" {
		blob.Name = slot
	}

	p, err := s.session.Bind(r.Context(), slot, blob)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if p.Ignored() {
		writeJSON(w, http.StatusOK, bindResponse{Ignored: true})
		return
	}
	if err := p.Wait(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}

	for _, c := range s.session.Render() {
		if c.Slot == slot {
			writeJSON(w, http.StatusOK, bindResponse{Cell: &c})
			return
		}
	}
	writeJSON(w, http.StatusOK, bindResponse{})
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if req.Mode != nil {
		if err := s.session.SetMode(*req.Mode); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.ArchiveFormat != nil {
		if err := s.session.SetArchiveFormat(*req.ArchiveFormat); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Label != nil {
		s.session.SetLabel(*req.Label)
	}
	if req.Extension != nil {
		s.session.SetExtension(*req.Extension)
	}
	writeJSON(w, http.StatusOK, s.state(nil))
}

func (s *Server) handleExportArchive(w http.ResponseWriter, r *http.Request) {
	var out *Download
	dl := export.DownloaderFunc(func(_ context.Context, data []byte, name string) error {
		out = &Download{Name: name, MediaType: mimetype.Detect(data).String(), Data: data}
		return nil
	})

	if _, err := s.session.ExportArchive(r.Context(), dl); err != nil {
		s.writeError(w, err)
		return
	}
	serveDownload(w, out)
}

func (s *Server) handleExportIndividual(w http.ResponseWriter, r *http.Request) {
	dl := &linkDownloader{store: s.downloads}

	report, err := s.session.ExportIndividual(r.Context(), dl)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, individualResponse{Links: dl.links, Skipped: report.Skipped})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	d, ok := s.downloads.Take(chi.URLParam(r, "token"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "download not found or already fetched"})
		return
	}
	s.logger.Debug("📤 Download released", "name", d.Name, "pending", s.downloads.Len())
	serveDownload(w, d)
}

// mediaTypeOf returns the declared media type, sniffing the content when
// the client sent none or a generic one.
func mediaTypeOf(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return declared
	}
	return mimetype.Detect(data).String()
}

func serveDownload(w http.ResponseWriter, d *Download) {
	w.Header().Set("Content-Type", d.MediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}

var errBadRequest = errors.New("❌ bad request")

type errorResponse struct {
	Error string `json:"error"`
	Level string `json:"level,omitempty"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, emoteerrors.ErrInvalidMode),
		errors.Is(err, emoteerrors.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, emoteerrors.ErrUnknownSlot):
		return http.StatusNotFound
	case errors.Is(err, emoteerrors.ErrDuplicateSlot):
		return http.StatusConflict
	case errors.Is(err, emoteerrors.ErrNothingToExport):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	level := string(session.LevelError)
	if emoteerrors.IsWarning(err) {
		level = string(session.LevelWarning)
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("❌ Request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Level: level})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
