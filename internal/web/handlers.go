package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/iamvkosarev/ai-interior-designer/internal/catalog"
	"github.com/iamvkosarev/ai-interior-designer/internal/compare"
	imagecodec "github.com/iamvkosarev/ai-interior-designer/internal/image"
	"github.com/iamvkosarev/ai-interior-designer/internal/logging"
	"github.com/iamvkosarev/ai-interior-designer/internal/model"
	"github.com/iamvkosarev/ai-interior-designer/internal/usecase"
)

const (
	imageKindOriginal    = "original"
	imageKindTransformed = "transformed"

	maxJSONBodySize  = 64 << 10
	uploadFormField  = "image"
	multipartMemory  = 1 << 20
	defaultMaxUpload = 10 << 20
)

type indexData struct {
	Styles        []styleView
	ClipWidth     string
	SliderDefault float64
	Status        string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{
		Styles:        toStylesView(catalog.Styles()),
		ClipWidth:     compare.NewSlider().ClipWidth(),
		SliderDefault: compare.DefaultPosition,
		Status:        usecase.TextStatusSelectStyle.Text(s.language),
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logging.FromContext(r.Context(), s.logger).Error("failed to execute template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStyles(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toStylesView(catalog.Styles()))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.CreateSession(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionView(session))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	session, err := s.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	maxUpload := s.cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	img, err := readUpload(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.sessions.UploadImage(r.Context(), sessionID, img)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(session))
}

func (s *Server) handleReimagine(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	var req reimagineRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := s.sessions.Reimagine(r.Context(), sessionID, req.StyleID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toSessionView(session))
	case errors.Is(err, usecase.ErrUnknownStyle):
		writeError(w, http.StatusNotFound, "unknown style")
	case errors.Is(err, usecase.ErrImageGenerationInProgress):
		writeError(w, http.StatusConflict, "image generation already in progress")
	case errors.Is(err, usecase.ErrTransformationFailed):
		view := toSessionView(session)
		view.Alert = usecase.TextTransformationFailed.Text(s.language)
		writeJSON(w, http.StatusBadGateway, view)
	default:
		s.sessionError(w, r, err)
	}
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	outcome, err := s.sessions.SendMessage(r.Context(), sessionID, req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toSessionView(outcome.Session))
	case errors.Is(err, usecase.ErrBlankMessage):
		writeError(w, http.StatusBadRequest, "text is required")
	case errors.Is(err, usecase.ErrChatInProgress):
		writeError(w, http.StatusConflict, "chat request already in progress")
	default:
		s.sessionError(w, r, err)
	}
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}
	session, err := s.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		s.sessionError(w, r, err)
		return
	}

	var img *model.Image
	switch r.PathValue("kind") {
	case imageKindOriginal:
		img = session.OriginalImage
	case imageKindTransformed:
		if session.HasTransformed() {
			img = session.TransformedImage
		}
	default:
		writeError(w, http.StatusNotFound, "unknown image kind")
		return
	}
	if img == nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	w.Header().Set("Content-Type", img.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

// readUpload accepts a multipart form with an image field or a JSON data URI.
func readUpload(r *http.Request) (model.Image, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req uploadImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return model.Image{}, err
		}
		return imagecodec.ParseDataURI(req.DataURI)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return model.Image{}, err
	}
	file, _, err := r.FormFile(uploadFormField)
	if err != nil {
		return model.Image{}, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return model.Image{}, err
	}
	return imagecodec.Normalize(data)
}

func parseSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return uuid.Nil, false
	}
	return sessionID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) sessionError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrSessionDoesNotExist) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.internalError(w, r, err)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.FromContext(r.Context(), s.logger).Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
