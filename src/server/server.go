package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/sirupsen/logrus"

	"logobanner/src/common"
	"logobanner/src/config"
	"logobanner/src/logging"
	"logobanner/src/storage"
)

const maxBodyBytes = 20 << 20 // base64 of a 15MB image

var log *logrus.Logger

func init() {
	log = logging.GetLogger()
}

// ImagePublisher uploads images and returns their public URLs
type ImagePublisher interface {
	UploadImageBase64(ctx context.Context, payload common.EncodedPayload, name string) (string, error)
	UploadBytes(ctx context.Context, key string, data []byte) (string, error)
}

// Server handles banner web requests
type Server struct {
	cfg        *config.Config
	processor  *common.Processor
	publisher  ImagePublisher
	httpServer *http.Server
}

// BannerRequest is the body of POST /banner and POST /upload
type BannerRequest struct {
	Image string `json:"image"`
	Color string `json:"color,omitempty"`
	Name  string `json:"name,omitempty"`
}

// BannerResponse is returned by POST /banner
type BannerResponse struct {
	Image    string `json:"image"`
	DataURI  string `json:"data_uri"`
	FileName string `json:"file_name"`
}

// UploadResponse is returned by POST /upload
type UploadResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// NewServer creates a new banner server
func NewServer(cfg *config.Config, processor *common.Processor) *Server {
	return &Server{
		cfg:       cfg,
		processor: processor,
	}
}

// SetPublisher enables POST /upload
func (s *Server) SetPublisher(p ImagePublisher) {
	s.publisher = p
}

// Handler returns the routed, compressed handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /banner", s.handleBanner)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return gzhttp.GzipHandler(withRequestID(mux))
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Infof("Banner server starting on %s", s.cfg.Addr())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a started server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleBanner composites the posted logo onto a colored background
func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	res, err := s.processor.ChangeBackground(common.EncodedPayload(req.Image), s.colorFor(req))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	raw, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, BannerResponse{
		Image:    res.Data,
		DataURI:  string(common.EncodeDataURI(raw, "jpeg")),
		FileName: res.FileName,
	})
}

// handleUpload stores the posted image, optionally after changing its background
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		s.writeError(w, r, errUploadsDisabled)
		return
	}

	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	var (
		url string
		err error
	)
	if req.Color == "" {
		url, err = s.publisher.UploadImageBase64(r.Context(), common.EncodedPayload(req.Image), req.Name)
	} else {
		url, err = s.uploadBanner(r.Context(), req)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{URL: url})
}

func (s *Server) uploadBanner(ctx context.Context, req *BannerRequest) (string, error) {
	res, err := s.processor.ChangeBackground(common.EncodedPayload(req.Image), req.Color)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode banner: %w", err)
	}

	key := req.Name
	if key == "" {
		key = res.FileName
	}
	return s.publisher.UploadBytes(ctx, key, raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uploads": s.publisher != nil,
	})
}

func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*BannerRequest, bool) {
	var req BannerRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return nil, false
	}
	if req.Image == "" {
		s.writeError(w, r, fmt.Errorf("%w: image is required", errBadRequest))
		return nil, false
	}
	return &req, true
}

func (s *Server) colorFor(req *BannerRequest) string {
	if req.Color != "" {
		return req.Color
	}
	return s.cfg.Banner.DefaultColor
}

var (
	errBadRequest      = errors.New("bad request")
	errUploadsDisabled = errors.New("uploads are disabled: storage credentials not configured")
)

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, common.ErrColorParse),
		errors.Is(err, common.ErrMetadataFormat),
		errors.Is(err, common.ErrImageDecode):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrImageEncode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errUploadsDisabled):
		return http.StatusServiceUnavailable
	case storage.IsUnavailable(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	id := requestID(r)

	entry := log.WithFields(logrus.Fields{"request_id": id, "path": r.URL.Path, "status": code})
	if code >= http.StatusInternalServerError {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.WithError(err).Warn("Request rejected")
	}

	writeJSON(w, code, errorResponse{Error: err.Error(), RequestID: id})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to write response: %v", err)
	}
}

type ctxKey struct{}

// withRequestID tags each request with a uuid, echoed in X-Request-ID
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		log.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"took":       time.Since(start).String(),
		}).Debug("Request served")
	})
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}
