package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/database"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/pipeline"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/services"
)

// uploadField is the multipart form field carrying the CSV log.
const uploadField = "file"

// StatsReader aggregates stored predictions.
type StatsReader interface {
	PredictionCounts(ctx context.Context, device string, since time.Time) ([]database.LabelCount, error)
}

// Check is a named readiness test reported by Health.
type Check struct {
	Name  string
	Ready func() bool
}

// Handler serves the detection API.
type Handler struct {
	svc            *services.DetectionService
	stats          StatsReader
	checks         []Check
	maxUploadBytes int64
	validate       *validator.Validate
}

// NewHandler creates a Handler. stats may be nil when no store is configured.
func NewHandler(svc *services.DetectionService, stats StatsReader, maxUploadBytes int64, checks ...Check) *Handler {
	return &Handler{
		svc:            svc,
		stats:          stats,
		checks:         checks,
		maxUploadBytes: maxUploadBytes,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
	RunID string    `json:"run_id,omitempty"`
}

type detectResponse struct {
	RunID    string             `json:"run_id"`
	Device   string             `json:"device"`
	FileName string             `json:"file_name"`
	Rows     []models.ResultRow `json:"rows"`
}

type deviceResponse struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Features []string `json:"features"`
}

type statsResponse struct {
	Device string         `json:"device"`
	Since  time.Time      `json:"since"`
	Counts map[string]int `json:"counts"`
}

// statsRequest bounds the look-back window of a stats query.
type statsRequest struct {
	Window time.Duration `validate:"min=1m,max=2160h"`
}

// Health reports liveness and the state of each configured dependency.
// Any failing check answers 503 with status "degraded".
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}

	status := http.StatusOK
	for _, c := range h.checks {
		if c.Ready() {
			resp.Checks[c.Name] = "up"
			continue
		}
		resp.Checks[c.Name] = "down"
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, resp)
}

// Devices lists the supported device types in presentation order.
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	profiles := h.svc.Detector().Registry().Devices()

	out := make([]deviceResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, deviceResponse{Name: p.Name, Slug: p.Slug, Features: p.RequiredFeatures})
	}
	respondJSON(w, http.StatusOK, out)
}

// Detect classifies an uploaded CSV log. The device is named by the "device" query
// parameter; the log is either the "file" field of a multipart form or the raw body.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	if device == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "device query parameter is required", "")
		return
	}

	data, err := h.readUpload(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), "")
			return
		}
		respondError(w, http.StatusBadRequest, "bad_request", err.Error(), "")
		return
	}

	out, err := h.svc.Detect(r.Context(), device, data)
	if err != nil {
		kind := pipeline.Kind(err)
		var runID string
		if out != nil {
			runID = out.RunID
		}
		respondError(w, statusFor(kind), kind.String(), err.Error(), runID)
		return
	}

	res := out.Result
	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.FileName}))
		w.Header().Set("X-Run-ID", out.RunID)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(res.CSV); err != nil {
			logging.Error().Err(err).Msg("failed to write CSV response")
		}
		return
	}

	respondJSON(w, http.StatusOK, detectResponse{
		RunID:    out.RunID,
		Device:   res.Device,
		FileName: res.FileName,
		Rows:     res.Rows,
	})
}

// DeviceStats returns stored prediction counts for a device over a look-back window.
func (h *Handler) DeviceStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		respondError(w, http.StatusNotFound, "not_found", "run storage is not enabled", "")
		return
	}

	profile, err := h.svc.Detector().Registry().LookupSlug(chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, http.StatusNotFound, pipeline.KindUnknownDevice.String(), err.Error(), "")
		return
	}

	req := statsRequest{Window: 24 * time.Hour}
	if raw := r.URL.Query().Get("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid window %q", raw), "")
			return
		}
		req.Window = d
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "window must be between 1m and 2160h", "")
		return
	}

	since := time.Now().Add(-req.Window).UTC()
	rows, err := h.stats.PredictionCounts(r.Context(), profile.Name, since)
	if err != nil {
		logging.Error().Err(err).Str("device", profile.Name).Msg("failed to read prediction counts")
		respondError(w, http.StatusBadGateway, "storage", "failed to read prediction counts", "")
		return
	}

	counts := make(map[string]int, len(rows))
	for _, c := range rows {
		counts[c.Prediction] = int(c.Rows)
	}
	respondJSON(w, http.StatusOK, statsResponse{Device: profile.Name, Since: since, Counts: counts})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile(uploadField)
	if err != nil {
		return nil, fmt.Errorf("multipart field %q: %w", uploadField, err)
	}
	defer file.Close()

	return io.ReadAll(file)
}

// statusFor maps a failure kind to an HTTP status. Caller mistakes are 4xx,
// model and service faults are 5xx.
func statusFor(kind pipeline.ErrorKind) int {
	switch kind {
	case pipeline.KindUnknownDevice, pipeline.KindInputParse:
		return http.StatusBadRequest
	case pipeline.KindDateTime, pipeline.KindSchemaValidation:
		return http.StatusUnprocessableEntity
	case pipeline.KindCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func wantsCSV(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "text/csv" {
			return true
		}
	}
	return false
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, kind, message, runID string) {
	respondJSON(w, status, errorResponse{
		Error: errorBody{Kind: kind, Message: message},
		RunID: runID,
	})
}
