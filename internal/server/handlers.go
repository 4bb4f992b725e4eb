package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"awesomeml/internal/data"
	"awesomeml/internal/models"

	"github.com/shopspring/decimal"
)

// maxBodyBytes bounds predict payloads.
const maxBodyBytes = 8 << 20

type PredictRequest struct {
	Features [][]decimal.Decimal `json:"features"`
}

type PredictResponse struct {
	Predictions []string `json:"predictions"`
	RequestID   string   `json:"request_id"`
}

type ModelResponse struct {
	Name          string            `json:"name"`
	Classes       []string          `json:"classes"`
	MajorityClass string            `json:"majority_class"`
	OutputWidth   int               `json:"output_width"`
	RunID         string            `json:"run_id,omitempty"`
	Dataset       string            `json:"dataset,omitempty"`
	Accuracy      float64           `json:"accuracy"`
	Parameters    map[string]string `json:"parameters,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req PredictRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.metrics.RecordPredict("bad_request", 0, time.Since(start))
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if len(req.Features) > 0 {
		if err := data.NewDataValidator().ValidateFeatures(req.Features); err != nil {
			s.metrics.RecordPredict("bad_request", 0, time.Since(start))
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	predictions, err := s.bundle.PredictLabels(req.Features)
	if err != nil {
		var notFitted *models.NotFittedError
		if errors.As(err, &notFitted) {
			s.metrics.RecordPredict("unavailable", 0, time.Since(start))
			writeError(w, r, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.metrics.RecordPredict("bad_request", 0, time.Since(start))
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.metrics.RecordPredict("ok", len(predictions), time.Since(start))
	writeJSON(w, http.StatusOK, PredictResponse{Predictions: predictions, RequestID: requestID(r)})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	model := s.bundle.Model
	classes, err := model.Classes()
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	majority, err := model.MajorityClass()
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}

	names, err := s.bundle.DecodeLabels(append(classes, majority))
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	meta := s.bundle.Metadata
	writeJSON(w, http.StatusOK, ModelResponse{
		Name:          model.GetName(),
		Classes:       names[:len(classes)],
		MajorityClass: names[len(classes)],
		OutputWidth:   int(model.OutputWidth()),
		RunID:         meta.RunID,
		Dataset:       meta.Dataset,
		Accuracy:      meta.Accuracy,
		Parameters:    meta.Parameters,
		CreatedAt:     s.bundle.CreatedAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"fitted": strconv.FormatBool(s.bundle.Model.IsFitted()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, RequestID: requestID(r)})
}
