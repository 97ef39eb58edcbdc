// File: internal/control/handlers.go
package control

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formpilot-cli/api/schemas"
	"github.com/xkilldash9x/formpilot-cli/internal/orchestrator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RegisterRoutes mounts the HTTP API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", s.HandleHealthCheck)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/command", s.HandleCommand)
	})
}

// HandleHealthCheck confirms the server is responsive.
func (s *Server) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleCommand dispatches a command request.
func (s *Server) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	s.logger.Info("Received command", zap.String("command", req.Command))

	switch strings.ToLower(req.Command) {
	case "analyze":
		s.handleAnalyze(w, r)
	case "fill":
		s.handleFill(w, r, req.Params)
	case "form_data":
		s.handleFormData(w, r)
	case "ping":
		s.respondWithSuccess(w, http.StatusOK, "pong", nil)
	default:
		s.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	snap, err := s.runner.Analyze(r.Context())
	if err != nil {
		s.respondWithRunError(w, err)
		return
	}
	s.respondWithSuccess(w, http.StatusOK, fmt.Sprintf("Found %d questions.", len(snap.Questions)), s.formData())
}

func (s *Server) handleFormData(w http.ResponseWriter, r *http.Request) {
	if s.runner.LastSnapshot() == nil && !s.runner.Busy() {
		if _, err := s.runner.Analyze(r.Context()); err != nil {
			s.respondWithRunError(w, err)
			return
		}
	}
	s.respondWithSuccess(w, http.StatusOK, "", s.formData())
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request, paramsMap map[string]interface{}) {
	params, err := mapToStruct[FillParams](paramsMap)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid parameters for fill: %v", err))
		return
	}
	if s.runner.Busy() {
		s.respondWithRunError(w, orchestrator.ErrBusy)
		return
	}

	if params.Wait {
		summary, err := s.runner.Fill(r.Context(), params.OnlyUnanswered)
		if err != nil {
			s.respondWithRunError(w, err)
			return
		}
		s.respondWithSuccess(w, http.StatusOK, orchestrator.StatusMessage(summary, nil), summary)
		return
	}

	// The run outlives the request; it is bound to the server lifetime.
	ctx := s.baseContext()
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		summary, err := s.runner.Fill(ctx, params.OnlyUnanswered)
		if err != nil {
			s.logger.Warn("Background fill ended with an error.", zap.Error(err))
			return
		}
		s.logger.Info("Background fill finished.", zap.String("status", orchestrator.StatusMessage(summary, nil)))
	}()
	s.respondWithStatus(w, http.StatusAccepted, CommandResponse{Status: "accepted", Message: "Fill started."})
}

func (s *Server) formData() FormData {
	fd := FormData{
		Snapshot: s.runner.LastSnapshot(),
		Busy:     s.runner.Busy(),
		LastRun:  s.runner.LastSummary(),
	}
	if fd.Snapshot != nil {
		fd.Count = len(fd.Snapshot.Questions)
		fd.Unanswered = len(fd.Snapshot.Unanswered())
	}
	return fd
}

// mapToStruct converts loosely typed params into T via a JSON round trip.
func mapToStruct[T any](m map[string]interface{}) (T, error) {
	var result T
	if m == nil {
		return result, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return result, err
	}
	err = json.Unmarshal(data, &result)
	return result, err
}

// respondWithRunError maps orchestrator errors to status codes and the same
// status strings the CLI prints.
func (s *Server) respondWithRunError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, orchestrator.ErrBusy):
		code = http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusServiceUnavailable
	}
	s.respondWithError(w, code, orchestrator.StatusMessage(schemas.RunSummary{}, err))
}

func (s *Server) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	s.respondWithStatus(w, statusCode, CommandResponse{Status: "error", Error: message})
}

func (s *Server) respondWithSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	s.respondWithStatus(w, statusCode, CommandResponse{Status: "success", Message: message, Data: data})
}

func (s *Server) respondWithStatus(w http.ResponseWriter, statusCode int, resp CommandResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
