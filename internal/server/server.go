// Package server exposes the interview engine over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
)

const maxBodyBytes = 1 << 20

// Interviewer is the part of interview.Engine the API needs.
type Interviewer interface {
	Start(ctx context.Context) (interview.StartResult, error)
	SubmitAnswer(ctx context.Context, answer string) (interview.TurnResult, error)
	Status() interview.Snapshot
	End() interview.Summary
}

type Config struct {
	// AllowedOrigins lists origins allowed by CORS. "*" or an empty list allows any.
	AllowedOrigins []string
}

type Server struct {
	engine Interviewer
	logger *zap.Logger
}

func New(engine Interviewer, cfg Config, log *zap.Logger) http.Handler {
	s := &Server{engine: engine, logger: logger.OrNop(log)}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/start-interview", s.handleStart)
	mux.HandleFunc("/api/submit-answer", s.handleSubmit)
	mux.HandleFunc("/api/interview-status", s.handleStatus)
	mux.HandleFunc("/api/end-interview", s.handleEnd)

	return chainMiddlewares(mux,
		withCORS(cfg.AllowedOrigins),
		withLogging(s.logger),
	)
}

type startResponse struct {
	Status      string `json:"status"`
	SessionID   string `json:"session_id"`
	Question    string `json:"question"`
	RoundNumber int    `json:"round_number"`
}

type submitRequest struct {
	Answer string `json:"answer"`
}

type submitResponse struct {
	Status       string  `json:"status"`
	Score        int     `json:"score"`
	Feedback     string  `json:"feedback"`
	NextQuestion string  `json:"next_question"`
	RoundNumber  int     `json:"round_number"`
	TotalScore   int     `json:"total_score"`
	AverageScore float64 `json:"average_score"`
	TopicShifted bool    `json:"topic_shifted"`
	ShiftReason  string  `json:"shift_reason"`
	WasDontKnow  bool    `json:"was_dont_know"`
	ContextUsed  bool    `json:"context_used"`
}

type statusResponse struct {
	SessionID        string           `json:"session_id,omitempty"`
	Active           bool             `json:"active"`
	CurrentQuestion  string           `json:"current_question"`
	RoundNumber      int              `json:"round_number"`
	TotalScore       int              `json:"total_score"`
	TopicStartRound  int              `json:"topic_start_round"`
	QuestionsInTopic int              `json:"questions_in_topic"`
	History          []interview.Turn `json:"history"`
}

type endResponse struct {
	Status     string     `json:"status"`
	FinalStats finalStats `json:"final_stats"`
}

type finalStats struct {
	SessionID    string           `json:"session_id,omitempty"`
	TotalRounds  int              `json:"total_rounds"`
	TotalScore   int              `json:"total_score"`
	AverageScore float64          `json:"average_score"`
	History      []interview.Turn `json:"history"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	res, err := s.engine.Start(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, startResponse{
		Status:      "success",
		SessionID:   res.SessionID,
		Question:    res.Question,
		RoundNumber: res.RoundNumber,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req submitRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "invalid JSON body")
		return
	}

	res, err := s.engine.SubmitAnswer(r.Context(), req.Answer)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Status:       "success",
		Score:        res.Score,
		Feedback:     res.Feedback,
		NextQuestion: res.NextQuestion,
		RoundNumber:  res.RoundNumber,
		TotalScore:   res.TotalScore,
		AverageScore: res.AverageScore,
		TopicShifted: res.TopicShifted,
		ShiftReason:  string(res.ShiftReason),
		WasDontKnow:  res.WasDontKnow,
		ContextUsed:  res.ContextUsed,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	snap := s.engine.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		SessionID:        snap.SessionID,
		Active:           snap.Active,
		CurrentQuestion:  snap.CurrentQuestion,
		RoundNumber:      snap.RoundNumber,
		TotalScore:       snap.TotalScore,
		TopicStartRound:  snap.TopicStartRound,
		QuestionsInTopic: snap.QuestionsInTopic,
		History:          nonNil(snap.History),
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	summary := s.engine.End()
	writeJSON(w, http.StatusOK, endResponse{
		Status: "Interview completed",
		FinalStats: finalStats{
			SessionID:    summary.SessionID,
			TotalRounds:  summary.TotalRounds,
			TotalScore:   summary.TotalScore,
			AverageScore: summary.AverageScore,
			History:      nonNil(summary.History),
		},
	})
}

func nonNil(history []interview.Turn) []interview.Turn {
	if history == nil {
		return []interview.Turn{}
	}
	return history
}

// writeError maps engine errors to status codes. Details of internal
// failures are logged, not returned.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interview.ErrNoActiveSession):
		badRequest(w, "No active interview session")
	case errors.Is(err, interview.ErrMalformedModelOutput):
		s.logger.Warn("turn failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "model returned an invalid evaluation, please submit the answer again",
		})
	case errors.Is(err, interview.ErrModelUnavailable):
		s.logger.Warn("turn failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "model is unavailable, please submit the answer again",
		})
	case errors.Is(err, interview.ErrConfiguration):
		s.logger.Error("interview misconfigured", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	default:
		internalError(w, s.logger, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, log *zap.Logger, err error) {
	log.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
