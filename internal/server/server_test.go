package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/server"
)

type stubEngine struct {
	startErr  error
	submitErr error
	answers   []string
	snapshot  interview.Snapshot
	summary   interview.Summary
}

func (s *stubEngine) Start(context.Context) (interview.StartResult, error) {
	if s.startErr != nil {
		return interview.StartResult{}, s.startErr
	}
	return interview.StartResult{SessionID: "abc", Question: "Question 1: What is overfitting?", RoundNumber: 1}, nil
}

func (s *stubEngine) SubmitAnswer(_ context.Context, answer string) (interview.TurnResult, error) {
	s.answers = append(s.answers, answer)
	if s.submitErr != nil {
		return interview.TurnResult{}, s.submitErr
	}
	return interview.TurnResult{
		Score:        4,
		Feedback:     "Good.",
		NextQuestion: "Question 2: What is L2?",
		RoundNumber:  2,
		TotalScore:   4,
		AverageScore: 4,
		ShiftReason:  interview.ShiftNone,
		ContextUsed:  true,
	}, nil
}

func (s *stubEngine) Status() interview.Snapshot { return s.snapshot }

func (s *stubEngine) End() interview.Summary { return s.summary }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := server.New(&stubEngine{}, server.Config{}, nil)
	w := do(t, srv, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestStartInterview(t *testing.T) {
	t.Parallel()

	srv := server.New(&stubEngine{}, server.Config{}, nil)
	w := do(t, srv, http.MethodPost, "/api/start-interview", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	want := map[string]any{
		"status":       "success",
		"session_id":   "abc",
		"question":     "Question 1: What is overfitting?",
		"round_number": float64(1),
	}
	if diff := cmp.Diff(want, decode(t, w)); diff != "" {
		t.Fatalf("unexpected body (-want +got):\n%s", diff)
	}
}

func TestSubmitAnswer(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{}
	srv := server.New(engine, server.Config{}, nil)

	w := do(t, srv, http.MethodPost, "/api/submit-answer", `{"answer":"It memorizes noise"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	if body["next_question"] != "Question 2: What is L2?" || body["average_score"] != float64(4) || body["shift_reason"] != "none" {
		t.Fatalf("unexpected body %v", body)
	}
	if diff := cmp.Diff([]string{"It memorizes noise"}, engine.answers); diff != "" {
		t.Fatalf("unexpected answers (-want +got):\n%s", diff)
	}
}

func TestSubmitAnswerEmptyBody(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{}
	srv := server.New(engine, server.Config{}, nil)

	w := do(t, srv, http.MethodPost, "/api/submit-answer", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(engine.answers) != 1 || engine.answers[0] != "" {
		t.Fatalf("expected empty answer to be forwarded, got %v", engine.answers)
	}
}

func TestSubmitAnswerInvalidJSON(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{}
	srv := server.New(engine, server.Config{}, nil)

	w := do(t, srv, http.MethodPost, "/api/submit-answer", `{"answer":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(engine.answers) != 0 {
		t.Fatalf("engine must not be called")
	}
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "no session", err: interview.ErrNoActiveSession, want: http.StatusBadRequest},
		{name: "malformed", err: fmt.Errorf("%w: missing fields score", interview.ErrMalformedModelOutput), want: http.StatusBadGateway},
		{name: "unavailable", err: fmt.Errorf("%w: %w", interview.ErrModelUnavailable, context.DeadlineExceeded), want: http.StatusBadGateway},
		{name: "unexpected", err: fmt.Errorf("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := server.New(&stubEngine{submitErr: tt.err}, server.Config{}, nil)
			w := do(t, srv, http.MethodPost, "/api/submit-answer", `{"answer":"x"}`)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			if _, ok := decode(t, w)["error"]; !ok {
				t.Fatalf("expected error field in %s", w.Body.String())
			}
		})
	}
}

func TestStartConfigurationError(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{startErr: fmt.Errorf("%w: seed question pool is empty", interview.ErrConfiguration)}
	srv := server.New(engine, server.Config{}, nil)

	w := do(t, srv, http.MethodPost, "/api/start-interview", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestStatusAndEnd(t *testing.T) {
	t.Parallel()

	engine := &stubEngine{
		summary: interview.Summary{TotalRounds: 2, TotalScore: 7, AverageScore: 3.5, History: []interview.Turn{
			{Question: "Question 1: a", Answer: "b", Score: 3, Feedback: "c", ShiftReason: interview.ShiftNone},
			{Question: "Question 2: d", Answer: "e", Score: 4, Feedback: "f", ShiftReason: interview.ShiftNone},
		}},
	}
	srv := server.New(engine, server.Config{}, nil)

	status := decode(t, do(t, srv, http.MethodGet, "/api/interview-status", ""))
	if status["active"] != false || status["current_question"] != "" {
		t.Fatalf("unexpected empty status %v", status)
	}
	if history, ok := status["history"].([]any); !ok || len(history) != 0 {
		t.Fatalf("expected empty history list, got %v", status["history"])
	}

	end := decode(t, do(t, srv, http.MethodPost, "/api/end-interview", ""))
	stats, ok := end["final_stats"].(map[string]any)
	if !ok {
		t.Fatalf("missing final_stats in %v", end)
	}
	if end["status"] != "Interview completed" || stats["total_rounds"] != float64(2) || stats["average_score"] != 3.5 {
		t.Fatalf("unexpected end body %v", end)
	}
	if history := stats["history"].([]any); len(history) != 2 {
		t.Fatalf("expected two turns, got %v", history)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	srv := server.New(&stubEngine{}, server.Config{}, nil)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/start-interview"},
		{http.MethodGet, "/api/submit-answer"},
		{http.MethodPost, "/api/interview-status"},
		{http.MethodDelete, "/api/end-interview"},
	} {
		if w := do(t, srv, tc.method, tc.path, ""); w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: expected 405, got %d", tc.method, tc.path, w.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	srv := server.New(&stubEngine{}, server.Config{AllowedOrigins: []string{"http://localhost:3000"}}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/start-interview", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allowed origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected origin header for foreign origin: %q", got)
	}
}

func TestRequestsAreLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	srv := server.New(&stubEngine{submitErr: interview.ErrNoActiveSession}, server.Config{}, zap.New(core))

	do(t, srv, http.MethodPost, "/api/submit-answer", `{"answer":"x"}`)

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/api/submit-answer" || fields["status"] != int64(http.StatusBadRequest) {
		t.Fatalf("unexpected log fields %v", fields)
	}
}
