package interview

import (
	"math"
	"time"
)

// Turn is one answered question. It is never modified after it is recorded.
type Turn struct {
	Question    string      `json:"question"`
	Answer      string      `json:"answer"`
	Score       int         `json:"score"`
	Feedback    string      `json:"feedback"`
	WasDontKnow bool        `json:"was_dont_know"`
	ShiftReason ShiftReason `json:"shift_reason"`
}

// Session is the live interview. An empty CurrentQuestion means no session is active.
type Session struct {
	ID               string
	CurrentQuestion  string
	RoundNumber      int
	TotalScore       int
	History          []Turn
	TopicStartRound  int
	QuestionsInTopic int
	TopicSeed        string
	StartedAt        time.Time
}

func (s *Session) Active() bool {
	return s.CurrentQuestion != ""
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		SessionID:        s.ID,
		Active:           s.Active(),
		CurrentQuestion:  s.CurrentQuestion,
		RoundNumber:      s.RoundNumber,
		TotalScore:       s.TotalScore,
		TopicStartRound:  s.TopicStartRound,
		QuestionsInTopic: s.QuestionsInTopic,
		History:          cloneHistory(s.History),
	}
}

// StartResult is returned by Engine.Start.
type StartResult struct {
	SessionID   string
	Question    string
	RoundNumber int
}

// TurnResult is returned by Engine.SubmitAnswer.
type TurnResult struct {
	Score        int
	Feedback     string
	NextQuestion string
	RoundNumber  int
	TotalScore   int
	// AverageScore is the mean over completed turns, rounded to 2 decimals.
	AverageScore float64
	TopicShifted bool
	ShiftReason  ShiftReason
	WasDontKnow  bool
	// ContextUsed is false when the answer was evaluated without lecture context.
	ContextUsed bool
}

// Snapshot is a consistent read-only copy of the session.
type Snapshot struct {
	SessionID        string
	Active           bool
	CurrentQuestion  string
	RoundNumber      int
	TotalScore       int
	TopicStartRound  int
	QuestionsInTopic int
	History          []Turn
}

// Summary is returned by Engine.End.
type Summary struct {
	SessionID    string
	TotalRounds  int
	TotalScore   int
	AverageScore float64
	History      []Turn
}

func cloneHistory(history []Turn) []Turn {
	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
