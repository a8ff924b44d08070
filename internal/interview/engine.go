// Package interview runs adaptive mock interviews: it scores answers, keeps
// topic continuity and asks numbered, context-grounded follow-up questions.
package interview

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/retrieval"
)

const defaultMaxLogLength = 200

// SeedStore supplies the pool of topic-opening questions.
type SeedStore interface {
	LoadAll(ctx context.Context) ([]string, error)
}

// Retriever looks up lecture context. It must not fail; see retrieval.Adapter.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) []retrieval.Passage
}

// Config tunes the engine.
type Config struct {
	TopK             int
	RetrievalTimeout time.Duration
	ModelTimeout     time.Duration
	MaxLogLength     int
}

// Deps aggregates the engine collaborators. Model and Seeds are required.
type Deps struct {
	Model     ai.Model
	Retriever Retriever
	Seeds     SeedStore
	Detector  DontKnowDetector
	Logger    *zap.Logger
}

// Engine owns a single interview session.
//
// turnMu serializes Start, SubmitAnswer and End so that a turn is one atomic
// read-modify-write. mu guards the session record itself and is only held
// for copying and committing, so Status is never blocked by model calls.
type Engine struct {
	cfg  Config
	deps Deps
	log  *zap.Logger

	turnMu sync.Mutex
	seeds  []string

	mu      sync.RWMutex
	session Session

	pick  func(n int) int
	now   func() time.Time
	newID func() string
}

func NewEngine(cfg Config, deps Deps) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = retrieval.DefaultTopK
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}
	if deps.Detector == nil {
		deps.Detector = NewPhraseDetector()
	}
	if deps.Retriever == nil {
		deps.Retriever = retrieval.NewAdapter(nil, retrieval.AdapterConfig{}, deps.Logger)
	}

	return &Engine{
		cfg:   cfg,
		deps:  deps,
		log:   logger.OrNop(deps.Logger),
		pick:  rand.IntN,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Start discards any current session and opens a new one with a random seed question.
func (e *Engine) Start(ctx context.Context) (StartResult, error) {
	e.turnMu.Lock()
	defer e.turnMu.Unlock()

	seeds, err := e.loadSeeds(ctx)
	if err != nil {
		e.log.Error("loading seed questions", zap.Error(err))
		return StartResult{}, err
	}

	seed := seeds[e.pick(len(seeds))]
	session := Session{
		ID:               e.newID(),
		CurrentQuestion:  NumberQuestion(seed, 1),
		RoundNumber:      1,
		TopicStartRound:  1,
		QuestionsInTopic: 1,
		TopicSeed:        seed,
		StartedAt:        e.now(),
	}

	e.mu.Lock()
	previous := e.session.ID
	e.session = session
	e.mu.Unlock()

	e.seeds = seeds

	fields := logger.SessionFields(session.ID, session.RoundNumber)
	if previous != "" {
		fields = append(fields, zap.String("replaced_session_id", previous))
	}
	e.log.Info("interview started", append(fields, zap.Int("seed_pool", len(seeds)))...)

	return StartResult{
		SessionID:   session.ID,
		Question:    session.CurrentQuestion,
		RoundNumber: session.RoundNumber,
	}, nil
}

func (e *Engine) loadSeeds(ctx context.Context) ([]string, error) {
	if e.deps.Seeds == nil {
		return nil, fmt.Errorf("%w: seed store is not configured", ErrConfiguration)
	}

	loaded, err := e.deps.Seeds.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load seed questions: %w", ErrConfiguration, err)
	}

	seeds := make([]string, 0, len(loaded))
	for _, seed := range loaded {
		if seed = strings.TrimSpace(seed); seed != "" {
			seeds = append(seeds, seed)
		}
	}

	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: seed question pool is empty", ErrConfiguration)
	}

	return seeds, nil
}

// SubmitAnswer scores the answer to the current question and moves the
// session to the next round. On any error the session is left untouched, so
// the same answer can be submitted again.
func (e *Engine) SubmitAnswer(ctx context.Context, answer string) (TurnResult, error) {
	e.turnMu.Lock()
	defer e.turnMu.Unlock()

	e.mu.RLock()
	current := e.session.snapshot()
	topicSeed := e.session.TopicSeed
	e.mu.RUnlock()

	if !current.Active {
		return TurnResult{}, ErrNoActiveSession
	}

	log := e.log.With(logger.SessionFields(current.SessionID, current.RoundNumber)...)

	dontKnow := e.deps.Detector.Detect(answer)
	decision := DecideShift(current.QuestionsInTopic, dontKnow)
	nextRound := current.RoundNumber + 1
	difficulty := TierFor(nextRound)
	promptAnswer := NormalizeAnswer(answer)

	log.Debug("processing answer",
		zap.Int("questions_in_topic", current.QuestionsInTopic),
		zap.Bool("dont_know", dontKnow),
		zap.String("shift_reason", string(decision.Reason)),
		zap.String("difficulty", string(difficulty.Tier)),
		zap.String("answer_preview", logger.TruncateForLog(answer, e.cfg.MaxLogLength)),
	)

	query := promptAnswer
	if strings.TrimSpace(answer) == "" || dontKnow {
		query = current.CurrentQuestion
	}
	passages := e.retrieve(ctx, query)

	params := promptParams{
		Context:           retrieval.JoinContext(passages),
		Question:          current.CurrentQuestion,
		Answer:            promptAnswer,
		PreviousQuestions: previousQuestions(current.History),
		NextRound:         nextRound,
		Difficulty:        difficulty,
		Shift:             decision,
	}

	if decision.ShouldShift {
		topicSeed = e.seeds[e.pick(len(e.seeds))]
		params.TopicSeed = topicSeed
		params.TopicContext = retrieval.JoinContext(e.retrieve(ctx, topicSeed))
	}

	prompt := buildPrompt(params)

	log.Debug("model request",
		zap.String("model", e.deps.Model.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, e.cfg.MaxLogLength)),
	)

	raw, err := e.complete(ctx, prompt)
	if err != nil {
		log.Warn("model call failed", zap.Error(err))
		return TurnResult{}, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	parsed, err := ParseTurnResult(raw, nextRound)
	if err != nil {
		log.Warn("model output rejected",
			zap.Error(err),
			zap.String("response_preview", logger.TruncateForLog(raw, e.cfg.MaxLogLength)),
		)
		return TurnResult{}, err
	}

	if parsed.ScoreClamped {
		log.Warn("model score out of range, clamped",
			zap.Float64("raw_score", parsed.RawScore),
			zap.Int("score", parsed.Score),
		)
	}

	turn := Turn{
		Question:    current.CurrentQuestion,
		Answer:      answer,
		Score:       parsed.Score,
		Feedback:    parsed.Feedback,
		WasDontKnow: dontKnow,
		ShiftReason: decision.Reason,
	}

	e.mu.Lock()
	s := &e.session
	s.History = append(s.History, turn)
	s.TotalScore += turn.Score
	s.RoundNumber = nextRound
	s.CurrentQuestion = parsed.NextQuestion
	if decision.ShouldShift {
		s.TopicStartRound = nextRound
		s.QuestionsInTopic = 1
		s.TopicSeed = topicSeed
	} else {
		s.QuestionsInTopic++
	}
	result := TurnResult{
		Score:        turn.Score,
		Feedback:     turn.Feedback,
		NextQuestion: s.CurrentQuestion,
		RoundNumber:  s.RoundNumber,
		TotalScore:   s.TotalScore,
		AverageScore: round2(float64(s.TotalScore) / float64(s.RoundNumber-1)),
		TopicShifted: decision.ShouldShift,
		ShiftReason:  decision.Reason,
		WasDontKnow:  dontKnow,
		ContextUsed:  !retrieval.IsFallback(passages),
	}
	e.mu.Unlock()

	log.Info("answer evaluated",
		zap.Int("score", result.Score),
		zap.Int("next_round", result.RoundNumber),
		zap.Bool("topic_shifted", result.TopicShifted),
		zap.String("shift_reason", string(result.ShiftReason)),
	)

	return result, nil
}

func (e *Engine) retrieve(ctx context.Context, query string) []retrieval.Passage {
	if e.cfg.RetrievalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RetrievalTimeout)
		defer cancel()
	}
	return e.deps.Retriever.Retrieve(ctx, query, e.cfg.TopK)
}

func (e *Engine) complete(ctx context.Context, prompt string) (string, error) {
	if e.deps.Model == nil {
		return "", errors.New("model is not configured")
	}
	if e.cfg.ModelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.ModelTimeout)
		defer cancel()
	}
	return e.deps.Model.Complete(ctx, prompt, SystemInstruction)
}

func previousQuestions(history []Turn) []string {
	questions := make([]string, 0, len(history))
	for _, t := range history {
		questions = append(questions, t.Question)
	}
	return questions
}

// Status returns a consistent copy of the session. It is valid in any state.
func (e *Engine) Status() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.snapshot()
}

// End summarizes the session and resets the engine to the empty state.
func (e *Engine) End() Summary {
	e.turnMu.Lock()
	defer e.turnMu.Unlock()

	e.mu.Lock()
	s := e.session
	e.session = Session{}
	e.mu.Unlock()

	e.seeds = nil

	totalRounds := max(0, s.RoundNumber-1)
	summary := Summary{
		SessionID:    s.ID,
		TotalRounds:  totalRounds,
		TotalScore:   s.TotalScore,
		AverageScore: round2(float64(s.TotalScore) / float64(max(1, totalRounds))),
		History:      cloneHistory(s.History),
	}

	e.log.Info("interview ended",
		append(logger.SessionFields(s.ID, s.RoundNumber),
			zap.Int("total_rounds", summary.TotalRounds),
			zap.Int("total_score", summary.TotalScore),
			zap.Float64("average_score", summary.AverageScore),
		)...,
	)

	return summary
}
