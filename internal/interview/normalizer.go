package interview

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	MinScore = 0
	MaxScore = 5
)

// ParsedTurn is a validated model reply.
type ParsedTurn struct {
	Score        int
	Feedback     string
	NextQuestion string

	// RawScore is the score as the model sent it; ScoreClamped is set when it was outside [MinScore, MaxScore].
	RawScore     float64
	ScoreClamped bool
}

// modelOutput is the contract the model is asked to follow.
type modelOutput struct {
	Score        *float64 `mapstructure:"score"`
	Feedback     *string  `mapstructure:"feedback"`
	NextQuestion *string  `mapstructure:"next_question"`
}

// ParseTurnResult decodes and validates raw model output and numbers the
// follow-up question for expectedRound. Every failure wraps ErrMalformedModelOutput.
func ParseTurnResult(raw string, expectedRound int) (ParsedTurn, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return ParsedTurn{}, err
	}

	var out modelOutput
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return ParsedTurn{}, fmt.Errorf("%w: build decoder: %w", ErrMalformedModelOutput, err)
	}

	if err := decoder.Decode(data); err != nil {
		return ParsedTurn{}, fmt.Errorf("%w: %w", ErrMalformedModelOutput, err)
	}

	var missing []string
	if out.Score == nil {
		missing = append(missing, "score")
	}
	if out.Feedback == nil {
		missing = append(missing, "feedback")
	}
	if out.NextQuestion == nil || stripLabel(strings.TrimSpace(*out.NextQuestion)) == "" {
		missing = append(missing, "next_question")
	}
	if len(missing) > 0 {
		return ParsedTurn{}, fmt.Errorf("%w: missing fields %s", ErrMalformedModelOutput, strings.Join(missing, ", "))
	}

	rawScore := *out.Score
	if math.IsNaN(rawScore) || math.IsInf(rawScore, 0) {
		return ParsedTurn{}, fmt.Errorf("%w: score is not a number", ErrMalformedModelOutput)
	}

	score, clamped := clampScore(rawScore)

	return ParsedTurn{
		Score:        score,
		Feedback:     strings.TrimSpace(*out.Feedback),
		NextQuestion: NumberQuestion(*out.NextQuestion, expectedRound),
		RawScore:     rawScore,
		ScoreClamped: clamped,
	}, nil
}

// decodeObject parses raw as a JSON object, falling back to the text between
// the first '{' and the last '}'.
func decodeObject(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err == nil && data != nil {
		return data, nil
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no json object found", ErrMalformedModelOutput)
	}

	data = nil
	if err := json.Unmarshal([]byte(raw[start:end+1]), &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedModelOutput, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: empty json object", ErrMalformedModelOutput)
	}

	return data, nil
}

func clampScore(raw float64) (int, bool) {
	switch {
	case raw < MinScore:
		return MinScore, true
	case raw > MaxScore:
		return MaxScore, true
	default:
		return int(math.Round(raw)), false
	}
}

// QuestionPrefix returns the label every question of the given round starts with.
func QuestionPrefix(round int) string {
	return fmt.Sprintf("Question %d: ", round)
}

// NumberQuestion makes question start with exactly one "Question {round}: " label.
// An existing "Question ...:" label is replaced once. The operation is idempotent.
func NumberQuestion(question string, round int) string {
	question = strings.TrimSpace(question)
	prefix := QuestionPrefix(round)

	if strings.HasPrefix(question, prefix) {
		return question
	}

	return prefix + stripLabel(question)
}

// stripLabel removes a leading "Question ...:" label up to the first colon.
func stripLabel(question string) string {
	if !strings.HasPrefix(question, "Question") {
		return question
	}
	idx := strings.Index(question, ":")
	if idx == -1 {
		return question
	}
	return strings.TrimSpace(question[idx+1:])
}
