package interview

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

// SystemInstruction is sent alongside every turn prompt.
const SystemInstruction = "You are a strict but fair interviewer who adapts follow-up questions based on the candidate's answers. You always answer with a single JSON object."

//go:embed prompt.md
var promptTemplate string

const (
	noContext          = "(no lecture context available)"
	noPreviousQuestion = "(none)"
)

type promptParams struct {
	Context           string
	Question          string
	Answer            string
	PreviousQuestions []string
	NextRound         int
	Difficulty        Difficulty
	Shift             ShiftDecision
	TopicSeed         string
	TopicContext      string
}

func buildPrompt(p promptParams) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Context:\n{{CONTEXT}}\n\nQuestion: {{QUESTION}}\nAnswer: {{ANSWER}}\n\n{{TOPIC_INSTRUCTION}}\n{{DIFFICULTY_INSTRUCTION}}\n\nJSON Response (next_question starts with \"Question {{NEXT_ROUND}}: \"):"
	}

	lectureContext := strings.TrimSpace(p.Context)
	if lectureContext == "" {
		lectureContext = noContext
	}

	previous := noPreviousQuestion
	if len(p.PreviousQuestions) > 0 {
		lines := make([]string, 0, len(p.PreviousQuestions))
		for _, q := range p.PreviousQuestions {
			lines = append(lines, "- "+q)
		}
		previous = strings.Join(lines, "\n")
	}

	replacer := strings.NewReplacer(
		"{{CONTEXT}}", lectureContext,
		"{{QUESTION}}", p.Question,
		"{{ANSWER}}", p.Answer,
		"{{PREVIOUS_QUESTIONS}}", previous,
		"{{TOPIC_INSTRUCTION}}", topicInstruction(p.Shift, p.TopicSeed, p.TopicContext),
		"{{DIFFICULTY_INSTRUCTION}}", p.Difficulty.Instruction,
		"{{NEXT_ROUND}}", strconv.Itoa(p.NextRound),
	)

	return replacer.Replace(template)
}

func topicInstruction(shift ShiftDecision, seed, seedContext string) string {
	var b strings.Builder

	switch shift.Reason {
	case ShiftDontKnow:
		b.WriteString("The candidate does not know this concept. Do not ask about it again; move on to a new topic")
	case ShiftRotation:
		b.WriteString("This topic has been covered enough. Move on to a new topic")
	default:
		return "Ask a follow-up question that digs deeper into the candidate's answer or explores a closely related lecture concept."
	}

	if seed = strings.TrimSpace(seed); seed != "" {
		fmt.Fprintf(&b, " starting from this question: %q", seed)
	}
	b.WriteString(".")

	if seedContext = strings.TrimSpace(seedContext); seedContext != "" {
		b.WriteString("\n   - Lecture context for the new topic:\n")
		b.WriteString(seedContext)
	}

	return b.String()
}
