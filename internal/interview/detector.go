package interview

import "strings"

// DontKnowDetector classifies answers that express lack of knowledge.
type DontKnowDetector interface {
	Detect(answer string) bool
}

const dontKnowMaxWords = 10

var dontKnowPhrases = []string{
	"i don't know",
	"i dont know",
	"i do not know",
	"don't know",
	"dont know",
	"not sure",
	"no idea",
	"no clue",
	"not certain",
	"unsure",
	"can't remember",
	"cant remember",
	"cannot remember",
	"don't remember",
	"do not remember",
	"not familiar",
	"never heard of",
	"beats me",
	"dunno",
	"idk",
	"haven't learned",
	"have not learned",
	"no answer",
	"i forgot",
	"i give up",
}

// PhraseDetector matches short answers against canonical phrases.
// Longer answers only match when they are exactly a phrase.
type PhraseDetector struct {
	phrases  []string
	maxWords int
}

func NewPhraseDetector() *PhraseDetector {
	return &PhraseDetector{phrases: dontKnowPhrases, maxWords: dontKnowMaxWords}
}

func (d *PhraseDetector) Detect(answer string) bool {
	normalized := normalizeForDetection(answer)
	if normalized == "" {
		return false
	}

	if len(strings.Fields(normalized)) <= d.maxWords {
		for _, phrase := range d.phrases {
			if strings.Contains(normalized, phrase) {
				return true
			}
		}
	}

	for _, phrase := range d.phrases {
		switch normalized {
		case phrase, phrase + ".", phrase + "...":
			return true
		}
	}

	return false
}

func normalizeForDetection(answer string) string {
	answer = strings.ToLower(strings.TrimSpace(answer))
	return strings.NewReplacer("’", "'", "‘", "'").Replace(answer)
}

const noAnswerPlaceholder = "No answer provided."

// NormalizeAnswer substitutes a placeholder for blank answers.
func NormalizeAnswer(answer string) string {
	if strings.TrimSpace(answer) == "" {
		return noAnswerPlaceholder
	}
	return strings.TrimSpace(answer)
}
