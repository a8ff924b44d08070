package interview

type ShiftReason string

const (
	ShiftNone     ShiftReason = "none"
	ShiftRotation ShiftReason = "rotation"
	ShiftDontKnow ShiftReason = "dont_know"
)

// MaxQuestionsPerTopic is the number of consecutive questions asked on one topic.
const MaxQuestionsPerTopic = 3

type ShiftDecision struct {
	ShouldShift bool
	Reason      ShiftReason
}

// DecideShift tells whether the next question must open a new topic.
// A dont-know verdict always wins over rotation.
func DecideShift(questionsInTopic int, dontKnow bool) ShiftDecision {
	if dontKnow {
		return ShiftDecision{ShouldShift: true, Reason: ShiftDontKnow}
	}
	if questionsInTopic >= MaxQuestionsPerTopic {
		return ShiftDecision{ShouldShift: true, Reason: ShiftRotation}
	}
	return ShiftDecision{ShouldShift: false, Reason: ShiftNone}
}
