package interview

type Tier string

const (
	TierBasic        Tier = "basic"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
)

// Difficulty steers how hard the next question should be.
type Difficulty struct {
	Tier        Tier
	Instruction string
}

// TierFor maps a round number to its difficulty: 1-3 basic, 4-6 intermediate, 7+ advanced.
func TierFor(round int) Difficulty {
	switch {
	case round >= 7:
		return Difficulty{
			Tier:        TierAdvanced,
			Instruction: "Ask an advanced question that requires applying or comparing concepts, analysing trade-offs or reasoning about edge cases.",
		}
	case round >= 4:
		return Difficulty{
			Tier:        TierIntermediate,
			Instruction: "Ask an intermediate question that checks understanding of how and why the concept works, not just its definition.",
		}
	default:
		return Difficulty{
			Tier:        TierBasic,
			Instruction: "Ask a basic question about definitions and core ideas that a student who attended the lectures should answer.",
		}
	}
}
