package interview

import "testing"

func TestTierFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		round int
		want  Tier
	}{
		{round: -1, want: TierBasic},
		{round: 0, want: TierBasic},
		{round: 1, want: TierBasic},
		{round: 3, want: TierBasic},
		{round: 4, want: TierIntermediate},
		{round: 6, want: TierIntermediate},
		{round: 7, want: TierAdvanced},
		{round: 42, want: TierAdvanced},
	}

	for _, tt := range tests {
		got := TierFor(tt.round)
		if got.Tier != tt.want {
			t.Fatalf("TierFor(%d) = %s, want %s", tt.round, got.Tier, tt.want)
		}
		if got.Instruction == "" {
			t.Fatalf("TierFor(%d) returned an empty instruction", tt.round)
		}
	}
}

func TestDecideShift(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		inTopic  int
		dontKnow bool
		want     ShiftDecision
	}{
		{name: "first question", inTopic: 1, want: ShiftDecision{ShouldShift: false, Reason: ShiftNone}},
		{name: "second question", inTopic: 2, want: ShiftDecision{ShouldShift: false, Reason: ShiftNone}},
		{name: "rotation", inTopic: 3, want: ShiftDecision{ShouldShift: true, Reason: ShiftRotation}},
		{name: "beyond limit", inTopic: 5, want: ShiftDecision{ShouldShift: true, Reason: ShiftRotation}},
		{name: "dont know", inTopic: 1, dontKnow: true, want: ShiftDecision{ShouldShift: true, Reason: ShiftDontKnow}},
		{name: "dont know wins over rotation", inTopic: 3, dontKnow: true, want: ShiftDecision{ShouldShift: true, Reason: ShiftDontKnow}},
	}

	for _, tt := range tests {
		if got := DecideShift(tt.inTopic, tt.dontKnow); got != tt.want {
			t.Fatalf("%s: DecideShift(%d, %v) = %+v, want %+v", tt.name, tt.inTopic, tt.dontKnow, got, tt.want)
		}
	}
}
