package model

import "testing"

func TestAttemptKindParameters(t *testing.T) {
	tests := []struct {
		kind       AttemptKind
		questions  int
		pointValue float64
		limit      int
	}{
		{KindPractice, 20, 5.0, 6},
		{KindFinal, 40, 2.5, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.QuestionCount(); got != tt.questions {
				t.Errorf("QuestionCount() = %d, want %d", got, tt.questions)
			}
			if got := tt.kind.PointValue(); got != tt.pointValue {
				t.Errorf("PointValue() = %v, want %v", got, tt.pointValue)
			}
			if got := tt.kind.AttemptLimit(); got != tt.limit {
				t.Errorf("AttemptLimit() = %d, want %d", got, tt.limit)
			}

			// Either kind fully correct totals exactly 100.
			if total := float64(tt.kind.QuestionCount()) * tt.kind.PointValue(); total != 100.0 {
				t.Errorf("full score = %v, want 100.0", total)
			}
		})
	}
}

func TestAttemptKindValid(t *testing.T) {
	if !KindPractice.Valid() || !KindFinal.Valid() {
		t.Error("known kinds must be valid")
	}
	if AttemptKind("teorico").Valid() {
		t.Error("unknown kind must be invalid")
	}
	if AttemptKind("").Valid() {
		t.Error("empty kind must be invalid")
	}
}
