package service

import (
	"errors"
	"testing"

	"github.com/grupovial/drivetest-backend/internal/model"
)

func TestBuildOptionsRequiresExactlyOneCorrect(t *testing.T) {
	tests := []struct {
		name    string
		correct []bool
		wantErr bool
	}{
		{"one correct", []bool{true, false, false}, false},
		{"none correct", []bool{false, false, false}, true},
		{"two correct", []bool{true, true, false}, true},
		{"all correct", []bool{true, true, true, true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqs := make([]model.CreateOptionRequest, len(tt.correct))
			for i, c := range tt.correct {
				reqs[i] = model.CreateOptionRequest{Text: "opt", IsCorrect: c}
			}

			options, err := buildOptions(reqs)
			if tt.wantErr {
				if !errors.Is(err, ErrOneCorrectOption) {
					t.Fatalf("got %v, want ErrOneCorrectOption", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildOptions: %v", err)
			}
			if len(options) != len(reqs) {
				t.Errorf("len = %d, want %d", len(options), len(reqs))
			}
		})
	}
}
