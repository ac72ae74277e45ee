package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
)

func TestCalculateDiploma(t *testing.T) {
	tests := []struct {
		name        string
		levels      [SubjectCount]Level
		bonus       int
		wantTotal   int
		wantAwarded bool
	}{
		{"comfortable pass", [SubjectCount]Level{6, 5, 5, 4, 4, 3}, 2, 29, true},
		{"exactly on the 24 threshold", [SubjectCount]Level{4, 4, 4, 3, 3, 3}, 3, 24, true},
		{"total too low", [SubjectCount]Level{3, 3, 3, 3, 3, 3}, 0, 18, false},
		{"level 2 blocks the award", [SubjectCount]Level{7, 7, 7, 7, 7, 2}, 3, 40, false},
		{"perfect score", [SubjectCount]Level{7, 7, 7, 7, 7, 7}, 3, MaxDiplomaScore, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateDiploma(tc.levels, tc.bonus)
			require.NoError(t, err)
			assert.Equal(t, tc.wantTotal, got.Total)
			assert.Equal(t, tc.wantAwarded, got.Awarded)
		})
	}
}

func TestCalculateDiploma_Validation(t *testing.T) {
	_, err := CalculateDiploma([SubjectCount]Level{8, 4, 4, 4, 4, 4}, 0)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = CalculateDiploma([SubjectCount]Level{4, 4, 4, 4, 4, 4}, 4)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCalculateDiploma_Distribution(t *testing.T) {
	got, err := CalculateDiploma([SubjectCount]Level{7, 7, 5, 5, 5, 3}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Distribution[7])
	assert.Equal(t, 3, got.Distribution[5])
	assert.Equal(t, 1, got.Distribution[3])
	assert.Equal(t, 32, got.SubjectTotal)
}
