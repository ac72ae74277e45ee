package grading

import "github.com/B-Eddie/WOSSIB/internal/domain/shared"

// SubjectCount is the number of graded subjects in a full diploma.
const SubjectCount = 6

// MaxBonusPoints is the maximum TOK/EE bonus.
const MaxBonusPoints = 3

// MaxDiplomaScore is the highest attainable total (6x7 + 3 bonus).
const MaxDiplomaScore = SubjectCount*int(MaxLevel) + MaxBonusPoints

// DiplomaResult is the outcome of a full diploma score calculation.
type DiplomaResult struct {
	SubjectTotal int
	Bonus        int
	Total        int
	Awarded      bool
	// Distribution counts how many subjects earned each level.
	Distribution map[Level]int
}

// CalculateDiploma totals six subject levels plus the TOK/EE bonus and
// applies the award rule: total of at least 24, no subject below level 3,
// and a subject sum of at least 12.
func CalculateDiploma(levels [SubjectCount]Level, bonus int) (DiplomaResult, error) {
	for _, lvl := range levels {
		if !lvl.IsValid() {
			return DiplomaResult{}, shared.ErrInvalidLevel
		}
	}
	if bonus < 0 || bonus > MaxBonusPoints {
		return DiplomaResult{}, shared.NewDomainError("grading", "CalculateDiploma",
			shared.ErrValidation, "bonus points must be between 0 and 3")
	}

	result := DiplomaResult{
		Bonus:        bonus,
		Distribution: make(map[Level]int, SubjectCount),
	}
	allAboveFloor := true
	for _, lvl := range levels {
		result.SubjectTotal += lvl.Int()
		result.Distribution[lvl]++
		if lvl < 3 {
			allAboveFloor = false
		}
	}
	result.Total = result.SubjectTotal + bonus
	result.Awarded = result.Total >= 24 && allAboveFloor && result.SubjectTotal >= 12

	return result, nil
}
