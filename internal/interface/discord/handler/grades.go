package handler

import (
	"context"

	"github.com/B-Eddie/WOSSIB/internal/domain/grading"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/tables"
	"github.com/B-Eddie/WOSSIB/internal/interface/discord/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// GRADE CONVERSION COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

// ConvertRawHandler handles /convert-raw: raw mark to converted percentage.
type ConvertRawHandler struct {
	Tables    *tables.Store
	Presenter *presenter.Presenter
}

func (h *ConvertRawHandler) Name() string { return "convert-raw" }

func (h *ConvertRawHandler) Handle(_ context.Context, cmd Command) (*presenter.Reply, error) {
	mark, err := cmd.Options.Int("mark")
	if err != nil {
		return nil, err
	}
	subject := cmd.Options.String("subject", "")

	converted, err := h.Tables.Convert(mark, subject)
	if err != nil {
		return nil, err
	}
	_, id := h.Tables.TableFor(subject)
	return h.Presenter.Conversion(mark, converted, h.Tables.DisplayName(id)), nil
}

// GradeToPercentHandler handles /grade-to-percent: level to floor percentage.
type GradeToPercentHandler struct {
	Tables    *tables.Store
	Presenter *presenter.Presenter
}

func (h *GradeToPercentHandler) Name() string { return "grade-to-percent" }

func (h *GradeToPercentHandler) Handle(_ context.Context, cmd Command) (*presenter.Reply, error) {
	level, err := cmd.Options.Int("level")
	if err != nil {
		return nil, err
	}
	subject := cmd.Options.String("subject", "")

	pct, err := h.Tables.PercentageFromLevel(grading.Level(level), subject)
	if err != nil {
		return nil, err
	}
	_, id := h.Tables.TableFor(subject)
	return h.Presenter.PercentForLevel(grading.Level(level), pct, h.Tables.DisplayName(id)), nil
}

// PercentToGradeHandler handles /percent-to-grade: percentage to 1-7 level.
type PercentToGradeHandler struct {
	Tables    *tables.Store
	Presenter *presenter.Presenter
}

func (h *PercentToGradeHandler) Name() string { return "percent-to-grade" }

func (h *PercentToGradeHandler) Handle(_ context.Context, cmd Command) (*presenter.Reply, error) {
	pct, err := cmd.Options.Int("percent")
	if err != nil {
		return nil, err
	}
	subject := cmd.Options.String("subject", "")

	level, err := h.Tables.LevelFromPercentage(pct, subject)
	if err != nil {
		return nil, err
	}
	_, id := h.Tables.TableFor(subject)
	return h.Presenter.LevelFromPercentage(pct, level, h.Tables.DisplayName(id)), nil
}

// RawToGradeHandler handles /raw-to-grade: raw mark straight to level, using
// exact table membership when the mark is tabulated.
type RawToGradeHandler struct {
	Tables    *tables.Store
	Presenter *presenter.Presenter
}

func (h *RawToGradeHandler) Name() string { return "raw-to-grade" }

func (h *RawToGradeHandler) Handle(_ context.Context, cmd Command) (*presenter.Reply, error) {
	mark, err := cmd.Options.Int("mark")
	if err != nil {
		return nil, err
	}
	subject := cmd.Options.String("subject", "")

	level, err := h.Tables.LevelFromRaw(mark, subject)
	if err != nil {
		return nil, err
	}
	_, id := h.Tables.TableFor(subject)
	return h.Presenter.LevelFromRaw(mark, level, h.Tables.DisplayName(id)), nil
}

// ShowTableHandler handles /show-conversion-table.
type ShowTableHandler struct {
	Tables    *tables.Store
	Presenter *presenter.Presenter
}

func (h *ShowTableHandler) Name() string { return "show-conversion-table" }

func (h *ShowTableHandler) Handle(_ context.Context, cmd Command) (*presenter.Reply, error) {
	subject := cmd.Options.String("subject", "")
	table, id := h.Tables.TableFor(subject)
	return h.Presenter.ConversionTable(h.Tables.DisplayName(id), table.Points()), nil
}

// ListSubjectsHandler handles /list-subjects.
type ListSubjectsHandler struct {
	Tables    *tables.Store
	Presenter *presenter.Presenter
}

func (h *ListSubjectsHandler) Name() string { return "list-subjects" }

func (h *ListSubjectsHandler) Handle(_ context.Context, _ Command) (*presenter.Reply, error) {
	return h.Presenter.Subjects(h.Tables.Subjects()), nil
}

// CalculateTotalHandler handles /calculate-total: six subject levels plus the
// TOK/EE bonus, with the diploma award rule applied.
type CalculateTotalHandler struct {
	Presenter *presenter.Presenter
}

func (h *CalculateTotalHandler) Name() string { return "calculate-total" }

func (h *CalculateTotalHandler) Handle(_ context.Context, cmd Command) (*presenter.Reply, error) {
	optionNames := [grading.SubjectCount]string{"g1", "g2", "g3", "g4", "g5", "g6"}

	var levels [grading.SubjectCount]grading.Level
	for i, name := range optionNames {
		n, err := cmd.Options.Int(name)
		if err != nil {
			return nil, err
		}
		levels[i] = grading.Level(n)
	}
	bonus, err := cmd.Options.IntOr("bonus", 0)
	if err != nil {
		return nil, err
	}

	result, err := grading.CalculateDiploma(levels, bonus)
	if err != nil {
		return nil, err
	}
	return h.Presenter.DiplomaTotal(result), nil
}
