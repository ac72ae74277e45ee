// Package presenter formats domain results for Discord display.
// Presenters convert domain objects into message embeds; handlers stay free
// of formatting and the presenter stays free of domain decisions.
package presenter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/B-Eddie/WOSSIB/internal/domain/exam"
	"github.com/B-Eddie/WOSSIB/internal/domain/focus"
	"github.com/B-Eddie/WOSSIB/internal/domain/grading"
	"github.com/B-Eddie/WOSSIB/internal/domain/resource"
	"github.com/B-Eddie/WOSSIB/internal/domain/shared"
	"github.com/B-Eddie/WOSSIB/internal/infrastructure/external/discord"
	"github.com/B-Eddie/WOSSIB/pkg/timeutil"
)

// Embed colors.
const (
	colorGreen  = 0x2ECC71
	colorBlue   = 0x3498DB
	colorYellow = 0xF1C40F
	colorRed    = 0xE74C3C
)

// Reply is what a handler hands back to the dispatch layer.
type Reply struct {
	// Content is plain message text, used when no embed is set.
	Content string

	// Embed is the rich form of the reply.
	Embed *discord.Embed

	// Ephemeral asks the platform to show the reply only to the caller.
	Ephemeral bool
}

// Text builds a plain reply.
func Text(format string, args ...any) *Reply {
	return &Reply{Content: fmt.Sprintf(format, args...)}
}

// Presenter renders domain results.
type Presenter struct{}

// New creates a Presenter.
func New() *Presenter {
	return &Presenter{}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// Error renders a domain error as an ephemeral reply. Known sentinels get a
// friendly message; anything else gets a generic one so internals never leak
// into chat.
func (p *Presenter) Error(err error) *Reply {
	msg := "Something went wrong, please try again."

	var domErr *shared.DomainError
	switch {
	case errors.Is(err, shared.ErrUnauthorized):
		msg = "Only admins can do that."
	case errors.Is(err, shared.ErrCapability):
		msg = "The bot could not complete that with the chat platform. Try again in a moment."
	case errors.As(err, &domErr):
		// Validation, conflict and not-found messages are written for users.
		msg = domErr.Message
	}

	return &Reply{
		Embed:     &discord.Embed{Description: msg, Color: colorRed},
		Ephemeral: true,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS SESSIONS
// ══════════════════════════════════════════════════════════════════════════════

func modeLabel(m focus.Mode) string {
	switch m {
	case focus.ModeStudyGroup:
		return "study group"
	case focus.ModeSubject:
		return "subject focus"
	default:
		return "deep focus"
	}
}

// SessionStarted confirms a new focus session.
func (p *Presenter) SessionStarted(s *focus.Session) *Reply {
	return &Reply{Embed: &discord.Embed{
		Title: "Focus session started",
		Description: fmt.Sprintf("<@%s> is in %s for %d minutes.",
			s.Owner, modeLabel(s.Mode), s.DurationMinutes),
		Fields: []discord.EmbedField{
			{Name: "Ends", Value: timeutil.FormatDateTimeStr(s.EndsAt), Inline: true},
		},
		Color: colorGreen,
	}}
}

// SessionStatus renders the caller's session status.
func (p *Presenter) SessionStatus(r *focus.StatusReport) *Reply {
	return &Reply{
		Embed: &discord.Embed{
			Title: "Focus session status",
			Description: fmt.Sprintf("%d minutes remaining in %s.",
				r.MinutesRemaining, modeLabel(r.Mode)),
			Fields: []discord.EmbedField{
				{Name: "Ends", Value: timeutil.FormatDateTimeStr(r.EndsAt), Inline: true},
			},
			Color: colorBlue,
		},
		Ephemeral: true,
	}
}

// SessionList renders all active sessions, least time remaining first.
func (p *Presenter) SessionList(reports []focus.StatusReport) *Reply {
	if len(reports) == 0 {
		return &Reply{Embed: &discord.Embed{
			Description: "Nobody is in a focus session right now.",
			Color:       colorBlue,
		}}
	}

	var sb strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&sb, "<@%s> - %s, %d min left\n", r.Owner, modeLabel(r.Mode), r.MinutesRemaining)
	}
	return &Reply{Embed: &discord.Embed{
		Title:       fmt.Sprintf("Active focus sessions (%d)", len(reports)),
		Description: sb.String(),
		Color:       colorBlue,
	}}
}

// TerminationRequested acknowledges an early-end request.
func (p *Presenter) TerminationRequested(req *focus.TerminationRequest) *Reply {
	return &Reply{Embed: &discord.Embed{
		Title: "End-session request",
		Description: fmt.Sprintf(
			"<@%s> asked to end <@%s>'s focus session early. An admin can `/confirm-end` or `/refuse-end` within %d seconds.",
			req.RequestedBy, req.Target, int(focus.DefaultRequestTimeout.Seconds())),
		Color: colorYellow,
	}}
}

// TerminationConfirmed reports an admin-approved early end.
func (p *Presenter) TerminationConfirmed(r *focus.TerminationReport) *Reply {
	return &Reply{Embed: &discord.Embed{
		Title: "Focus session ended early",
		Description: fmt.Sprintf("<@%s>'s session ended after %d of %d planned minutes.",
			r.Owner, r.ActualMinutes, r.PlannedMinutes),
		Color: colorGreen,
	}}
}

// TerminationRefused reports a declined early-end request.
func (p *Presenter) TerminationRefused(target focus.OwnerID) *Reply {
	return Text("Request refused. <@%s>'s focus session continues.", target)
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADES
// ══════════════════════════════════════════════════════════════════════════════

// Conversion renders a raw-mark conversion.
func (p *Presenter) Conversion(raw, converted int, subjectName string) *Reply {
	return &Reply{Embed: &discord.Embed{
		Title:       "Grade conversion",
		Description: fmt.Sprintf("Raw mark **%d** in %s converts to **%d%%**.", raw, subjectName, converted),
		Color:       colorBlue,
	}}
}

// LevelFromRaw renders a raw-mark level resolution.
func (p *Presenter) LevelFromRaw(raw int, level grading.Level, subjectName string) *Reply {
	return &Reply{Embed: &discord.Embed{
		Title:       "Grade level",
		Description: fmt.Sprintf("Raw mark **%d** in %s earns **level %d**.", raw, subjectName, level.Int()),
		Color:       colorBlue,
	}}
}

// LevelFromPercentage renders a percentage-to-level resolution.
func (p *Presenter) LevelFromPercentage(pct int, level grading.Level, subjectName string) *Reply {
	return &Reply{Embed: &discord.Embed{
		Title:       "Grade level",
		Description: fmt.Sprintf("**%d%%** in %s is **level %d**.", pct, subjectName, level.Int()),
		Color:       colorBlue,
	}}
}

// PercentForLevel renders a level's floor percentage.
func (p *Presenter) PercentForLevel(level grading.Level, pct int, subjectName string) *Reply {
	return &Reply{Embed: &discord.Embed{
		Title:       "Level threshold",
		Description: fmt.Sprintf("Level %d in %s starts at **%d%%**.", level.Int(), subjectName, pct),
		Color:       colorBlue,
	}}
}

// ConversionTable renders the flattened table for a subject.
func (p *Presenter) ConversionTable(subjectName string, points []grading.Point) *Reply {
	var sb strings.Builder
	sb.WriteString("```\nraw  -> pct\n")
	for _, pt := range points {
		fmt.Fprintf(&sb, "%3d  -> %3d\n", pt.Raw, pt.Converted)
	}
	sb.WriteString("```")

	return &Reply{Embed: &discord.Embed{
		Title:       fmt.Sprintf("Conversion table: %s", subjectName),
		Description: sb.String(),
		Color:       colorBlue,
	}}
}

// Subjects lists the loaded subject IDs.
func (p *Presenter) Subjects(ids []string) *Reply {
	if len(ids) == 0 {
		return Text("No conversion tables are loaded.")
	}
	return &Reply{Embed: &discord.Embed{
		Title:       "Subjects with conversion tables",
		Description: "`" + strings.Join(ids, "`, `") + "`",
		Color:       colorBlue,
	}}
}

// DiplomaTotal renders the diploma calculation.
func (p *Presenter) DiplomaTotal(r grading.DiplomaResult) *Reply {
	verdict := "below the award line"
	color := colorYellow
	if r.Awarded {
		verdict = "meets the award conditions"
		color = colorGreen
	}
	return &Reply{Embed: &discord.Embed{
		Title: "Diploma total",
		Description: fmt.Sprintf("Subjects **%d** + bonus **%d** = **%d/%d** - %s.",
			r.SubjectTotal, r.Bonus, r.Total, grading.MaxDiplomaScore, verdict),
		Color: color,
	}}
}

// ══════════════════════════════════════════════════════════════════════════════
// EXAMS
// ══════════════════════════════════════════════════════════════════════════════

// ExamSet confirms a registered exam.
func (p *Presenter) ExamSet(rec exam.Record) *Reply {
	return &Reply{Embed: &discord.Embed{
		Title: "Exam scheduled",
		Description: fmt.Sprintf("**%s** on %s (%s).",
			rec.DisplayName, timeutil.FormatDateTimeStr(rec.At), timeutil.FormatRelative(rec.At)),
		Footer: &discord.EmbedFooter{Text: "set by " + rec.SetBy},
		Color:  colorGreen,
	}}
}

// ExamRemoved confirms a removal.
func (p *Presenter) ExamRemoved(rec exam.Record) *Reply {
	return Text("Removed **%s** from the exam list.", rec.DisplayName)
}

func formatCountdown(c exam.Countdown) string {
	if c.Started {
		return fmt.Sprintf("**%s** - started or passed", c.Record.DisplayName)
	}
	return fmt.Sprintf("**%s** - %dd %dh %dm (%s)",
		c.Record.DisplayName, c.Days(), c.Hours(), c.Minutes(),
		timeutil.FormatDateTimeStr(c.Record.At))
}

// Countdown renders one exam countdown.
func (p *Presenter) Countdown(c exam.Countdown) *Reply {
	return &Reply{Embed: &discord.Embed{
		Title:       "Exam countdown",
		Description: formatCountdown(c),
		Color:       colorBlue,
	}}
}

// Countdowns renders all exam countdowns, soonest first.
func (p *Presenter) Countdowns(cs []exam.Countdown) *Reply {
	if len(cs) == 0 {
		return Text("No exams scheduled. Enjoy it while it lasts.")
	}
	lines := make([]string, len(cs))
	for i, c := range cs {
		lines[i] = formatCountdown(c)
	}
	return &Reply{Embed: &discord.Embed{
		Title:       "Exam countdowns",
		Description: strings.Join(lines, "\n"),
		Color:       colorBlue,
	}}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESOURCES
// ══════════════════════════════════════════════════════════════════════════════

// ResourceAdded confirms a stored resource.
func (p *Presenter) ResourceAdded(e resource.Entry) *Reply {
	return Text("Added <%s> to **%s** resources.", e.URL, e.Subject)
}

// ResourceOverview renders every subject's resource list.
func (p *Presenter) ResourceOverview(bySubject map[string][]resource.Entry) *Reply {
	if len(bySubject) == 0 {
		return Text("No study resources saved yet. Add one with `/add-resource`.")
	}

	subjects := make([]string, 0, len(bySubject))
	for subject := range bySubject {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	fields := make([]discord.EmbedField, 0, len(subjects))
	for _, subject := range subjects {
		var sb strings.Builder
		for _, e := range bySubject[subject] {
			if e.Description != "" {
				fmt.Fprintf(&sb, "<%s> - %s\n", e.URL, e.Description)
			} else {
				fmt.Fprintf(&sb, "<%s>\n", e.URL)
			}
		}
		fields = append(fields, discord.EmbedField{Name: subject, Value: sb.String()})
	}

	return &Reply{Embed: &discord.Embed{
		Title:  "Study resources",
		Fields: fields,
		Color:  colorBlue,
	}}
}
