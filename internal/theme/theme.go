package theme

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/reminders/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

// HeaderStyle is used for list names.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// SectionStyle is used for sub-heading titles.
var SectionStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	Underline(true)

// ItemStyle is the base style for a reminder line.
var ItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// DoneStyle dims completed reminders.
var DoneStyle = ItemStyle.
	Foreground(ColorGray).
	Strikethrough(true)

// HintStyle is used for secondary details such as dates and ids.
var HintStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// OverdueStyle marks a due date in the past.
var OverdueStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// PriorityStyle returns a color-coded style for the given priority.
func PriorityStyle(priority int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case model.PriorityHigh:
		return base.Foreground(ColorRed)
	case model.PriorityMedium:
		return base.Foreground(ColorOrange)
	case model.PriorityLow:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityMarker renders the priority as one to three bangs.
func PriorityMarker(priority int) string {
	if priority <= model.PriorityNone || priority > model.PriorityHigh {
		return ""
	}
	return PriorityStyle(priority).Render(strings.Repeat("!", priority))
}

// Reminder renders one reminder line.
func Reminder(r model.Reminder, now time.Time) string {
	box := "[ ]"
	style := ItemStyle
	if r.IsCompleted {
		box = "[x]"
		style = DoneStyle
	}

	parts := []string{box}
	if m := PriorityMarker(r.Priority); m != "" {
		parts = append(parts, m)
	}
	parts = append(parts, r.Title)
	line := style.Render(strings.Join(parts, " "))

	var extra []string
	if r.EndDate != nil {
		due := "due " + r.EndDate.Format("2006-01-02 15:04")
		if r.IsOverdue(now) {
			extra = append(extra, OverdueStyle.Render(due))
		} else {
			extra = append(extra, HintStyle.Render(due))
		}
	}
	for _, t := range r.Tags {
		extra = append(extra, HintStyle.Render("#"+t.Name))
	}
	extra = append(extra, HintStyle.Render(r.ID))
	return line + "  " + strings.Join(extra, " ")
}

// List renders a list header.
func List(l model.TaskList) string {
	name := l.Name
	if l.Symbol != "" {
		name = l.Symbol + " " + name
	}
	return HeaderStyle.Render(name) + " " + HintStyle.Render(l.ID)
}

// SubHeading renders a sub-heading title.
func SubHeading(s model.SubHeading) string {
	return "  " + SectionStyle.Render(s.Title) + " " + HintStyle.Render(s.ID)
}

// Render formats v for a terminal. Values without a dedicated layout fall
// back to their %v form.
func Render(v any, now time.Time) string {
	var b strings.Builder
	switch x := v.(type) {
	case model.Reminder:
		b.WriteString(Reminder(x, now))
	case *model.Reminder:
		b.WriteString(Reminder(*x, now))
	case []model.Reminder:
		for i, r := range x {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(Reminder(r, now))
		}
	case model.TaskList:
		b.WriteString(List(x))
	case *model.TaskList:
		b.WriteString(List(*x))
	case []model.TaskList:
		for i, l := range x {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(List(l))
		}
	case model.SubHeading:
		b.WriteString(SubHeading(x))
	case *model.SubHeading:
		b.WriteString(SubHeading(*x))
	case []model.SubHeading:
		for i, s := range x {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(SubHeading(s))
		}
	default:
		fmt.Fprintf(&b, "%v", v)
	}
	return b.String()
}
