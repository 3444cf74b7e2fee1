// Package cli renders dashboard panels for the terminal.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/alem-hub/reboot-profile/internal/application/query"
	"github.com/alem-hub/reboot-profile/internal/domain/progress"
	"github.com/alem-hub/reboot-profile/internal/domain/session"
	"github.com/alem-hub/reboot-profile/internal/interface/charts"
	"github.com/alem-hub/reboot-profile/pkg/timeutil"
)

const (
	panelWidth = 36
	barWidth   = 20
)

type styles struct {
	panel lipgloss.Style
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	good  lipgloss.Style
	bad   lipgloss.Style
	warn  lipgloss.Style
	muted lipgloss.Style
}

func newStyles(r *lipgloss.Renderer, color bool) styles {
	s := styles{
		panel: r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(panelWidth),
		title: r.NewStyle().Bold(true),
		label: r.NewStyle(),
		value: r.NewStyle().Bold(true),
		good:  r.NewStyle(),
		bad:   r.NewStyle(),
		warn:  r.NewStyle(),
		muted: r.NewStyle(),
	}
	if !color {
		return s
	}
	s.panel = s.panel.BorderForeground(lipgloss.Color(charts.ColorPrimary))
	s.title = s.title.Foreground(lipgloss.Color(charts.ColorPrimary))
	s.label = s.label.Foreground(lipgloss.Color(charts.ColorSecondary))
	s.good = s.good.Foreground(lipgloss.Color(charts.ColorPassed))
	s.bad = s.bad.Foreground(lipgloss.Color(charts.ColorFailed))
	s.warn = s.warn.Foreground(lipgloss.Color(charts.ColorInProgress))
	s.muted = s.muted.Foreground(lipgloss.Color(charts.ColorMuted))
	return s
}

// Presenter writes dashboards and session details to a terminal.
type Presenter struct {
	out   io.Writer
	st    styles
	loc   *time.Location
	color bool
}

// NewPresenter creates a presenter for out. Colour is used only when out is
// a terminal and NO_COLOR is unset.
func NewPresenter(out io.Writer, loc *time.Location) *Presenter {
	return NewPresenterWithColor(out, loc, IsTerminal(out) && os.Getenv("NO_COLOR") == "")
}

// NewPresenterWithColor creates a presenter with colour forced on or off.
func NewPresenterWithColor(out io.Writer, loc *time.Location, color bool) *Presenter {
	if loc == nil {
		loc = timeutil.Campus()
	}
	return &Presenter{
		out:   out,
		st:    newStyles(lipgloss.NewRenderer(out), color),
		loc:   loc,
		color: color,
	}
}

// Color reports whether the presenter emits colour.
func (p *Presenter) Color() bool {
	return p.color
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// Success prints a confirmation line.
func (p *Presenter) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.st.good.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (p *Presenter) Error(format string, args ...any) {
	fmt.Fprintln(p.out, p.st.bad.Render(fmt.Sprintf(format, args...)))
}

// Session prints the stored session.
func (p *Presenter) Session(s *session.Session, now time.Time) {
	rows := []string{
		p.st.title.Render("Session"),
		p.row("Login", s.Login),
		p.row("User ID", fmt.Sprint(s.UserID)),
		p.row("Signed in", humanize.RelTime(s.CreatedAt, now, "ago", "from now")),
		p.row("Expires", humanize.RelTime(s.ExpiresAt, now, "ago", "from now")),
	}
	fmt.Fprintln(p.out, p.st.panel.Render(strings.Join(rows, "\n")))
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

// Dashboard prints every panel. Failed panels show "Error".
func (p *Presenter) Dashboard(d *query.Dashboard) {
	top := lipgloss.JoinHorizontal(lipgloss.Top, p.profilePanel(d), p.xpPanel(d))
	mid := lipgloss.JoinHorizontal(lipgloss.Top, p.auditPanel(d), p.projectPanel(d))
	fmt.Fprintln(p.out, lipgloss.JoinVertical(lipgloss.Left, top, mid, p.skillsPanel(d)))
	fmt.Fprintln(p.out, p.st.muted.Render("Updated "+timeutil.FormatDate(d.GeneratedAt, p.loc)+" "+d.GeneratedAt.In(p.loc).Format("15:04")))
}

func (p *Presenter) row(label, value string) string {
	return p.st.label.Render(fmt.Sprintf("%-12s", label)) + p.st.value.Render(value)
}

func (p *Presenter) errorRow(label string) string {
	return p.st.label.Render(fmt.Sprintf("%-12s", label)) + p.st.bad.Render("Error")
}

func (p *Presenter) profilePanel(d *query.Dashboard) string {
	rows := []string{p.st.title.Render("Profile"), p.row("Login", d.User.Login)}
	if d.User.Email != "" {
		rows = append(rows, p.row("Email", d.User.Email))
	}
	rows = append(rows, p.row("User ID", fmt.Sprint(d.User.ID)))

	if d.Level.Err != nil {
		rows = append(rows, p.errorRow("Level"))
	} else {
		rows = append(rows, p.row("Level", fmt.Sprint(d.Level.Level)))
	}

	switch {
	case d.Grade.Err != nil:
		rows = append(rows, p.errorRow("Avg grade"))
	case !d.Grade.Graded:
		rows = append(rows, p.row("Avg grade", "N/A"))
	default:
		rows = append(rows, p.row("Avg grade", fmt.Sprintf("%.1f%%", d.Grade.Percent)))
	}
	return p.st.panel.Render(strings.Join(rows, "\n"))
}

func (p *Presenter) xpPanel(d *query.Dashboard) string {
	rows := []string{p.st.title.Render("XP")}
	if d.XP.Err != nil {
		rows = append(rows, p.errorRow("Total"))
		return p.st.panel.Render(strings.Join(rows, "\n"))
	}
	rows = append(rows,
		p.row("Total", charts.FormatXP(d.XP.Total)),
		p.row("Today", charts.FormatXP(d.XP.Today)),
		p.row("Last 7 days", charts.FormatXP(d.XP.Week)),
		p.row("Txns", humanize.Comma(int64(d.XP.Count))),
	)
	for i, pr := range d.XP.ByProject {
		if i == 3 {
			break
		}
		rows = append(rows, p.st.muted.Render(fmt.Sprintf("  %-18s %s", truncate(pr.Label, 18), charts.FormatXP(pr.Amount))))
	}
	return p.st.panel.Render(strings.Join(rows, "\n"))
}

func (p *Presenter) auditPanel(d *query.Dashboard) string {
	rows := []string{p.st.title.Render("Audits")}
	if d.Audits.Err != nil {
		rows = append(rows, p.errorRow("Ratio"))
		return p.st.panel.Render(strings.Join(rows, "\n"))
	}
	rows = append(rows,
		p.row("Ratio", charts.FormatRatio(d.Audits.Ratio)),
		p.row("Done", charts.FormatXP(d.Audits.Up)),
		p.row("Received", charts.FormatXP(d.Audits.Down)),
	)
	for _, s := range progress.AuditStatuses {
		if d.Audits.Breakdown.Count(s) == 0 {
			continue
		}
		rows = append(rows, fmt.Sprintf("  %-12s %3d %6s",
			charts.AuditLabel(s), d.Audits.Breakdown.Count(s), charts.FormatShare(d.Audits.Breakdown.Percent(s), d.Audits.Breakdown.Total)))
	}
	return p.st.panel.Render(strings.Join(rows, "\n"))
}

func (p *Presenter) projectPanel(d *query.Dashboard) string {
	rows := []string{p.st.title.Render("Projects")}
	if d.Projects.Err != nil {
		rows = append(rows, p.errorRow("Passed"))
	} else {
		c := d.Projects.ProjectCounts
		rows = append(rows,
			p.st.label.Render(fmt.Sprintf("%-12s", "Passed"))+p.st.good.Render(fmt.Sprint(c.Passed)),
			p.st.label.Render(fmt.Sprintf("%-12s", "In progress"))+p.st.warn.Render(fmt.Sprint(c.InProgress)),
			p.st.label.Render(fmt.Sprintf("%-12s", "Failed"))+p.st.bad.Render(fmt.Sprint(c.Failed)),
			p.row("Complete", fmt.Sprintf("%.0f%%", c.CompletionPercent())),
		)
	}
	if d.PassFail.Err != nil {
		rows = append(rows, p.errorRow("Pass rate"))
	} else {
		rows = append(rows, p.row("Pass rate", fmt.Sprintf("%.0f%%", d.PassFail.PassRate())))
	}
	return p.st.panel.Render(strings.Join(rows, "\n"))
}

func (p *Presenter) skillsPanel(d *query.Dashboard) string {
	rows := []string{p.st.title.Render("Top skills")}
	switch {
	case d.Skills.Err != nil:
		rows = append(rows, p.st.bad.Render("Error loading skills"))
	case len(d.Skills.Skills) == 0:
		rows = append(rows, p.st.muted.Render("No skills data available"))
	}
	for _, s := range d.Skills.Skills {
		rows = append(rows, fmt.Sprintf("%-14s %s %3.0f%%", truncate(s.Name, 14), bar(s.Amount), s.Amount))
	}
	return p.st.panel.Width(2*(panelWidth+2) - 2).Render(strings.Join(rows, "\n"))
}

// bar draws a 0-100 value as a fixed-width gauge.
func bar(pct float64) string {
	n := int(pct / 100 * barWidth)
	n = min(max(n, 0), barWidth)
	return strings.Repeat("█", n) + strings.Repeat("░", barWidth-n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
