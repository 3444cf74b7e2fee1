package http

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/alem-hub/reboot-profile/internal/application/query"
	"github.com/alem-hub/reboot-profile/internal/domain/progress"
	"github.com/alem-hub/reboot-profile/internal/interface/charts"
	"github.com/alem-hub/reboot-profile/pkg/timeutil"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// panelError is what a failed panel shows in place of its value.
const panelError = "Error"

// ══════════════════════════════════════════════════════════════════════════════
// CHART TABS
// ══════════════════════════════════════════════════════════════════════════════

// Chart names served under /charts/{name}.svg.
const (
	ChartXP          = "xp"
	ChartAudit       = "audit"
	ChartProjects    = "projects"
	ChartSkills      = "skills"
	ChartXPProjects  = "xp-projects"
	ChartPassFail    = "pass-fail"
	ChartAuditRatio  = "audit-ratio"
	DefaultChartName = ChartXP
)

type tab struct {
	Name   string
	Label  string
	Active bool
}

var tabOrder = []tab{
	{Name: ChartXP, Label: "XP Progress"},
	{Name: ChartAudit, Label: "Audits"},
	{Name: ChartProjects, Label: "Projects"},
	{Name: ChartSkills, Label: "Skills"},
}

// ActiveTab maps the ?chart= value to a tab, falling back to the XP chart.
func ActiveTab(raw string) string {
	for _, t := range tabOrder {
		if t.Name == raw {
			return raw
		}
	}
	return DefaultChartName
}

func tabsFor(active string) []tab {
	out := make([]tab, len(tabOrder))
	for i, t := range tabOrder {
		t.Active = t.Name == active
		out[i] = t
	}
	return out
}

// renderChart draws a named chart from an assembled dashboard. A failed panel
// renders an error placeholder.
func renderChart(name string, d *query.Dashboard, loc *time.Location) (string, bool) {
	failed := func(what string) string {
		return charts.Placeholder(400, 200, "Error loading "+what)
	}

	switch name {
	case ChartXP:
		if d.XP.Err != nil {
			return failed("XP data"), true
		}
		return charts.XPLine(d.XP.Series, loc), true
	case ChartXPProjects:
		if d.XP.Err != nil {
			return failed("XP data"), true
		}
		return charts.XPByProjectBars(d.XP.ByProject), true
	case ChartAudit:
		if d.Audits.Err != nil {
			return failed("audit data"), true
		}
		return charts.AuditPie(d.Audits.Breakdown), true
	case ChartAuditRatio:
		if d.Audits.Err != nil {
			return failed("audit data"), true
		}
		return charts.AuditRatioRing(d.Audits.Up, d.Audits.Down), true
	case ChartProjects:
		if d.Projects.Err != nil {
			return failed("projects"), true
		}
		return charts.ProjectDonut(d.Projects.ProjectCounts), true
	case ChartPassFail:
		if d.PassFail.Err != nil {
			return failed("results"), true
		}
		return charts.PassFailRing(d.PassFail.PassFailCounts), true
	case ChartSkills:
		if d.Skills.Err != nil {
			return failed("skills chart"), true
		}
		return charts.SkillsRadar(d.Skills.Skills), true
	default:
		return "", false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PAGE MODELS
// ══════════════════════════════════════════════════════════════════════════════

type loginPage struct {
	Identifier string
	Error      string
	Notice     string
}

type dashboardPage struct {
	Error       string
	TabsEnabled bool
	Tabs        []tab
	ActiveChart string
	Chart       template.HTML
	Side        []template.HTML
	Profile     *profileView
}

type statusRow struct {
	Label   string
	Count   int
	Percent string
	Color   string
}

type skillRow struct {
	Name   string
	Amount string
}

// profileView holds pre-formatted panel values.
type profileView struct {
	Login     string
	Email     string
	UserID    int64
	Level     string
	Grade     string
	TotalXP   string
	XPToday   string
	XPWeek    string
	XPCount   string
	Ratio     string
	Done      string
	Received  string
	Statuses  []statusRow
	AuditErr  bool
	Passed    string
	Failed    string
	Progress  string
	Completed string
	PassRate  string
	Skills    []skillRow
	SkillsErr bool
	Generated string
}

func newProfileView(d *query.Dashboard, loc *time.Location) *profileView {
	v := &profileView{
		Login:     d.User.Login,
		Email:     d.User.Email,
		UserID:    d.User.ID,
		Generated: timeutil.FormatDate(d.GeneratedAt, loc) + " " + d.GeneratedAt.In(loc).Format("15:04"),
	}

	v.Level = panelError
	if d.Level.Err == nil {
		v.Level = fmt.Sprint(d.Level.Level)
	}

	switch {
	case d.Grade.Err != nil:
		v.Grade = panelError
	case !d.Grade.Graded:
		v.Grade = "N/A"
	default:
		v.Grade = fmt.Sprintf("%.1f%%", d.Grade.Percent)
	}

	if d.XP.Err != nil {
		v.TotalXP, v.XPToday, v.XPWeek, v.XPCount = panelError, panelError, panelError, panelError
	} else {
		v.TotalXP = charts.FormatXP(d.XP.Total)
		v.XPToday = charts.FormatXP(d.XP.Today)
		v.XPWeek = charts.FormatXP(d.XP.Week)
		v.XPCount = humanize.Comma(int64(d.XP.Count))
	}

	if d.Audits.Err != nil {
		v.AuditErr = true
		v.Ratio, v.Done, v.Received = panelError, panelError, panelError
	} else {
		v.Ratio = charts.FormatRatio(d.Audits.Ratio)
		v.Done = charts.FormatXP(d.Audits.Up)
		v.Received = charts.FormatXP(d.Audits.Down)
		for _, s := range progress.AuditStatuses {
			v.Statuses = append(v.Statuses, statusRow{
				Label:   charts.AuditLabel(s),
				Count:   d.Audits.Breakdown.Count(s),
				Percent: charts.FormatShare(d.Audits.Breakdown.Percent(s), d.Audits.Breakdown.Total),
				Color:   charts.AuditColor(s),
			})
		}
	}

	if d.Projects.Err != nil {
		v.Passed, v.Failed, v.Progress, v.Completed = panelError, panelError, panelError, panelError
	} else {
		v.Passed = fmt.Sprint(d.Projects.Passed)
		v.Failed = fmt.Sprint(d.Projects.Failed)
		v.Progress = fmt.Sprint(d.Projects.InProgress)
		v.Completed = fmt.Sprintf("%.0f%%", d.Projects.CompletionPercent())
	}

	v.PassRate = panelError
	if d.PassFail.Err == nil {
		v.PassRate = fmt.Sprintf("%.0f%%", d.PassFail.PassRate())
	}

	if d.Skills.Err != nil {
		v.SkillsErr = true
	}
	for _, s := range d.Skills.Skills {
		v.Skills = append(v.Skills, skillRow{Name: s.Name, Amount: humanize.FtoaWithDigits(s.Amount, 1) + "%"})
	}
	return v
}

// ══════════════════════════════════════════════════════════════════════════════
// JSON MODELS
// ══════════════════════════════════════════════════════════════════════════════

type apiDashboard struct {
	User        apiUser     `json:"user"`
	Level       apiLevel    `json:"level"`
	Grade       apiGrade    `json:"grade"`
	XP          apiXP       `json:"xp"`
	Audits      apiAudits   `json:"audits"`
	Projects    apiProjects `json:"projects"`
	PassFail    apiPassFail `json:"pass_fail"`
	Skills      apiSkills   `json:"skills"`
	GeneratedAt time.Time   `json:"generated_at"`
}

type apiUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email,omitempty"`
}

type apiLevel struct {
	Level int    `json:"level"`
	Error string `json:"error,omitempty"`
}

type apiGrade struct {
	Percent float64 `json:"percent"`
	Graded  bool    `json:"graded"`
	Error   string  `json:"error,omitempty"`
}

type apiXPPoint struct {
	At         time.Time `json:"at"`
	Amount     float64   `json:"amount"`
	Cumulative float64   `json:"cumulative"`
}

type apiProjectXP struct {
	Label  string  `json:"label"`
	Path   string  `json:"path"`
	Amount float64 `json:"amount"`
}

type apiXP struct {
	Total     float64        `json:"total"`
	Today     float64        `json:"today"`
	Week      float64        `json:"week"`
	Count     int            `json:"count"`
	Series    []apiXPPoint   `json:"series,omitempty"`
	ByProject []apiProjectXP `json:"by_project,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type apiAudits struct {
	Up       float64        `json:"up"`
	Down     float64        `json:"down"`
	Ratio    float64        `json:"ratio"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status,omitempty"`
	Error    string         `json:"error,omitempty"`
}

type apiProjects struct {
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	InProgress int    `json:"in_progress"`
	Error      string `json:"error,omitempty"`
}

type apiPassFail struct {
	Passed int     `json:"passed"`
	Failed int     `json:"failed"`
	Rate   float64 `json:"rate"`
	Error  string  `json:"error,omitempty"`
}

type apiSkill struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type apiSkills struct {
	Skills []apiSkill `json:"skills"`
	Error  string     `json:"error,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func newAPIDashboard(d *query.Dashboard) apiDashboard {
	out := apiDashboard{
		User:        apiUser{ID: d.User.ID, Login: d.User.Login, Email: d.User.Email},
		Level:       apiLevel{Level: d.Level.Level, Error: errString(d.Level.Err)},
		Grade:       apiGrade{Percent: d.Grade.Percent, Graded: d.Grade.Graded, Error: errString(d.Grade.Err)},
		GeneratedAt: d.GeneratedAt.UTC(),
		XP: apiXP{
			Total: d.XP.Total,
			Today: d.XP.Today,
			Week:  d.XP.Week,
			Count: d.XP.Count,
			Error: errString(d.XP.Err),
		},
		Audits: apiAudits{
			Up:    d.Audits.Up,
			Down:  d.Audits.Down,
			Ratio: d.Audits.Ratio,
			Total: d.Audits.Breakdown.Total,
			Error: errString(d.Audits.Err),
		},
		Projects: apiProjects{
			Passed:     d.Projects.Passed,
			Failed:     d.Projects.Failed,
			InProgress: d.Projects.InProgress,
			Error:      errString(d.Projects.Err),
		},
		PassFail: apiPassFail{
			Passed: d.PassFail.Passed,
			Failed: d.PassFail.Failed,
			Rate:   d.PassFail.PassRate(),
			Error:  errString(d.PassFail.Err),
		},
		Skills: apiSkills{Skills: []apiSkill{}, Error: errString(d.Skills.Err)},
	}

	for _, p := range d.XP.Series {
		out.XP.Series = append(out.XP.Series, apiXPPoint{At: p.At.UTC(), Amount: p.Amount, Cumulative: p.Cumulative})
	}
	for _, p := range d.XP.ByProject {
		out.XP.ByProject = append(out.XP.ByProject, apiProjectXP{Label: p.Label, Path: p.Path, Amount: p.Amount})
	}
	if d.Audits.Breakdown.Total > 0 {
		out.Audits.ByStatus = make(map[string]int, len(progress.AuditStatuses))
		for _, s := range progress.AuditStatuses {
			out.Audits.ByStatus[string(s)] = d.Audits.Breakdown.Count(s)
		}
	}
	for _, s := range d.Skills.Skills {
		out.Skills.Skills = append(out.Skills.Skills, apiSkill{Name: s.Name, Amount: s.Amount})
	}
	return out
}
