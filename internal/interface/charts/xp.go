package charts

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/alem-hub/reboot-profile/internal/domain/progress"
	"github.com/alem-hub/reboot-profile/pkg/timeutil"
)

// Line chart geometry.
const (
	xpWidth        = 800
	xpHeight       = 400
	xpMarginTop    = 20
	xpMarginRight  = 30
	xpMarginBottom = 40
	xpMarginLeft   = 60
	xpMaxDots      = 15
	xpXTicks       = 5
	xpYTicks       = 5
)

// XPLine renders cumulative XP over time as a line with a shaded area.
func XPLine(points []progress.XPPoint, loc *time.Location) string {
	if len(points) == 0 {
		return Placeholder(xpWidth, xpHeight, "No XP data available")
	}
	if loc == nil {
		loc = time.UTC
	}

	plotW := float64(xpWidth - xpMarginLeft - xpMarginRight)
	plotH := float64(xpHeight - xpMarginTop - xpMarginBottom)
	left, top := float64(xpMarginLeft), float64(xpMarginTop)
	bottom := top + plotH

	t0, t1 := points[0].At, points[len(points)-1].At
	if !t1.After(t0) {
		t0, t1 = t0.Add(-12*time.Hour), t1.Add(12*time.Hour)
	}
	span := t1.Sub(t0)

	var peak float64
	for _, p := range points {
		peak = math.Max(peak, p.Cumulative)
	}
	yMax, yStep := niceScale(peak, xpYTicks)

	x := func(t time.Time) float64 { return left + float64(t.Sub(t0))/float64(span)*plotW }
	y := func(v float64) float64 { return bottom - math.Max(v, 0)/yMax*plotH }

	c := newCanvas(xpWidth, xpHeight)

	// Grid and y labels.
	for v := 0.0; v <= yMax+yStep/2; v += yStep {
		c.line(left, y(v), left+plotW, y(v), ColorGrid, 1, `stroke-dasharray="2,2"`)
		c.text(left-8, y(v)+4, "end", 11, "#000000", "", humanize.Comma(int64(math.Round(v))))
	}
	for i := 0; i <= xpXTicks; i++ {
		t := t0.Add(span * time.Duration(i) / xpXTicks)
		c.line(x(t), top, x(t), bottom, ColorGrid, 1, `stroke-dasharray="2,2"`)
		c.text(x(t), bottom+18, "middle", 11, "#000000", "", timeutil.FormatShortDate(t, loc))
	}

	// Axes.
	c.line(left, top, left, bottom, "#000000", 1, "")
	c.line(left, bottom, left+plotW, bottom, "#000000", 1, "")
	c.text(left+plotW, bottom-10, "end", 12, "#000000", "", "Date")
	c.raw(`<text transform="rotate(-90)" x="%s" y="15" text-anchor="middle" font-size="12" fill="#000000">Cumulative XP</text>`,
		num(-(top + plotH/2)))

	// Area and line.
	var line, area strings.Builder
	fmt.Fprintf(&area, "M%s,%s", num(x(points[0].At)), num(bottom))
	for i, p := range points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&line, "%s%s,%s ", cmd, num(x(p.At)), num(y(p.Cumulative)))
		fmt.Fprintf(&area, " L%s,%s", num(x(p.At)), num(y(p.Cumulative)))
	}
	fmt.Fprintf(&area, " L%s,%s Z", num(x(points[len(points)-1].At)), num(bottom))

	c.path(area.String(), ColorPrimary, `fill-opacity="0.1"`)
	c.path(strings.TrimSpace(line.String()), "none", fmt.Sprintf(`stroke="%s" stroke-width="3" stroke-linejoin="round"`, ColorPrimary))

	// Sampled data points with tooltips.
	every := max(1, len(points)/xpMaxDots)
	for i, p := range points {
		if i%every != 0 && i != len(points)-1 {
			continue
		}
		tip := fmt.Sprintf("%s: +%s XP (total %s)",
			timeutil.FormatDate(p.At, loc), humanize.Comma(int64(p.Amount)), humanize.Comma(int64(p.Cumulative)))
		c.raw(`<circle cx="%s" cy="%s" r="4" fill="%s" stroke="white" stroke-width="1">%s</circle>`,
			num(x(p.At)), num(y(p.Cumulative)), ColorSecondary, titleTag(tip))
	}

	return c.String()
}

// Bar chart geometry.
const (
	barsWidth    = 420
	barsHeight   = 200
	barsBaseline = 150
	barsMaxH     = 130
	barWidth     = 35
	barSpacing   = 5
	barLabelLen  = 6
)

var barColors = []string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2"}

// XPByProjectBars renders the XP earned per project as vertical bars.
func XPByProjectBars(projects []progress.ProjectXP) string {
	if len(projects) == 0 {
		return Placeholder(barsWidth, barsHeight, "No project XP available")
	}

	var peak float64
	for _, p := range projects {
		peak = math.Max(peak, p.Amount)
	}
	if peak <= 0 {
		return Placeholder(barsWidth, barsHeight, "No project XP available")
	}

	c := newCanvas(barsWidth, barsHeight)
	c.line(10, barsBaseline, barsWidth-15, barsBaseline, "#333333", 2, "")
	c.line(10, 20, 10, barsBaseline, "#333333", 2, "")
	c.line(10, barsBaseline-barsMaxH/2, barsWidth-15, barsBaseline-barsMaxH/2, "#eeeeee", 1, `stroke-dasharray="2,2"`)

	for i, p := range projects {
		h := math.Max(p.Amount, 0) / peak * barsMaxH
		xPos := float64(i*(barWidth+barSpacing) + 20)
		color := barColors[i%len(barColors)]

		c.raw(`<rect x="%s" y="%s" width="%d" height="%s" rx="3" fill="%s" stroke="#333333" stroke-width="1">%s</rect>`,
			num(xPos), num(barsBaseline-h), barWidth, num(h), color,
			titleTag(fmt.Sprintf("%s: %s", p.Label, FormatXP(p.Amount))))
		c.text(xPos+barWidth/2.0, 170, "middle", 9, "#333333", "bold", truncate(p.Label, barLabelLen))
		c.text(xPos+barWidth/2.0, 182, "middle", 8, ColorMuted, "", FormatXP(p.Amount))
	}
	return c.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
