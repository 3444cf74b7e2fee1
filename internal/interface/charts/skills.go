package charts

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/alem-hub/reboot-profile/internal/domain/progress"
)

// Radar geometry. Skill amounts are percentages, so the scale is fixed.
const (
	radarSize     = 400
	radarMargin   = 60
	radarLevels   = 5
	radarMaxValue = 100.0
	RadarMaxAxes  = 8
)

// SkillsRadar renders up to RadarMaxAxes skills on a radar with a fixed
// 0-100 scale and five concentric levels.
func SkillsRadar(skills []progress.Skill) string {
	if len(skills) == 0 {
		return Placeholder(radarSize, radarSize, "No skills data available")
	}
	if len(skills) > RadarMaxAxes {
		skills = skills[:RadarMaxAxes]
	}

	c := newCanvas(radarSize, radarSize)
	center := float64(radarSize) / 2
	radius := center - radarMargin
	step := 2 * math.Pi / float64(len(skills))

	for level := 1; level <= radarLevels; level++ {
		r := radius / radarLevels * float64(level)
		c.circle(center, center, r, "none", `stroke="rgba(0,0,0,0.2)" stroke-width="1"`)
		c.text(center+5, center-r+4, "start", 10, "#000000", "", strconv.Itoa(int(radarMaxValue/radarLevels)*level))
	}

	points := make([]string, len(skills))
	for i, s := range skills {
		a := step * float64(i)

		ax, ay := polar(center, center, radius, a)
		c.line(center, center, ax, ay, "rgba(0,0,0,0.3)", 1, "")

		lx, ly := polar(center, center, radius+25, a)
		c.raw(`<text x="%s" y="%s" text-anchor="middle" dominant-baseline="middle" font-size="11" font-weight="bold" fill="#000000">%s</text>`,
			num(lx), num(ly), html.EscapeString(s.Name))

		px, py := polar(center, center, clampSkill(s.Amount)/radarMaxValue*radius, a)
		points[i] = num(px) + "," + num(py)
	}

	c.raw(`<polygon points="%s" fill="rgba(79,195,161,0.3)" stroke="%s" stroke-width="2"/>`,
		strings.Join(points, " "), ColorAccent)

	for i, s := range skills {
		xy := strings.SplitN(points[i], ",", 2)
		c.raw(`<circle cx="%s" cy="%s" r="5" fill="%s" stroke="#ffffff" stroke-width="2">%s</circle>`,
			xy[0], xy[1], ColorAccent, titleTag(fmt.Sprintf("%s: %s", s.Name, num(s.Amount))))
	}

	return c.String()
}

func clampSkill(v float64) float64 {
	return math.Min(math.Max(v, 0), radarMaxValue)
}
