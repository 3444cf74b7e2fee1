// Package charts renders dashboard metrics as standalone SVG documents.
//
// Every renderer is a pure function of aggregated metrics and returns a
// complete <svg> element that can be inlined in HTML or served as image/svg+xml.
// Empty input yields a placeholder message instead of an empty drawing.
package charts

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Palette used across charts.
const (
	ColorPrimary   = "#4a6fa5"
	ColorSecondary = "#166088"
	ColorAccent    = "#4fc3a1"
	ColorSuccess   = "#28a745"
	ColorDanger    = "#e74c3c"
	ColorWarning   = "#ffc107"
	ColorInfo      = "#17a2b8"
	ColorMuted     = "#666666"
	ColorGrid      = "#e0e0e0"
)

// canvas accumulates SVG elements.
type canvas struct {
	b      strings.Builder
	width  int
	height int
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width, height: height}
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		width, height, width, height)
	return c
}

func (c *canvas) raw(format string, args ...any) {
	fmt.Fprintf(&c.b, format, args...)
}

func (c *canvas) rect(x, y, w, h, rx float64, fill, extra string) {
	c.raw(`<rect x="%s" y="%s" width="%s" height="%s" rx="%s" fill="%s"%s/>`,
		num(x), num(y), num(w), num(h), num(rx), fill, attrs(extra))
}

func (c *canvas) line(x1, y1, x2, y2 float64, stroke string, width float64, extra string) {
	c.raw(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"%s/>`,
		num(x1), num(y1), num(x2), num(y2), stroke, num(width), attrs(extra))
}

func (c *canvas) circle(cx, cy, r float64, fill, extra string) {
	c.raw(`<circle cx="%s" cy="%s" r="%s" fill="%s"%s/>`, num(cx), num(cy), num(r), fill, attrs(extra))
}

func (c *canvas) path(d, fill, extra string) {
	c.raw(`<path d="%s" fill="%s"%s/>`, d, fill, attrs(extra))
}

// text writes an escaped text node. anchor is start, middle or end.
func (c *canvas) text(x, y float64, anchor string, size int, fill, weight, s string) {
	w := ""
	if weight != "" {
		w = fmt.Sprintf(` font-weight="%s"`, weight)
	}
	c.raw(`<text x="%s" y="%s" text-anchor="%s" font-size="%d" fill="%s"%s>%s</text>`,
		num(x), num(y), anchor, size, fill, w, html.EscapeString(s))
}

func titleTag(s string) string {
	return "<title>" + html.EscapeString(s) + "</title>"
}

func (c *canvas) String() string {
	return c.b.String() + "</svg>"
}

func attrs(extra string) string {
	if extra == "" {
		return ""
	}
	return " " + extra
}

// Placeholder renders a centered message in an otherwise empty chart.
func Placeholder(width, height int, message string) string {
	c := newCanvas(width, height)
	c.text(float64(width)/2, float64(height)/2, "middle", 16, ColorMuted, "", message)
	return c.String()
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// FormatXP renders an XP amount the way the platform does (1 kB = 1000 XP).
func FormatXP(amount float64) string {
	if amount <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(math.Round(amount)))
}

// FormatRatio renders the audit ratio with two decimals.
func FormatRatio(ratio float64) string {
	return strconv.FormatFloat(ratio, 'f', 2, 64)
}

// FormatShare renders a percentage with one decimal. An empty population
// reads "0%".
func FormatShare(pct float64, total int) string {
	if total == 0 {
		return "0%"
	}
	return strconv.FormatFloat(pct, 'f', 1, 64) + "%"
}

// percent returns part/total as a whole percentage.
func percent(part, total float64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(part / total * 100))
}

// niceScale picks an axis maximum and step so that top/step ≈ ticks and the
// step is 1, 2, 2.5 or 5 times a power of ten.
func niceScale(top float64, ticks int) (niceMax, step float64) {
	if ticks <= 0 {
		ticks = 5
	}
	if top <= 0 {
		return float64(ticks), 1
	}

	rough := top / float64(ticks)
	mag := math.Pow(10, math.Floor(math.Log10(rough)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if m*mag >= rough {
			step = m * mag
			break
		}
	}
	return math.Ceil(top/step) * step, step
}

// polar returns the point at radius r and angle a, measured clockwise from 12 o'clock.
func polar(cx, cy, r, a float64) (x, y float64) {
	return cx + r*math.Sin(a), cy - r*math.Cos(a)
}

// arcPath draws an annular sector between angles a0 and a1. inner 0 draws a pie slice.
func arcPath(cx, cy, inner, outer, a0, a1 float64) string {
	large := 0
	if a1-a0 > math.Pi {
		large = 1
	}
	ox0, oy0 := polar(cx, cy, outer, a0)
	ox1, oy1 := polar(cx, cy, outer, a1)

	var b strings.Builder
	fmt.Fprintf(&b, "M%s,%s A%s,%s 0 %d 1 %s,%s", num(ox0), num(oy0), num(outer), num(outer), large, num(ox1), num(oy1))
	if inner <= 0 {
		fmt.Fprintf(&b, " L%s,%s Z", num(cx), num(cy))
		return b.String()
	}
	ix1, iy1 := polar(cx, cy, inner, a1)
	ix0, iy0 := polar(cx, cy, inner, a0)
	fmt.Fprintf(&b, " L%s,%s A%s,%s 0 %d 0 %s,%s Z", num(ix1), num(iy1), num(inner), num(inner), large, num(ix0), num(iy0))
	return b.String()
}

// slice is one segment of a pie or donut.
type slice struct {
	Label string
	Value float64
	Color string
}

// drawSlices renders the non-empty slices and their percentage labels
// (labels below minLabel percent are omitted).
func drawSlices(c *canvas, cx, cy, inner, outer float64, slices []slice, minLabel int) {
	var total float64
	for _, s := range slices {
		total += s.Value
	}
	if total <= 0 {
		return
	}

	a := 0.0
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		span := s.Value / total * 2 * math.Pi
		tip := titleTag(fmt.Sprintf("%s: %s", s.Label, num(s.Value)))

		if span >= 2*math.Pi-1e-9 {
			// A full circle cannot be drawn as a single arc.
			if inner <= 0 {
				c.raw(`<circle cx="%s" cy="%s" r="%s" fill="%s" stroke="white" stroke-width="2">%s</circle>`,
					num(cx), num(cy), num(outer), s.Color, tip)
			} else {
				c.raw(`<circle cx="%s" cy="%s" r="%s" fill="none" stroke="%s" stroke-width="%s">%s</circle>`,
					num(cx), num(cy), num((inner+outer)/2), s.Color, num(outer-inner), tip)
			}
		} else {
			c.raw(`<path d="%s" fill="%s" stroke="white" stroke-width="2">%s</path>`,
				arcPath(cx, cy, inner, outer, a, a+span), s.Color, tip)
		}

		if p := percent(s.Value, total); p >= minLabel {
			lx, ly := polar(cx, cy, (inner+outer)/2, a+span/2)
			if span >= 2*math.Pi-1e-9 && inner <= 0 {
				lx, ly = cx, cy
			}
			c.text(lx, ly+5, "middle", 14, "white", "bold", strconv.Itoa(p)+"%")
		}
		a += span
	}
}

// legend draws colored swatches with labels starting at (x, y).
func legend(c *canvas, x, y float64, slices []slice) {
	for i, s := range slices {
		yy := y + float64(i)*22
		c.rect(x, yy-11, 14, 14, 3, s.Color, "")
		c.text(x+22, yy, "start", 13, "#333333", "", fmt.Sprintf("%s (%s)", s.Label, num(s.Value)))
	}
}
