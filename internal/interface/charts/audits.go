package charts

import (
	"fmt"
	"math"

	"github.com/alem-hub/reboot-profile/internal/domain/progress"
)

var auditColors = map[progress.AuditStatus]string{
	progress.AuditSucceeded:   "#4caf50",
	progress.AuditFailed:      "#f44336",
	progress.AuditExpired:     "#ff9800",
	progress.AuditInvalidated: "#9e9e9e",
	progress.AuditPending:     "#2196f3",
}

var auditLabels = map[progress.AuditStatus]string{
	progress.AuditSucceeded:   "Succeeded",
	progress.AuditFailed:      "Failed",
	progress.AuditExpired:     "Expired",
	progress.AuditInvalidated: "Invalidated",
	progress.AuditPending:     "Pending",
}

// AuditLabel returns the display name of an audit status.
func AuditLabel(status progress.AuditStatus) string {
	if l, ok := auditLabels[status]; ok {
		return l
	}
	return string(status)
}

// AuditColor returns the chart color of an audit status.
func AuditColor(status progress.AuditStatus) string {
	if c, ok := auditColors[status]; ok {
		return c
	}
	return ColorMuted
}

const (
	pieWidth  = 410
	pieHeight = 480
	pieRadius = 150
)

// AuditPie renders the audit status breakdown as a pie with a legend.
func AuditPie(b progress.AuditBreakdown) string {
	if b.Total == 0 {
		return Placeholder(pieWidth, pieHeight, "No audit data available")
	}

	slices := make([]slice, 0, len(progress.AuditStatuses))
	for _, status := range progress.AuditStatuses {
		slices = append(slices, slice{
			Label: AuditLabel(status),
			Value: float64(b.Count(status)),
			Color: AuditColor(status),
		})
	}

	c := newCanvas(pieWidth, pieHeight)
	drawSlices(c, pieWidth/2, 180, 0, pieRadius, slices, 6)
	legend(c, 40, 365, slices)
	return c.String()
}

// Ring geometry.
const (
	ringSize   = 220
	ringRadius = 80
	ringStroke = 30
)

// ring draws proportional arcs around a circle, starting at 12 o'clock.
func ring(segments []slice, center, caption string) string {
	var total float64
	for _, s := range segments {
		total += math.Max(s.Value, 0)
	}

	c := newCanvas(ringSize, ringSize)
	mid := float64(ringSize) / 2
	circumference := 2 * math.Pi * ringRadius

	c.raw(`<circle cx="%s" cy="%s" r="%d" fill="none" stroke="#eeeeee" stroke-width="%d"/>`, num(mid), num(mid), ringRadius, ringStroke)

	start := 0.0
	for _, s := range segments {
		if s.Value <= 0 || total <= 0 {
			continue
		}
		share := s.Value / total
		c.raw(`<circle cx="%s" cy="%s" r="%d" fill="none" stroke="%s" stroke-width="%d" stroke-dasharray="%s %s" transform="rotate(%s %s %s)">%s</circle>`,
			num(mid), num(mid), ringRadius, s.Color, ringStroke,
			num(share*circumference), num(circumference),
			num(start*360-90), num(mid), num(mid),
			titleTag(fmt.Sprintf("%s: %s", s.Label, num(s.Value))))
		start += share
	}

	if caption == "" {
		c.text(mid, mid+7, "middle", 20, "#333333", "bold", center)
	} else {
		c.text(mid, mid+5, "middle", 24, "#333333", "bold", center)
		c.text(mid, mid+25, "middle", 12, ColorMuted, "", caption)
	}
	return c.String()
}

// AuditRatioRing renders audits done (up) against audits received (down).
func AuditRatioRing(up, down float64) string {
	if up <= 0 && down <= 0 {
		return Placeholder(ringSize, ringSize, "No audit data available")
	}

	center := "n/a"
	if down > 0 {
		center = fmt.Sprintf("%.2f:1", progress.AuditRatio(up, down))
	}
	return ring([]slice{
		{Label: "Done " + FormatXP(up), Value: up, Color: "#2196F3"},
		{Label: "Received " + FormatXP(down), Value: down, Color: "#FF9800"},
	}, center, "")
}
