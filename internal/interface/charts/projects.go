package charts

import (
	"fmt"

	"github.com/alem-hub/reboot-profile/internal/domain/progress"
)

// Project status colors.
const (
	ColorPassed     = ColorSuccess
	ColorFailed     = ColorDanger
	ColorInProgress = ColorWarning
)

// Donut geometry.
const (
	donutWidth   = 800
	donutHeight  = 450
	donutCX      = 200
	donutCY      = 200
	donutRadius  = 120
	panelX       = 500
	panelY       = 50
	progressBarW = 220
)

// ProjectDonut renders project status as a donut next to a legend panel
// with counts, percentages and an overall progress bar.
func ProjectDonut(counts progress.ProjectCounts) string {
	total := counts.Total()
	if total == 0 {
		return Placeholder(donutWidth, donutHeight, "No projects data available")
	}

	slices := []slice{
		{Label: "Passed", Value: float64(counts.Passed), Color: ColorPassed},
		{Label: "In Progress", Value: float64(counts.InProgress), Color: ColorInProgress},
		{Label: "Failed", Value: float64(counts.Failed), Color: ColorFailed},
	}

	c := newCanvas(donutWidth, donutHeight)
	drawSlices(c, donutCX, donutCY, donutRadius*0.5, donutRadius, slices, 5)
	c.text(donutCX, donutCY-2, "middle", 20, ColorPrimary, "bold", fmt.Sprint(total))
	c.text(donutCX, donutCY+16, "middle", 12, ColorPrimary, "", "Projects")

	// Legend panel.
	c.rect(panelX-20, panelY-20, 300, 400, 12, "#f8f9fa", `stroke="#e0e0e0" stroke-width="1"`)
	c.text(panelX, panelY+10, "start", 20, ColorSecondary, "bold", "Project Status")

	yPos := float64(panelY + 60)
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		c.rect(panelX, yPos-12, 16, 16, 4, s.Color, "")
		c.text(panelX+25, yPos, "start", 16, s.Color, "600", s.Label)
		c.text(panelX+150, yPos, "end", 18, "#343a40", "bold", num(s.Value))
		c.text(panelX+220, yPos, "end", 16, s.Color, "bold", fmt.Sprintf("%d%%", percent(s.Value, float64(total))))
		yPos += 45
	}

	// Overall progress bar: passed then in-progress.
	if counts.Passed > 0 {
		c.text(panelX, yPos+10, "start", 14, ColorSecondary, "600", "Overall Progress")
		yPos += 35

		passedW := float64(counts.Passed) / float64(total) * progressBarW
		c.rect(panelX, yPos, progressBarW, 12, 6, "#e0e0e0", "")
		c.rect(panelX, yPos, passedW, 12, 6, ColorPassed, "")
		if counts.InProgress > 0 {
			c.rect(panelX+passedW, yPos, float64(counts.InProgress)/float64(total)*progressBarW, 12, 6, ColorInProgress, "")
		}
		c.text(panelX+240, yPos+10, "start", 16, ColorPassed, "bold", fmt.Sprintf("%d%%", percent(float64(counts.Passed), float64(total))))
		yPos += 35
	}

	c.text(panelX, yPos+20, "start", 14, "#6c757d", "",
		fmt.Sprintf("Passed: %d | In Progress: %d | Failed: %d", counts.Passed, counts.InProgress, counts.Failed))
	return c.String()
}

// PassFailRing renders graded results as a pass/fail ring with the pass rate in the middle.
func PassFailRing(counts progress.PassFailCounts) string {
	if counts.Total() == 0 {
		return Placeholder(ringSize, ringSize, "No graded results available")
	}
	return ring([]slice{
		{Label: "Pass", Value: float64(counts.Passed), Color: "#4CAF50"},
		{Label: "Fail", Value: float64(counts.Failed), Color: "#f44336"},
	}, fmt.Sprintf("%.0f%%", counts.PassRate()), "PASS")
}
