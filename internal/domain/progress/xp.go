package progress

import (
	"sort"
	"strings"
	"time"

	"github.com/alem-hub/reboot-profile/pkg/timeutil"
)

// XPPoint is one step of the cumulative XP series.
type XPPoint struct {
	At         time.Time
	Amount     float64
	Cumulative float64
	Path       string
}

// ProjectXP is XP earned under one path.
type ProjectXP struct {
	Path   string
	Label  string
	Amount float64
}

// XPSummary is the XP panel.
type XPSummary struct {
	Total     float64
	Today     float64
	Week      float64
	Count     int
	Series    []XPPoint
	ByProject []ProjectXP
}

// DefaultTopProjects is how many bars the XP-by-project chart shows.
const DefaultTopProjects = 8

// countsTowardXP applies the piscine exclusion: bh-piscine paths never count,
// other piscine paths only count for piscine objects.
func countsTowardXP(tx Transaction) bool {
	if strings.Contains(tx.Path, "/bh-piscine") {
		return false
	}
	if strings.Contains(tx.Path, "/piscine") && tx.Object.Type != "piscine" {
		return false
	}
	return true
}

// FilterXP keeps the XP transactions that count toward the user's total.
func FilterXP(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if countsTowardXP(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// TotalXP sums the counted XP.
func TotalXP(txs []Transaction) float64 {
	var total float64
	for _, tx := range FilterXP(txs) {
		total += tx.Amount
	}
	return total
}

// XPWindows returns XP earned since local midnight and since midnight seven days ago.
func XPWindows(txs []Transaction, now time.Time, loc *time.Location) (today, week float64) {
	todayWin := timeutil.Today(now, loc)
	weekWin := timeutil.LastWeek(now, loc)
	for _, tx := range FilterXP(txs) {
		if todayWin.Contains(tx.CreatedAt) {
			today += tx.Amount
		}
		if weekWin.Contains(tx.CreatedAt) {
			week += tx.Amount
		}
	}
	return today, week
}

// CumulativeXP orders counted XP by time and accumulates it.
func CumulativeXP(txs []Transaction) []XPPoint {
	filtered := FilterXP(txs)
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	points := make([]XPPoint, 0, len(filtered))
	var running float64
	for _, tx := range filtered {
		running += tx.Amount
		points = append(points, XPPoint{
			At:         tx.CreatedAt,
			Amount:     tx.Amount,
			Cumulative: running,
			Path:       tx.Path,
		})
	}
	return points
}

// XPByProject groups counted XP by path and returns the n largest.
func XPByProject(txs []Transaction, n int) []ProjectXP {
	sums := make(map[string]float64)
	for _, tx := range FilterXP(txs) {
		sums[tx.Path] += tx.Amount
	}

	out := make([]ProjectXP, 0, len(sums))
	for path, amount := range sums {
		out = append(out, ProjectXP{Path: path, Label: PathLabel(path), Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Path < out[j].Path
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// PathLabel returns the last segment of a curriculum path.
func PathLabel(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}

// SummarizeXP builds the complete XP panel.
func SummarizeXP(txs []Transaction, now time.Time, loc *time.Location) XPSummary {
	filtered := FilterXP(txs)
	today, week := XPWindows(filtered, now, loc)
	return XPSummary{
		Total:     TotalXP(filtered),
		Today:     today,
		Week:      week,
		Count:     len(filtered),
		Series:    CumulativeXP(filtered),
		ByProject: XPByProject(filtered, DefaultTopProjects),
	}
}
