package progress

import "sort"

// ProjectState is the derived state of one project.
type ProjectState string

const (
	ProjectPassed     ProjectState = "passed"
	ProjectFailed     ProjectState = "failed"
	ProjectInProgress ProjectState = "in_progress"
)

// PassThreshold is the minimum grade that counts as a pass.
const PassThreshold = 1.0

// State classifies a record. Negative grades are treated like missing ones.
func (r Record) State() ProjectState {
	switch {
	case r.Grade == nil:
		return ProjectInProgress
	case *r.Grade >= PassThreshold:
		return ProjectPassed
	case *r.Grade >= 0:
		return ProjectFailed
	default:
		return ProjectInProgress
	}
}

// LatestPerObject keeps only the newest record per objectId. Records without
// an objectId cannot be deduplicated and are dropped. The result is ordered
// newest first.
func LatestPerObject(records ...[]Record) []Record {
	latest := make(map[int64]Record)
	for _, set := range records {
		for _, r := range set {
			if r.ObjectID == 0 {
				continue
			}
			cur, ok := latest[r.ObjectID]
			if !ok || r.CreatedAt.After(cur.CreatedAt) {
				latest[r.ObjectID] = r
			}
		}
	}

	out := make([]Record, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ObjectID < out[j].ObjectID
	})
	return out
}

// ProjectCounts is the project status panel.
type ProjectCounts struct {
	Passed     int
	Failed     int
	InProgress int
	Projects   []Record
}

// Total returns the number of distinct projects.
func (c ProjectCounts) Total() int {
	return c.Passed + c.Failed + c.InProgress
}

// CompletionPercent is the share of passed projects.
func (c ProjectCounts) CompletionPercent() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.Passed) / float64(c.Total()) * 100
}

// ProjectStatus deduplicates the merged progress and result records and counts states.
func ProjectStatus(progressRecords, resultRecords []Record) ProjectCounts {
	latest := LatestPerObject(progressRecords, resultRecords)
	c := ProjectCounts{Projects: latest}
	for _, r := range latest {
		switch r.State() {
		case ProjectPassed:
			c.Passed++
		case ProjectFailed:
			c.Failed++
		default:
			c.InProgress++
		}
	}
	return c
}

// PassFailCounts counts graded results.
type PassFailCounts struct {
	Passed int
	Failed int
}

// Total returns passed plus failed.
func (p PassFailCounts) Total() int { return p.Passed + p.Failed }

// PassRate is the passed share in percent.
func (p PassFailCounts) PassRate() float64 {
	if p.Total() == 0 {
		return 0
	}
	return float64(p.Passed) / float64(p.Total()) * 100
}

// PassFail counts results by grade. Ungraded results are ignored.
func PassFail(results []Record) PassFailCounts {
	var c PassFailCounts
	for _, r := range results {
		if r.Grade == nil {
			continue
		}
		if *r.Grade >= PassThreshold {
			c.Passed++
		} else {
			c.Failed++
		}
	}
	return c
}
