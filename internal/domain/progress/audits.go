package progress

import "time"

// AuditStatus buckets an audit assignment.
type AuditStatus string

const (
	AuditSucceeded   AuditStatus = "succeeded"
	AuditFailed      AuditStatus = "failed"
	AuditExpired     AuditStatus = "expired"
	AuditInvalidated AuditStatus = "invalidated"
	AuditPending     AuditStatus = "pending"
)

// AuditStatuses lists the buckets in display order.
var AuditStatuses = []AuditStatus{AuditSucceeded, AuditFailed, AuditExpired, AuditInvalidated, AuditPending}

// Classify returns the audit's bucket at now.
func (a Audit) Classify(now time.Time) AuditStatus {
	if a.Grade != nil {
		if *a.Grade >= 1 {
			return AuditSucceeded
		}
		return AuditFailed
	}
	if a.EndAt != nil && a.EndAt.Before(now) {
		return AuditExpired
	}
	if a.ResultID != nil {
		return AuditInvalidated
	}
	return AuditPending
}

// AuditBreakdown counts audits per status.
type AuditBreakdown struct {
	Counts map[AuditStatus]int
	Total  int
}

// Count returns the number of audits in status.
func (b AuditBreakdown) Count(status AuditStatus) int {
	return b.Counts[status]
}

// Percent returns the share of status in whole percent, 0 when there are no audits.
func (b AuditBreakdown) Percent(status AuditStatus) float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Counts[status]) / float64(b.Total) * 100
}

// ClassifyAudits buckets every audit.
func ClassifyAudits(audits []Audit, now time.Time) AuditBreakdown {
	b := AuditBreakdown{Counts: make(map[AuditStatus]int, len(AuditStatuses))}
	for _, a := range audits {
		b.Counts[a.Classify(now)]++
		b.Total++
	}
	return b
}

// AuditRatio is XP given over XP received, 0 when nothing was received.
func AuditRatio(up, down float64) float64 {
	if down == 0 {
		return 0
	}
	return up / down
}

// AuditSummary is the audit panel.
type AuditSummary struct {
	Up        float64
	Down      float64
	Ratio     float64
	Breakdown AuditBreakdown
	Recent    []Audit
}

// SummarizeAudits builds the audit panel from the totals and the assignment list.
func SummarizeAudits(up, down float64, audits []Audit, now time.Time) AuditSummary {
	return AuditSummary{
		Up:        up,
		Down:      down,
		Ratio:     AuditRatio(up, down),
		Breakdown: ClassifyAudits(audits, now),
		Recent:    audits,
	}
}
