// Package progress holds the raw rows fetched from the learning platform and
// the pure rules that turn them into dashboard metrics.
//
// Nothing here performs I/O. Time-dependent rules take now and the campus
// location as parameters so they are deterministic under test.
package progress

import "time"

// Transaction types that carry meaning for the dashboard.
const (
	TypeXP          = "xp"
	TypeUp          = "up"
	TypeDown        = "down"
	TypeLevel       = "level"
	SkillTypePrefix = "skill_"
)

// Object is the curriculum item a row refers to.
type Object struct {
	ID   int64
	Name string
	Type string
}

// Transaction is one ledger entry: XP, audit up/down, level or skill.
type Transaction struct {
	ID        int64
	Type      string
	Amount    float64
	Path      string
	ObjectID  int64
	CreatedAt time.Time
	Object    Object
}

// RecordSource tells which table a Record came from.
type RecordSource string

const (
	SourceProgress RecordSource = "progress"
	SourceResult   RecordSource = "result"
)

// Record is a progress or result row. A nil Grade means the work is in progress.
type Record struct {
	ID        int64
	ObjectID  int64
	Grade     *float64
	Path      string
	CreatedAt time.Time
	Object    Object
	Source    RecordSource
}

// Audit is one audit the user was assigned as auditor.
type Audit struct {
	ID        int64
	Grade     *float64
	CreatedAt time.Time
	EndAt     *time.Time
	ResultID  *int64
	Project   string
	Captain   string
}

// User is the signed-in platform user.
type User struct {
	ID    int64
	Login string
	Attrs any
}

// Float returns a pointer to v. Convenient for building grades.
func Float(v float64) *float64 { return &v }
