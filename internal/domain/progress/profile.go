package progress

import (
	"math"
	"strings"

	"github.com/goccy/go-json"
)

// LatestLevel returns the amount of the newest level transaction outside the
// piscines, or 0 when there is none.
func LatestLevel(txs []Transaction) int {
	var (
		found  bool
		newest Transaction
	)
	for _, tx := range txs {
		if tx.Type != TypeLevel || strings.Contains(tx.Path, "/piscine-") {
			continue
		}
		if !found || tx.CreatedAt.After(newest.CreatedAt) {
			newest = tx
			found = true
		}
	}
	if !found {
		return 0
	}
	return int(newest.Amount)
}

// GradePercent converts an average grade to a percentage rounded to one decimal.
func GradePercent(avg float64) float64 {
	return math.Round(avg*1000) / 10
}

var emailKeys = []string{"email", "Email", "EMAIL"}

// EmailFromAttrs extracts an email from the user's attrs. attrs may be a
// decoded object, a JSON-encoded object, or a bare string. A string that is
// not JSON is returned as is.
func EmailFromAttrs(attrs any) string {
	switch v := attrs.(type) {
	case map[string]any:
		for _, key := range emailKeys {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
	case json.RawMessage:
		return EmailFromAttrs(string(v))
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return ""
		}
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return EmailFromAttrs(decoded)
		}
		return trimmed
	}
	return ""
}
