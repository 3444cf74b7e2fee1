package platform

import (
	"time"

	"github.com/goccy/go-json"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRANSPORT DTOs
// ══════════════════════════════════════════════════════════════════════════════

// GraphQLRequest is the body posted to the GraphQL endpoint.
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLErrorDTO is one entry of a GraphQL errors array.
type GraphQLErrorDTO struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
		Path string `json:"path"`
	} `json:"extensions"`
}

// GraphQLResponse is the envelope returned by the GraphQL endpoint.
type GraphQLResponse struct {
	Data   json.RawMessage   `json:"data"`
	Errors []GraphQLErrorDTO `json:"errors"`
}

// signinObject is the object form of a signin response.
type signinObject struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// ══════════════════════════════════════════════════════════════════════════════
// ROW DTOs
// ══════════════════════════════════════════════════════════════════════════════

// ObjectDTO is a curriculum object.
type ObjectDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// UserDTO is a row of the user table.
type UserDTO struct {
	ID    int64           `json:"id"`
	Login string          `json:"login"`
	Attrs json.RawMessage `json:"attrs"`
}

// TransactionDTO is a row of the transaction table.
type TransactionDTO struct {
	ID        int64      `json:"id"`
	Type      string     `json:"type"`
	Amount    float64    `json:"amount"`
	ObjectID  int64      `json:"objectId"`
	Path      string     `json:"path"`
	CreatedAt time.Time  `json:"createdAt"`
	Object    *ObjectDTO `json:"object"`
}

// RecordDTO is a row of the progress or result table.
type RecordDTO struct {
	ID        int64      `json:"id"`
	Grade     *float64   `json:"grade"`
	ObjectID  int64      `json:"objectId"`
	Path      string     `json:"path"`
	CreatedAt time.Time  `json:"createdAt"`
	Object    *ObjectDTO `json:"object"`
}

// AuditDTO is a row of the audit table.
type AuditDTO struct {
	ID        int64      `json:"id"`
	Grade     *float64   `json:"grade"`
	CreatedAt time.Time  `json:"createdAt"`
	EndAt     *time.Time `json:"endAt"`
	ResultID  *int64     `json:"resultId"`
	Group     *struct {
		Object  *ObjectDTO `json:"object"`
		Captain *struct {
			Login string `json:"login"`
		} `json:"captain"`
	} `json:"group"`
}

// aggregateSumDTO matches {aggregate {sum {amount}}}.
type aggregateSumDTO struct {
	Aggregate struct {
		Sum struct {
			Amount *float64 `json:"amount"`
		} `json:"sum"`
	} `json:"aggregate"`
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY RESPONSE SHAPES
// ══════════════════════════════════════════════════════════════════════════════

type userData struct {
	User []UserDTO `json:"user"`
}

type transactionData struct {
	Transaction []TransactionDTO `json:"transaction"`
}

type averageGradeData struct {
	ProgressAggregate struct {
		Aggregate struct {
			Avg struct {
				Grade *float64 `json:"grade"`
			} `json:"avg"`
		} `json:"aggregate"`
	} `json:"progress_aggregate"`
}

type auditData struct {
	Audit []AuditDTO `json:"audit"`
}

type auditTotalsData struct {
	Up   aggregateSumDTO `json:"up"`
	Down aggregateSumDTO `json:"down"`
}

type projectRecordsData struct {
	Progress []RecordDTO `json:"progress"`
	Result   []RecordDTO `json:"result"`
}

type resultData struct {
	Result []RecordDTO `json:"result"`
}
