package platform

import (
	"context"
	"fmt"

	"github.com/alem-hub/reboot-profile/internal/domain/progress"
	"github.com/alem-hub/reboot-profile/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TYPED FETCHERS
// ══════════════════════════════════════════════════════════════════════════════

func userVars(userID int64) map[string]any {
	return map[string]any{"userId": userID}
}

// User fetches the signed-in user. With userID 0 the platform's row-level
// permissions decide which user is returned.
func (c *Client) User(ctx context.Context, token string, userID int64) (progress.User, error) {
	var (
		data     userData
		document = queryUser
		vars     map[string]any
	)
	if userID > 0 {
		document = queryUserByID
		vars = userVars(userID)
	}

	if err := c.Query(ctx, token, "user", document, vars, &data); err != nil {
		return progress.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if len(data.User) == 0 {
		return progress.User{}, shared.NewDomainError("platform", "User", shared.ErrNotFound, "user not found")
	}
	return c.mapper.User(data.User[0]), nil
}

// XPTransactions fetches every XP transaction of the user, oldest first.
func (c *Client) XPTransactions(ctx context.Context, token string, userID int64) ([]progress.Transaction, error) {
	var data transactionData
	if err := c.Query(ctx, token, "xp_transactions", queryXPTransactions, userVars(userID), &data); err != nil {
		return nil, fmt.Errorf("fetch xp transactions: %w", err)
	}
	return c.mapper.Transactions(data.Transaction, progress.TypeXP), nil
}

// Level fetches the user's current level.
func (c *Client) Level(ctx context.Context, token string, userID int64) (int, error) {
	var data transactionData
	if err := c.Query(ctx, token, "level", queryLevel, userVars(userID), &data); err != nil {
		return 0, fmt.Errorf("fetch level: %w", err)
	}
	return progress.LatestLevel(c.mapper.Transactions(data.Transaction, progress.TypeLevel)), nil
}

// AverageGrade fetches the average of the user's graded progress rows.
// ok is false when nothing has been graded yet.
func (c *Client) AverageGrade(ctx context.Context, token string, userID int64) (avg float64, ok bool, err error) {
	var data averageGradeData
	if err := c.Query(ctx, token, "average_grade", queryAverageGrade, userVars(userID), &data); err != nil {
		return 0, false, fmt.Errorf("fetch average grade: %w", err)
	}
	grade := data.ProgressAggregate.Aggregate.Avg.Grade
	if grade == nil {
		return 0, false, nil
	}
	return *grade, true, nil
}

// DefaultAuditLimit is how many audits are fetched for the status buckets.
const DefaultAuditLimit = 1000

// Audits fetches the most recent audits assigned to the user.
func (c *Client) Audits(ctx context.Context, token string, userID int64) ([]progress.Audit, error) {
	limit := c.config.AuditLimit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	vars := userVars(userID)
	vars["limit"] = limit

	var data auditData
	if err := c.Query(ctx, token, "audits", queryAudits, vars, &data); err != nil {
		return nil, fmt.Errorf("fetch audits: %w", err)
	}
	return c.mapper.Audits(data.Audit), nil
}

// AuditTotals fetches the summed up (given) and down (received) audit XP.
func (c *Client) AuditTotals(ctx context.Context, token string, userID int64) (up, down float64, err error) {
	var data auditTotalsData
	if err := c.Query(ctx, token, "audit_totals", queryAuditTotals, userVars(userID), &data); err != nil {
		return 0, 0, fmt.Errorf("fetch audit totals: %w", err)
	}
	return sumAmount(data.Up), sumAmount(data.Down), nil
}

// ProjectRecords fetches project progress and result rows.
func (c *Client) ProjectRecords(ctx context.Context, token string, userID int64) (progressRows, resultRows []progress.Record, err error) {
	var data projectRecordsData
	if err := c.Query(ctx, token, "project_records", queryProjectRecords, userVars(userID), &data); err != nil {
		return nil, nil, fmt.Errorf("fetch project records: %w", err)
	}
	return c.mapper.Records(data.Progress, progress.SourceProgress), c.mapper.Records(data.Result, progress.SourceResult), nil
}

// PassFailResults fetches non-piscine results for the pass/fail ring.
func (c *Client) PassFailResults(ctx context.Context, token string, userID int64) ([]progress.Record, error) {
	var data resultData
	if err := c.Query(ctx, token, "pass_fail_results", queryPassFailResults, userVars(userID), &data); err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}
	return c.mapper.Records(data.Result, progress.SourceResult), nil
}

// SkillTransactions fetches skill_* transactions, largest first.
func (c *Client) SkillTransactions(ctx context.Context, token string, userID int64) ([]progress.Transaction, error) {
	var data transactionData
	if err := c.Query(ctx, token, "skill_transactions", querySkillTransactions, userVars(userID), &data); err != nil {
		return nil, fmt.Errorf("fetch skill transactions: %w", err)
	}
	return c.mapper.Transactions(data.Transaction, ""), nil
}
