// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alem-hub/reboot-profile/internal/domain/progress"
	"github.com/alem-hub/reboot-profile/internal/domain/session"
	"github.com/alem-hub/reboot-profile/internal/domain/shared"
	"github.com/alem-hub/reboot-profile/pkg/logger"
	"github.com/alem-hub/reboot-profile/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Loads every panel of the profile dashboard for one session. Panels are
// fetched in parallel; only the user panel is required for the page to render.
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardQuery identifies the session whose dashboard is loaded.
type GetDashboardQuery struct {
	SessionID string
}

// Panel names a dashboard section.
type Panel string

// Dashboard panels.
const (
	PanelUser     Panel = "user"
	PanelLevel    Panel = "level"
	PanelGrade    Panel = "grade"
	PanelXP       Panel = "xp"
	PanelAudits   Panel = "audits"
	PanelProjects Panel = "projects"
	PanelPassFail Panel = "pass_fail"
	PanelSkills   Panel = "skills"
)

// UserPanel identifies the signed-in student.
type UserPanel struct {
	ID    int64
	Login string
	Email string
}

// LevelPanel holds the current level.
type LevelPanel struct {
	Level int
	Err   error
}

// GradePanel holds the average grade as a percentage.
type GradePanel struct {
	Percent float64
	Graded  bool
	Err     error
}

// XPPanel wraps the XP summary.
type XPPanel struct {
	progress.XPSummary
	Err error
}

// AuditPanel wraps the audit summary.
type AuditPanel struct {
	progress.AuditSummary
	Err error
}

// ProjectPanel wraps the deduplicated project status.
type ProjectPanel struct {
	progress.ProjectCounts
	Err error
}

// PassFailPanel wraps pass/fail counts of graded results.
type PassFailPanel struct {
	progress.PassFailCounts
	Err error
}

// SkillsPanel holds the top skills.
type SkillsPanel struct {
	Skills []progress.Skill
	Err    error
}

// Dashboard is the assembled result. A panel with a non-nil Err failed on its
// own and is rendered as an error placeholder.
type Dashboard struct {
	SessionID   string
	User        UserPanel
	Level       LevelPanel
	Grade       GradePanel
	XP          XPPanel
	Audits      AuditPanel
	Projects    ProjectPanel
	PassFail    PassFailPanel
	Skills      SkillsPanel
	GeneratedAt time.Time
}

// Errors returns the failed panels.
func (d *Dashboard) Errors() map[Panel]error {
	errs := make(map[Panel]error)
	for panel, err := range map[Panel]error{
		PanelLevel:    d.Level.Err,
		PanelGrade:    d.Grade.Err,
		PanelXP:       d.XP.Err,
		PanelAudits:   d.Audits.Err,
		PanelProjects: d.Projects.Err,
		PanelPassFail: d.PassFail.Err,
		PanelSkills:   d.Skills.Err,
	} {
		if err != nil {
			errs[panel] = err
		}
	}
	return errs
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// PlatformReader fetches raw progress rows with a bearer token.
type PlatformReader interface {
	User(ctx context.Context, token string, userID int64) (progress.User, error)
	XPTransactions(ctx context.Context, token string, userID int64) ([]progress.Transaction, error)
	Level(ctx context.Context, token string, userID int64) (int, error)
	AverageGrade(ctx context.Context, token string, userID int64) (float64, bool, error)
	Audits(ctx context.Context, token string, userID int64) ([]progress.Audit, error)
	AuditTotals(ctx context.Context, token string, userID int64) (up, down float64, err error)
	ProjectRecords(ctx context.Context, token string, userID int64) (progressRows, resultRows []progress.Record, err error)
	PassFailResults(ctx context.Context, token string, userID int64) ([]progress.Record, error)
	SkillTransactions(ctx context.Context, token string, userID int64) ([]progress.Transaction, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// GetDashboardConfig tunes the dashboard assembly.
type GetDashboardConfig struct {
	// Location is the campus timezone used for "today" and "last 7 days".
	Location *time.Location

	// TopSkills is the number of radar axes.
	TopSkills int

	// TopProjects is the number of XP-by-project bars.
	TopProjects int

	// OnPanelError is called for every panel that failed independently.
	OnPanelError func(panel Panel, err error)
}

// DefaultGetDashboardConfig returns the default configuration.
func DefaultGetDashboardConfig() GetDashboardConfig {
	return GetDashboardConfig{
		Location:    timeutil.Campus(),
		TopSkills:   progress.DefaultTopSkills,
		TopProjects: progress.DefaultTopProjects,
	}
}

// GetDashboardHandler handles GetDashboardQuery.
type GetDashboardHandler struct {
	sessions *session.Manager
	platform PlatformReader
	config   GetDashboardConfig
	logger   *slog.Logger
}

// NewGetDashboardHandler creates a new GetDashboardHandler.
func NewGetDashboardHandler(sessions *session.Manager, platform PlatformReader, cfg GetDashboardConfig, log *slog.Logger) *GetDashboardHandler {
	if cfg.Location == nil {
		cfg.Location = timeutil.Campus()
	}
	if cfg.TopSkills <= 0 {
		cfg.TopSkills = progress.DefaultTopSkills
	}
	if cfg.TopProjects <= 0 {
		cfg.TopProjects = progress.DefaultTopProjects
	}
	if log == nil {
		log = slog.Default()
	}
	return &GetDashboardHandler{sessions: sessions, platform: platform, config: cfg, logger: log.With(logger.Component("dashboard"))}
}

// Handle checks the session and loads the dashboard. Session expiry, at any
// point including a token rejected mid-load, ends the session and returns
// session.ErrSessionExpired.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*Dashboard, error) {
	s, err := h.sessions.Check(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}

	dash, err := h.load(ctx, s)
	if err != nil {
		if shared.IsUnauthorized(err) {
			h.logger.Info("platform rejected session token", logger.Login(s.Login))
			return nil, h.sessions.Invalidate(ctx, s.ID)
		}
		return nil, err
	}

	for panel, perr := range dash.Errors() {
		h.logger.Warn("dashboard panel failed",
			slog.String("panel", string(panel)),
			logger.Login(s.Login),
			logger.Err(perr),
		)
		if h.config.OnPanelError != nil {
			h.config.OnPanelError(panel, perr)
		}
	}
	return dash, nil
}

func (h *GetDashboardHandler) load(ctx context.Context, s *session.Session) (*Dashboard, error) {
	now := h.sessions.Now()
	dash := &Dashboard{SessionID: s.ID, GeneratedAt: now}
	token := s.Token

	var user progress.User
	if s.UserID == 0 {
		// The token carried no usable id; ask the platform who we are.
		u, err := h.platform.User(ctx, token, 0)
		if err != nil {
			return nil, fmt.Errorf("resolve user: %w", err)
		}
		user = u
		s.UserID, s.Login = u.ID, u.Login
		if err := h.sessions.Update(ctx, s); err != nil {
			h.logger.Warn("failed to store resolved user id", logger.Err(err))
		}
	}
	userID := s.UserID

	g, gctx := errgroup.WithContext(ctx)

	// A failed user panel fails the load; other panels keep their own error
	// unless the platform rejected the token, which aborts everything.
	panel := func(fn func() error, setErr func(error)) {
		g.Go(func() error {
			err := fn()
			if err == nil {
				return nil
			}
			if shared.IsUnauthorized(err) {
				return err
			}
			setErr(err)
			return nil
		})
	}

	if user.ID == 0 {
		g.Go(func() error {
			u, err := h.platform.User(gctx, token, userID)
			if err != nil {
				return fmt.Errorf("load user: %w", err)
			}
			user = u
			return nil
		})
	}

	panel(func() error {
		level, err := h.platform.Level(gctx, token, userID)
		dash.Level.Level = level
		return err
	}, func(err error) { dash.Level.Err = err })

	panel(func() error {
		avg, ok, err := h.platform.AverageGrade(gctx, token, userID)
		if err != nil {
			return err
		}
		dash.Grade.Graded = ok
		if ok {
			dash.Grade.Percent = progress.GradePercent(avg)
		}
		return nil
	}, func(err error) { dash.Grade.Err = err })

	panel(func() error {
		txs, err := h.platform.XPTransactions(gctx, token, userID)
		if err != nil {
			return err
		}
		summary := progress.SummarizeXP(txs, now, h.config.Location)
		summary.ByProject = progress.XPByProject(txs, h.config.TopProjects)
		dash.XP.XPSummary = summary
		return nil
	}, func(err error) { dash.XP.Err = err })

	panel(func() error {
		var (
			up, down float64
			audits   []progress.Audit
		)
		ag, actx := errgroup.WithContext(gctx)
		ag.Go(func() (err error) {
			up, down, err = h.platform.AuditTotals(actx, token, userID)
			return err
		})
		ag.Go(func() (err error) {
			audits, err = h.platform.Audits(actx, token, userID)
			return err
		})
		if err := ag.Wait(); err != nil {
			return err
		}
		dash.Audits.AuditSummary = progress.SummarizeAudits(up, down, audits, now)
		return nil
	}, func(err error) { dash.Audits.Err = err })

	panel(func() error {
		progressRows, resultRows, err := h.platform.ProjectRecords(gctx, token, userID)
		if err != nil {
			return err
		}
		dash.Projects.ProjectCounts = progress.ProjectStatus(progressRows, resultRows)
		return nil
	}, func(err error) { dash.Projects.Err = err })

	panel(func() error {
		results, err := h.platform.PassFailResults(gctx, token, userID)
		if err != nil {
			return err
		}
		dash.PassFail.PassFailCounts = progress.PassFail(results)
		return nil
	}, func(err error) { dash.PassFail.Err = err })

	panel(func() error {
		txs, err := h.platform.SkillTransactions(gctx, token, userID)
		if err != nil {
			return err
		}
		dash.Skills.Skills = progress.TopSkills(txs, h.config.TopSkills)
		return nil
	}, func(err error) { dash.Skills.Err = err })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dash.User = UserPanel{
		ID:    user.ID,
		Login: user.Login,
		Email: progress.EmailFromAttrs(user.Attrs),
	}
	if dash.User.Login != "" && dash.User.Login != s.Login {
		s.Login = dash.User.Login
		if err := h.sessions.Update(ctx, s); err != nil {
			h.logger.Warn("failed to store user login", logger.Err(err))
		}
	}
	return dash, nil
}
