package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
)

type execCall struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	execs   []execCall
	queries []execCall
	tag     pgconn.CommandTag
	err     error
	rowErr  error
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return f.tag, f.err
}

func (f *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, execCall{sql: sql, args: args})
	return errRow{err: f.rowErr}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestSessionRepository_Save(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewSessionRepository(q)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	err := repo.Save(context.Background(), &session.Session{
		ID: "11111111-1111-1111-1111-111111111111", UserID: 42, Login: "alice", Token: "a.b.c",
		CreatedAt: now, ExpiresAt: now.Add(time.Hour), LastSeenAt: now,
	})
	require.NoError(t, err)
	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0].sql, "ON CONFLICT (id) DO UPDATE")
	assert.Equal(t, int64(42), q.execs[0].args[1])
}

const testSessionID = "11111111-1111-1111-1111-111111111111"

func TestSessionRepository_GetNotFound(t *testing.T) {
	repo := NewSessionRepository(&fakeQuerier{rowErr: pgx.ErrNoRows})

	_, err := repo.Get(context.Background(), testSessionID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionRepository_LooksUpByPrimaryKey(t *testing.T) {
	q := &fakeQuerier{rowErr: pgx.ErrNoRows}
	repo := NewSessionRepository(q)

	_, _ = repo.Get(context.Background(), strings.ToUpper(testSessionID))
	require.NoError(t, repo.Delete(context.Background(), testSessionID))

	require.Len(t, q.queries, 1)
	assert.Contains(t, q.queries[0].sql, "WHERE id = $1")
	assert.NotContains(t, q.queries[0].sql, "id::text =")
	assert.Equal(t, []any{testSessionID}, q.queries[0].args, "id is normalised")

	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0].sql, "WHERE id = $1")
}

func TestSessionRepository_NonUUIDIsNotFound(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewSessionRepository(q)

	_, err := repo.Get(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.NoError(t, repo.Delete(context.Background(), "not-a-uuid"))
	assert.Empty(t, q.queries, "no round trip for a bad cookie")
	assert.Empty(t, q.execs)
}

func TestSessionRepository_GetError(t *testing.T) {
	boom := errors.New("boom")
	repo := NewSessionRepository(&fakeQuerier{rowErr: boom})

	_, err := repo.Get(context.Background(), testSessionID)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSessionRepository_PurgeExpired(t *testing.T) {
	q := &fakeQuerier{tag: pgconn.NewCommandTag("DELETE 3")}
	repo := NewSessionRepository(q)

	n, err := repo.PurgeExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(q.execs[0].sql), "DELETE FROM dashboard_sessions"))
}

func TestGetMigrations(t *testing.T) {
	migrations := GetMigrations()
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "versions are sequential")
		assert.NotEmpty(t, m.UpSQL)
		assert.NotEmpty(t, m.DownSQL)
	}
	assert.Contains(t, migrations[0].UpSQL, "dashboard_sessions")
}
