package platform

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/reboot-profile/internal/domain/progress"
	"github.com/alem-hub/reboot-profile/internal/domain/shared"
	"github.com/alem-hub/reboot-profile/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig(srv.URL)
	cfg.RetryDelay = time.Millisecond
	cfg.RateLimiter.RequestsPerSecond = 0
	cfg.Logger = logger.Nop()
	return NewClient(cfg)
}

func graphqlHandler(t *testing.T, data string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"data":`+data+`}`)
	}
}

func TestSignIn_SendsBasicAuthAndParsesQuotedToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, SigninPath, r.URL.Path)
		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice@reboot01.com:s3cret"))
		assert.Equal(t, want, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `"aaa.bbb.ccc"`)
	})

	token, err := client.SignIn(context.Background(), "alice@reboot01.com", "s3cret")

	require.NoError(t, err)
	assert.Equal(t, "aaa.bbb.ccc", token)
}

func TestSignIn_InvalidCredentialsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"User does not exist or password incorrect"}`)
	})

	_, err := client.SignIn(context.Background(), "alice", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSignIn_ServerErrorIsHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad request")
	})

	_, err := client.SignIn(context.Background(), "alice", "pw")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Error(), "bad request")
}

func TestParseSigninBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"json string", `"a.b.c"`, "a.b.c", nil},
		{"raw token", "a.b.c\n", "a.b.c", nil},
		{"token object", `{"token":"a.b.c"}`, "a.b.c", nil},
		{"access token object", `{"access_token":"a.b.c"}`, "a.b.c", nil},
		{"empty", "  ", "", ErrEmptyToken},
		{"empty string", `""`, "", ErrEmptyToken},
		{"object without token", `{"verified":true}`, "", ErrEmptyToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSigninBody([]byte(tt.body))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_SendsBearerAndVariables(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, GraphQLPath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var req GraphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "XPTransactions")
		assert.EqualValues(t, 42, req.Variables["userId"])

		_, _ = io.WriteString(w, `{"data":{"transaction":[
			{"id":1,"amount":1200,"objectId":10,"path":"/bahrain/bh-module/ascii-art","createdAt":"2024-03-01T10:00:00.000+00:00","object":{"id":10,"name":"ascii-art","type":"project"}},
			{"id":2,"amount":500,"objectId":11,"path":"/bahrain/bh-piscine/quest-01","createdAt":"2024-03-02T10:00:00+00:00","object":null}
		]}}`)
	})

	txs, err := client.XPTransactions(context.Background(), "tok", 42)

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, progress.TypeXP, txs[0].Type)
	assert.Equal(t, 1200.0, txs[0].Amount)
	assert.Equal(t, "project", txs[0].Object.Type)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), txs[0].CreatedAt.UTC())
	assert.Equal(t, progress.Object{}, txs[1].Object)
}

func TestQuery_JWTErrorIsUnauthenticated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"errors":[{"message":"Could not verify JWT: JWTExpired","extensions":{"code":"invalid-jwt","path":"$"}}]}`)
	})

	_, err := client.XPTransactions(context.Background(), "expired", 1)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.True(t, shared.IsUnauthorized(err))
	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.Equal(t, "Could not verify JWT: JWTExpired", gqlErr.Message)
}

func TestQuery_ApplicationErrorIsNotAuth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"errors":[{"message":"field \"foo\" not found in type: 'query_root'","extensions":{"code":"validation-failed"}}]}`)
	})

	_, err := client.SkillTransactions(context.Background(), "tok", 1)

	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestQuery_HTTP401IsUnauthenticated(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, _, err := client.AuditTotals(context.Background(), "tok", 1)

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuery_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"up":{"aggregate":{"sum":{"amount":150000}}},"down":{"aggregate":{"sum":{"amount":null}}}}}`)
	})

	up, down, err := client.AuditTotals(context.Background(), "tok", 1)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 150000.0, up)
	assert.Zero(t, down)
}

func TestQuery_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.PassFailResults(context.Background(), "tok", 1)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestQuery_SlowPlatformIsTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	cfg := DefaultClientConfig(srv.URL)
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxAttempts = 1
	cfg.RateLimiter.RequestsPerSecond = 0
	cfg.Logger = logger.Nop()
	client := NewClient(cfg)

	_, _, err := client.AuditTotals(context.Background(), "tok", 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrTimeout)
	assert.True(t, shared.IsRetryable(err))
	assert.False(t, IsAuthError(err))
}

func TestFetchers_MapRows(t *testing.T) {
	t.Run("user", func(t *testing.T) {
		client := newTestClient(t, graphqlHandler(t, `{"user":[{"id":7,"login":"alice","attrs":{"email":"alice@reboot01.com"}}]}`))
		u, err := client.User(context.Background(), "tok", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(7), u.ID)
		assert.Equal(t, "alice@reboot01.com", progress.EmailFromAttrs(u.Attrs))
	})

	t.Run("missing user", func(t *testing.T) {
		client := newTestClient(t, graphqlHandler(t, `{"user":[]}`))
		_, err := client.User(context.Background(), "tok", 7)
		assert.Error(t, err)
	})

	t.Run("level", func(t *testing.T) {
		client := newTestClient(t, graphqlHandler(t, `{"transaction":[{"id":1,"amount":14,"path":"/bahrain/bh-module","createdAt":"2024-03-01T10:00:00Z"}]}`))
		level, err := client.Level(context.Background(), "tok", 7)
		require.NoError(t, err)
		assert.Equal(t, 14, level)
	})

	t.Run("average grade", func(t *testing.T) {
		client := newTestClient(t, graphqlHandler(t, `{"progress_aggregate":{"aggregate":{"avg":{"grade":1.25}}}}`))
		avg, ok, err := client.AverageGrade(context.Background(), "tok", 7)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1.25, avg)
	})

	t.Run("audits", func(t *testing.T) {
		client := newTestClient(t, graphqlHandler(t, `{"audit":[{"id":3,"grade":null,"createdAt":"2024-03-01T10:00:00Z","endAt":"2024-03-05T10:00:00Z","resultId":99,"group":{"object":{"name":"lem-in","type":"project"},"captain":{"login":"bob"}}}]}`))
		audits, err := client.Audits(context.Background(), "tok", 7)
		require.NoError(t, err)
		require.Len(t, audits, 1)
		assert.Nil(t, audits[0].Grade)
		require.NotNil(t, audits[0].ResultID)
		assert.Equal(t, int64(99), *audits[0].ResultID)
		assert.Equal(t, "lem-in", audits[0].Project)
		assert.Equal(t, "bob", audits[0].Captain)
	})

	t.Run("project records", func(t *testing.T) {
		client := newTestClient(t, graphqlHandler(t, `{
			"progress":[{"id":1,"grade":null,"objectId":5,"createdAt":"2024-03-01T10:00:00Z","object":{"id":5,"name":"lem-in","type":"project"}}],
			"result":[{"id":2,"grade":1,"objectId":0,"createdAt":"2024-03-02T10:00:00Z","object":{"id":5,"name":"lem-in","type":"project"}}]
		}`))
		progressRows, resultRows, err := client.ProjectRecords(context.Background(), "tok", 7)
		require.NoError(t, err)
		require.Len(t, progressRows, 1)
		require.Len(t, resultRows, 1)
		assert.Equal(t, progress.SourceProgress, progressRows[0].Source)
		assert.Equal(t, int64(5), resultRows[0].ObjectID)
	})
}

func TestAudits_LimitCoversAllAudits(t *testing.T) {
	var limit atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req GraphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if v, ok := req.Variables["limit"].(float64); ok {
			limit.Store(int64(v))
		}
		_, _ = io.WriteString(w, `{"data":{"audit":[]}}`)
	})

	_, err := client.Audits(context.Background(), "tok", 7)

	require.NoError(t, err)
	assert.Equal(t, int64(DefaultAuditLimit), limit.Load())
	assert.Equal(t, 1000, DefaultAuditLimit)
}

func TestHTTPError_Is(t *testing.T) {
	assert.True(t, errors.Is(&HTTPError{StatusCode: 401}, ErrUnauthenticated))
	assert.False(t, errors.Is(&HTTPError{StatusCode: 403}, ErrUnauthenticated))
	assert.True(t, shared.IsUnauthorized(&HTTPError{StatusCode: 401}))
	assert.True(t, errors.Is(&HTTPError{StatusCode: 502}, shared.ErrServiceUnavailable))
	assert.True(t, errors.Is(&RateLimitError{}, shared.ErrRateLimited))
	assert.False(t, shared.IsRetryable(&HTTPError{StatusCode: 404}))
}
