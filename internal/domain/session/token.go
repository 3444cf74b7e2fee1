// Package session owns the bearer token lifecycle: parsing and validating the
// platform JWT, deriving the user id, and keeping sessions in a Store.
package session

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/alem-hub/reboot-profile/internal/domain/shared"
)

// hasuraClaimsKey is the namespace Hasura uses for its session variables.
const hasuraClaimsKey = "https://hasura.io/jwt/claims"

// userIDClaims are checked in order before falling back to Hasura claims.
var userIDClaims = []string{"sub", "userId", "id", "user_id"}

// Token is a cleaned platform JWT together with the claims the dashboard needs.
// The signature is not verified here; the platform verifies it on every query.
type Token struct {
	Raw       string
	UserID    int64
	ExpiresAt time.Time
	HasExpiry bool
	Claims    jwt.MapClaims
}

// CleanToken removes quote characters and surrounding whitespace.
// The signin endpoint returns the token as a JSON string, so quotes are common.
func CleanToken(raw string) string {
	cleaned := strings.NewReplacer(`"`, "", `'`, "").Replace(raw)
	return strings.TrimSpace(cleaned)
}

// ParseToken cleans raw, checks its structure and decodes the payload.
// An expired token is returned together with ErrTokenExpired.
func ParseToken(raw string, now time.Time) (Token, error) {
	cleaned := CleanToken(raw)
	if cleaned == "" {
		return Token{}, ErrTokenEmpty
	}
	parts := strings.Split(cleaned, ".")
	if len(parts) != 3 {
		return Token{}, ErrTokenMalformed
	}

	claims, err := decodeClaims(parts[1])
	if err != nil {
		return Token{}, shared.WrapError("session", "ParseToken", shared.ErrInvalidFormat, "token payload cannot be decoded", err)
	}

	tok := Token{
		Raw:    cleaned,
		UserID: UserIDFromClaims(claims),
		Claims: claims,
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Token{}, shared.WrapError("session", "ParseToken", shared.ErrInvalidFormat, "exp claim is not numeric", err)
	}
	if exp != nil {
		tok.ExpiresAt = exp.Time
		tok.HasExpiry = true
	}

	if !tok.Valid(now) {
		return tok, ErrTokenExpired
	}
	return tok, nil
}

// segmentParser accepts base64url segments with or without padding.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// decodeClaims decodes the payload segment only. The header is not inspected.
func decodeClaims(segment string) (jwt.MapClaims, error) {
	raw, err := segmentParser.DecodeSegment(segment)
	if err != nil {
		return nil, err
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Valid reports whether the token is still usable at now.
// Tokens without an exp claim never expire on their own.
func (t Token) Valid(now time.Time) bool {
	if !t.HasExpiry {
		return true
	}
	return !t.ExpiresAt.Before(now.Truncate(time.Second))
}

// UserIDFromClaims extracts the numeric platform user id. Zero means absent.
func UserIDFromClaims(claims map[string]any) int64 {
	for _, key := range userIDClaims {
		if id := claimInt(claims[key]); id != 0 {
			return id
		}
	}

	hasura, ok := claims[hasuraClaimsKey].(map[string]any)
	if !ok {
		return 0
	}
	return claimInt(hasura["x-hasura-user-id"])
}

func claimInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0
		}
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		id, err := n.Int64()
		if err != nil {
			return 0
		}
		return id
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0
		}
		return id
	default:
		return 0
	}
}
