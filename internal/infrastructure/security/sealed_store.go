package security

import (
	"context"
	"fmt"
	"time"

	"github.com/alem-hub/reboot-profile/internal/domain/session"
)

// SealedStore encrypts Session.Token on the way into the wrapped store and
// decrypts it on the way out.
type SealedStore struct {
	next   session.Store
	cipher *TokenCipher
}

// NewSealedStore wraps next. With a disabled cipher the store is returned unchanged.
func NewSealedStore(next session.Store, c *TokenCipher) session.Store {
	if !c.Enabled() {
		return next
	}
	return &SealedStore{next: next, cipher: c}
}

// Save seals a copy of s so the caller keeps the plain token.
func (s *SealedStore) Save(ctx context.Context, sess *session.Session) error {
	sealed, err := s.cipher.Seal(sess.Token)
	if err != nil {
		return fmt.Errorf("seal session token: %w", err)
	}
	cp := *sess
	cp.Token = sealed
	return s.next.Save(ctx, &cp)
}

// Get loads and unseals a session.
func (s *SealedStore) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	plain, err := s.cipher.Open(sess.Token)
	if err != nil {
		return nil, fmt.Errorf("open session token: %w", err)
	}
	sess.Token = plain
	return sess, nil
}

// Delete removes a session.
func (s *SealedStore) Delete(ctx context.Context, id string) error {
	return s.next.Delete(ctx, id)
}

// PurgeExpired delegates to the wrapped store.
func (s *SealedStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	return s.next.PurgeExpired(ctx, now)
}
