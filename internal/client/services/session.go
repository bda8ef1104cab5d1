// Package services contains application services for the profilesync client.
// This file defines the session store: the single owner of the authenticated
// session, its local persistence and its change notifications.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/client"
	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/dmitrijs2005/profilesync/internal/cryptox"
	"github.com/dmitrijs2005/profilesync/internal/dbx"
	"github.com/dmitrijs2005/profilesync/internal/logging"
)

// expirySkew treats tokens that expire within this window as already expired.
const expirySkew = 10 * time.Second

const saltSize = 32

var now = time.Now

// SessionStore holds the raw authentication session.
//
// Contract:
//   - Current: point-in-time read; restores the persisted session on first
//     use and refreshes an expired one exactly once. No retries.
//   - OnChange: handlers observe creation, refresh and destruction (nil).
//   - SignOut: clears and notifies first, then makes a best-effort
//     transport call.
//
// Operations are serialized; handlers run after the store lock is released,
// one notification at a time.
type SessionStore struct {
	auth      client.AuthClient
	db        *sql.DB
	deviceKey []byte
	log       logging.Logger

	mu       sync.Mutex
	current  *models.Session
	restored bool

	// signOuts is bumped before SignOut takes mu. A refresh that read an
	// older value does not announce its result.
	signOuts atomic.Uint64
	nmu      sync.Mutex

	hmu      sync.Mutex
	handlers map[int]func(*models.Session)
	nextID   int
}

// NewSessionStore binds the store to an auth transport, the local metadata
// database and the per-device key used to seal the persisted session.
func NewSessionStore(auth client.AuthClient, db *sql.DB, deviceKey []byte, log logging.Logger) *SessionStore {
	return &SessionStore{
		auth:      auth,
		db:        db,
		deviceKey: deviceKey,
		log:       log.With("module", "session"),
		handlers:  make(map[int]func(*models.Session)),
	}
}

func (s *SessionStore) metadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

// OnChange registers handler and returns a function that removes it.
func (s *SessionStore) OnChange(handler func(*models.Session)) (unsubscribe func()) {
	s.hmu.Lock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler
	s.hmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.hmu.Lock()
			delete(s.handlers, id)
			s.hmu.Unlock()
		})
	}
}

func (s *SessionStore) notify(sess *models.Session) {
	s.nmu.Lock()
	defer s.nmu.Unlock()
	s.deliver(sess)
}

// notifySince announces a refresh result unless a sign-out began after
// epoch was read.
func (s *SessionStore) notifySince(epoch uint64, sess *models.Session) {
	s.nmu.Lock()
	defer s.nmu.Unlock()
	if s.signOuts.Load() != epoch {
		s.log.Debug(context.Background(), "dropping refresh superseded by sign-out")
		return
	}
	s.deliver(sess)
}

func (s *SessionStore) deliver(sess *models.Session) {
	s.hmu.Lock()
	hs := make([]func(*models.Session), 0, len(s.handlers))
	for _, h := range s.handlers {
		hs = append(hs, h)
	}
	s.hmu.Unlock()

	for _, h := range hs {
		h(copySession(sess))
	}
}

// Current returns the live session or nil when signed out.
func (s *SessionStore) Current(ctx context.Context) (*models.Session, error) {
	epoch := s.signOuts.Load()
	s.mu.Lock()

	if s.current == nil && !s.restored {
		restored, err := s.load(ctx)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.current = restored
		s.restored = true
	}

	if s.current == nil || !s.current.Expired(now().Add(expirySkew)) {
		cur := copySession(s.current)
		s.mu.Unlock()
		return cur, nil
	}

	refreshed, err := s.refreshLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			// refresh token revoked: the session is gone
			s.notifySince(epoch, nil)
			return nil, nil
		}
		return nil, err
	}

	s.notifySince(epoch, refreshed)
	return copySession(refreshed), nil
}

// AccessToken returns the bearer token of the current session.
func (s *SessionStore) AccessToken(ctx context.Context) (string, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", common.ErrNoSession
	}
	return sess.AccessToken, nil
}

// SendCode starts a passwordless sign-in for email.
func (s *SessionStore) SendCode(ctx context.Context, email string) error {
	if err := s.auth.SendOneTimeCode(ctx, email); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

// Verify exchanges a one-time code for a session, persists it and notifies
// handlers. A wrong code returns common.ErrInvalidCode.
func (s *SessionStore) Verify(ctx context.Context, email, code string) (*models.Session, error) {
	sess, err := s.auth.VerifyOneTimeCode(ctx, email, code)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCode) {
			return nil, err
		}
		return nil, fmt.Errorf("verify code: %w", err)
	}

	s.mu.Lock()
	if err := s.save(ctx, sess); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.current = sess
	s.restored = true
	s.mu.Unlock()

	s.log.Info(ctx, "signed in", "user_id", sess.UserID)
	s.notify(sess)
	return copySession(sess), nil
}

// Refresh rotates the token pair of the current session.
func (s *SessionStore) Refresh(ctx context.Context) (*models.Session, error) {
	epoch := s.signOuts.Load()
	s.mu.Lock()
	if s.current == nil && !s.restored {
		restored, err := s.load(ctx)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.current = restored
		s.restored = true
	}
	if s.current == nil {
		s.mu.Unlock()
		return nil, common.ErrNoSession
	}

	refreshed, err := s.refreshLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			s.notifySince(epoch, nil)
		}
		return nil, err
	}

	s.notifySince(epoch, refreshed)
	return copySession(refreshed), nil
}

// refreshLocked must be called with s.mu held and s.current set. A revoked
// refresh token clears the session.
func (s *SessionStore) refreshLocked(ctx context.Context) (*models.Session, error) {
	refreshed, err := s.auth.Refresh(ctx, s.current.RefreshToken)
	if err != nil {
		s.log.Warn(ctx, "session refresh failed", "user_id", s.current.UserID, "error", err)
		if errors.Is(err, client.ErrUnauthorized) {
			s.current = nil
			if cerr := s.clear(ctx); cerr != nil {
				s.log.Error(ctx, "clear persisted session failed", "error", cerr)
			}
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	if err := s.save(ctx, refreshed); err != nil {
		return nil, err
	}
	s.current = refreshed
	return refreshed, nil
}

// SignOut ends the session. Local state is cleared and handlers are notified
// with nil before the best-effort transport call; its error, if any, is
// returned after cleanup.
func (s *SessionStore) SignOut(ctx context.Context) error {
	s.signOuts.Add(1)

	s.mu.Lock()
	if s.current == nil && !s.restored {
		if restored, err := s.load(ctx); err == nil {
			s.current = restored
		}
	}

	var accessToken string
	if s.current != nil {
		accessToken = s.current.AccessToken
	}
	s.current = nil
	s.restored = true
	clearErr := s.clear(ctx)
	s.mu.Unlock()

	s.notify(nil)

	var transportErr error
	if accessToken != "" {
		if err := s.auth.SignOut(ctx, accessToken); err != nil {
			s.log.Warn(ctx, "transport sign-out failed", "error", err)
			transportErr = fmt.Errorf("sign out: %w", err)
		}
	}
	return errors.Join(transportErr, clearErr)
}

type persistedBlob struct {
	ciphertext []byte
	nonce      []byte
	salt       []byte
}

// load restores the sealed session from metadata. A missing or unreadable
// record yields (nil, nil).
func (s *SessionStore) load(ctx context.Context) (*models.Session, error) {
	entries, err := s.metadataRepo(s.db).GetMany(ctx, metadata.KeySessionBlob, metadata.KeySessionNonce, metadata.KeySessionSalt)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	b := persistedBlob{
		ciphertext: entries[metadata.KeySessionBlob],
		nonce:      entries[metadata.KeySessionNonce],
		salt:       entries[metadata.KeySessionSalt],
	}
	if b.ciphertext == nil || b.nonce == nil || b.salt == nil {
		return nil, nil
	}

	key, err := cryptox.DeriveSessionKey(s.deviceKey, b.salt)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	defer common.WipeByteArray(key)

	sess := &models.Session{}
	if err := cryptox.OpenJSON(b.ciphertext, b.nonce, key, sess); err != nil {
		// sealed under another device key or corrupted; start signed out
		s.log.Warn(ctx, "discarding unreadable persisted session", "error", err)
		if cerr := s.clear(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, nil
	}
	return sess, nil
}

func (s *SessionStore) save(ctx context.Context, sess *models.Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.metadataRepo(tx)

		salt, err := repo.Get(ctx, metadata.KeySessionSalt)
		if errors.Is(err, common.ErrorNotFound) {
			salt = common.GenerateRandByteArray(saltSize)
			if err := repo.Set(ctx, metadata.KeySessionSalt, salt); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		key, err := cryptox.DeriveSessionKey(s.deviceKey, salt)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(key)

		ct, nonce, err := cryptox.SealJSON(sess, key)
		if err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
		if err := repo.Set(ctx, metadata.KeySessionBlob, ct); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.KeySessionNonce, nonce)
	})
}

func (s *SessionStore) clear(ctx context.Context) error {
	return s.metadataRepo(s.db).Delete(ctx, metadata.KeySessionBlob, metadata.KeySessionNonce)
}

func copySession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Metadata != nil {
		c.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
