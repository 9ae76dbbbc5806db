// Package session keeps the portal session shared by every scrape and
// replaces it when the portal stops accepting it.
package session

import (
	"context"
	"log/slog"
	"sync"

	"ctutimetable-backend/lib/scrapers/htql"

	"golang.org/x/sync/singleflight"
)

type Authenticator interface {
	Authenticate(ctx context.Context, studentId, password string) (htql.Session, error)
}

type Credentials struct {
	StudentId string
	Password  string
}

type Manager struct {
	auth  Authenticator
	creds Credentials

	mu      sync.RWMutex
	current htql.Session

	logins singleflight.Group
}

func NewManager(auth Authenticator, creds Credentials) *Manager {
	return &Manager{auth: auth, creds: creds}
}

// Current returns the session in use, if any login has succeeded yet.
func (m *Manager) Current() (htql.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current != ""
}

// Session returns the current session, logging in first when there is none.
func (m *Manager) Session(ctx context.Context) (htql.Session, error) {
	if session, ok := m.Current(); ok {
		return session, nil
	}
	return m.Login(ctx)
}

// Login authenticates and replaces the current session. Concurrent calls
// share a single login. A caller whose ctx ends stops waiting but the
// login itself runs to completion for the others.
func (m *Manager) Login(ctx context.Context) (htql.Session, error) {
	result := m.logins.DoChan("login", func() (any, error) {
		loginCtx := context.WithoutCancel(ctx)
		session, err := m.auth.Authenticate(loginCtx, m.creds.StudentId, m.creds.Password)
		if err != nil {
			slog.WarnContext(loginCtx, "portal login failed", "student_id", m.creds.StudentId, "err", err)
			return htql.Session(""), err
		}

		m.mu.Lock()
		m.current = session
		m.mu.Unlock()

		slog.InfoContext(loginCtx, "logged in to portal", "student_id", m.creds.StudentId)
		return session, nil
	})

	select {
	case <-ctx.Done():
		return "", context.Cause(ctx)
	case res := <-result:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(htql.Session), nil
	}
}

// Renew replaces stale, the session a caller saw rejected. If another
// caller already replaced it the newer session is returned without
// logging in again.
func (m *Manager) Renew(ctx context.Context, stale htql.Session) (htql.Session, error) {
	if current, ok := m.Current(); ok && current != stale {
		return current, nil
	}
	return m.Login(ctx)
}
