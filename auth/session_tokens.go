package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-appclient/core"
	"golang.org/x/oauth2"
)

// SessionTokens keeps the sessions issued by Authenticate keyed by user id and
// serves them as bearer tokens to the dispatcher.
type SessionTokens struct {
	mu       sync.RWMutex
	sessions map[string]core.AuthResponse
}

func NewSessionTokens() *SessionTokens {
	return &SessionTokens{sessions: map[string]core.AuthResponse{}}
}

func (s *SessionTokens) Put(session core.AuthResponse) {
	userID := strings.TrimSpace(session.UserID)
	if s == nil || userID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = map[string]core.AuthResponse{}
	}
	s.sessions[userID] = session
}

func (s *SessionTokens) Get(userID string) (core.AuthResponse, bool) {
	if s == nil {
		return core.AuthResponse{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[strings.TrimSpace(userID)]
	return session, ok
}

func (s *SessionTokens) Remove(userID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, strings.TrimSpace(userID))
}

// BearerToken implements core.TokenProvider.
func (s *SessionTokens) BearerToken(_ context.Context, user *core.UserRef, kind core.TokenType) (string, error) {
	if kind == core.TokenTypeNone || kind == "" {
		return "", nil
	}
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return "", core.NewBadInputError("auth: a user is required for an authorized request")
	}
	session, ok := s.Get(user.ID)
	if !ok {
		return "", core.NewBadInputError("auth: no session for user " + user.ID)
	}
	switch kind {
	case core.TokenTypeAccess:
		return session.AccessToken, nil
	case core.TokenTypeRefresh:
		if !session.HasRefreshToken() {
			return "", core.NewBadInputError("auth: no refresh token for user " + user.ID)
		}
		return session.RefreshToken, nil
	default:
		return "", core.NewBadInputError("auth: unsupported token type " + string(kind))
	}
}

// TokenSource exposes the stored session for userID to oauth2 aware clients.
func (s *SessionTokens) TokenSource(userID string) oauth2.TokenSource {
	return sessionTokenSource{tokens: s, userID: userID}
}

type sessionTokenSource struct {
	tokens *SessionTokens
	userID string
}

func (src sessionTokenSource) Token() (*oauth2.Token, error) {
	session, ok := src.tokens.Get(src.userID)
	if !ok {
		return nil, core.NewBadInputError("auth: no session for user " + src.userID)
	}
	return session.OAuth2Token(), nil
}
