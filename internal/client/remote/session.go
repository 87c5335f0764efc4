package remote

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the signed-in user as described by the backend access token.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// ParseSession reads the user id (sub) and expiry from an access token.
// With a non-empty secret the HS256 signature and expiry are verified;
// otherwise the token is trusted as issued by the backend and only decoded.
func ParseSession(token string, secret []byte) (*Session, error) {
	claims := &jwt.RegisteredClaims{}

	if len(secret) > 0 {
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", common.ErrInvalidToken)
	}

	s := &Session{Token: token, UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Auth holds the current session. It is safe for concurrent use.
type Auth struct {
	mu      sync.RWMutex
	secret  []byte
	session *Session
	now     func() time.Time
}

func NewAuth(secret []byte) *Auth {
	return &Auth{secret: secret, now: time.Now}
}

// SignIn parses token and makes it the current session.
func (a *Auth) SignIn(token string) (*Session, error) {
	s, err := ParseSession(token, a.secret)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
	return s, nil
}

func (a *Auth) SignOut() {
	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
}

// Session returns the current session or nil.
func (a *Auth) Session() *Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// UserID returns the signed-in user, common.ErrNoSession when signed out and
// common.ErrTokenExpired when the token is past its expiry.
func (a *Auth) UserID() (string, error) {
	s := a.Session()
	if s == nil {
		return "", common.ErrNoSession
	}
	if !s.ExpiresAt.IsZero() && a.now().After(s.ExpiresAt) {
		return "", common.ErrTokenExpired
	}
	return s.UserID, nil
}
