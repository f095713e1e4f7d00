package identity

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie is the name of the signed-cookie that proves an
	// authenticated identity.
	SessionCookie = "portal_session"

	sessionTTL  = 12 * time.Hour
	rememberTTL = 14 * 24 * time.Hour
)

// Session is the per-request view of an authenticated identity. The core
// never stores one; it is decoded from the cookie on the way in and
// encoded into it on the way out.
type Session struct {
	UserID    ID
	Name      string
	Role      string
	Remember  bool
	ExpiresAt time.Time
}

func newSession(acc *Account, remember bool) *Session {
	ttl := sessionTTL
	if remember {
		ttl = rememberTTL
	}

	return &Session{
		UserID:    acc.ID,
		Name:      acc.Username,
		Role:      acc.Role,
		Remember:  remember,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
}

type sessionClaims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Sessions signs sessions into cookies and reads them back. HS256 with a
// single shared key; anything that fails to parse or verify is treated as
// no session at all.
type Sessions struct {
	key []byte
}

func NewSessions(key []byte) *Sessions {
	return &Sessions{key: key}
}

// Issue writes the session cookie on the response. Only remembered
// sessions get a persistent cookie; otherwise the browser drops it on
// close while the token's own expiry still bounds its life.
func (s *Sessions) Issue(w http.ResponseWriter, sess *Session) error {
	claims := sessionClaims{
		Name: sess.Name,
		Role: sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "courseportal",
			Subject:   string(sess.UserID),
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if sess.Remember {
		cookie.Expires = sess.ExpiresAt
	}

	http.SetCookie(w, cookie)
	return nil
}

// Current returns the session carried by the request, or nil when there
// is none or the cookie does not verify.
func (s *Sessions) Current(r *http.Request) *Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil
	}

	sess := &Session{
		UserID: ID(claims.Subject),
		Name:   claims.Name,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess
}
