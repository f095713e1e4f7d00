// Package csrf mints and verifies the action-scoped tokens that every
// state-changing form submission must carry. Tokens are stateless: an
// HMAC over the action name, an expiry and a random nonce, so verifying
// needs no store and a token minted for one action never verifies for
// another.
package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

const (
	nonceSize = 16
	macSize   = sha256.Size
	rawSize   = nonceSize + 8 + macSize

	// DefaultTTL matches the generous validity window of the nonce
	// scheme this models; forms stay submittable across a long session.
	DefaultTTL = 12 * time.Hour
)

type Authority struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewAuthority(key []byte, ttl time.Duration) *Authority {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Authority{key: key, ttl: ttl, now: time.Now}
}

// Mint returns a token valid for exactly this action until the window
// closes.
func (a *Authority) Mint(action string) string {
	nonce := uuid.New()
	expires := a.now().Add(a.ttl).Unix()

	var raw [rawSize]byte
	copy(raw[:nonceSize], nonce[:])
	binary.BigEndian.PutUint64(raw[nonceSize:nonceSize+8], uint64(expires))

	mac := a.sign(action, raw[:nonceSize+8])
	copy(raw[nonceSize+8:], mac)

	return base64.RawURLEncoding.EncodeToString(raw[:])
}

// Verify reports whether token was minted for action and is still inside
// its validity window. It never returns an error: missing, malformed,
// expired and wrong-action tokens all just fail.
func (a *Authority) Verify(action, token string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) != rawSize {
		return false
	}

	expires := int64(binary.BigEndian.Uint64(raw[nonceSize : nonceSize+8]))
	if a.now().Unix() > expires {
		return false
	}

	want := a.sign(action, raw[:nonceSize+8])
	return hmac.Equal(raw[nonceSize+8:], want)
}

func (a *Authority) sign(action string, payload []byte) []byte {
	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(action))
	mac.Write([]byte{0})
	mac.Write(payload)
	return mac.Sum(nil)
}
