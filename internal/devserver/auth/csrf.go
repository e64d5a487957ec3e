package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// CSRF issues double-submit tokens. The cookie holds "token|mac"; a form
// is accepted when its token matches the cookie and the mac verifies.
type CSRF struct {
	secret []byte
}

func NewCSRF(secret []byte) *CSRF {
	return &CSRF{secret: secret}
}

// Issue returns a fresh token and the matching cookie value.
func (c *CSRF) Issue() (token, cookieValue string) {
	token = uuid.NewString()
	return token, token + "|" + c.mac(token)
}

// Verify checks a submitted form token against the csrf cookie value.
func (c *CSRF) Verify(formToken, cookieValue string) bool {
	token, mac, ok := strings.Cut(cookieValue, "|")
	if !ok || token == "" || formToken != token {
		return false
	}
	return hmac.Equal([]byte(mac), []byte(c.mac(token)))
}

func (c *CSRF) mac(token string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}
