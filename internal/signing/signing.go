// Package signing issues and checks expiring HMAC signatures for asset
// download links.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Query parameter names carried by a signed link.
const (
	ParamExpires   = "expires"
	ParamSignature = "signature"
)

// Signer generates and validates HMAC based signatures.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer whose links stay valid for ttl.
func NewSigner(secret []byte, ttl time.Duration) *Signer {
	return &Signer{secret: secret, ttl: ttl, now: time.Now}
}

// Sign returns the hex signature for an asset id and expiry.
func (s *Signer) Sign(assetID string, expiresUnix int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", assetID, expiresUnix)
	return hex.EncodeToString(mac.Sum(nil))
}

// Query returns the expires/signature query for a fresh link to assetID.
func (s *Signer) Query(assetID string) (url.Values, time.Time) {
	expires := s.now().Add(s.ttl).Unix()
	q := url.Values{}
	q.Set(ParamExpires, strconv.FormatInt(expires, 10))
	q.Set(ParamSignature, s.Sign(assetID, expires))
	return q, time.Unix(expires, 0).UTC()
}

// Validate reports whether signature matches and the link has not expired.
func (s *Signer) Validate(assetID, expires, signature string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	if s.now().Unix() > exp {
		return false
	}
	expected := s.Sign(assetID, exp)
	return hmac.Equal([]byte(expected), []byte(signature))
}
