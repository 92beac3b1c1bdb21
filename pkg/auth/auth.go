// Package auth verifies the opaque bearer credential supplied by
// clients and yields the {userId, role} pair everything downstream
// trusts. The rest of the system never inspects tokens itself.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
)

// Principal is the verified identity attached to a request.
type Principal struct {
	UserID string
	Role   models.Role
}

// Verifier turns a bearer credential into a Principal.
type Verifier interface {
	Verify(token string) (Principal, error)
}

// TokenVerifier implements Verifier with an HMAC-signed opaque token
// of the form userID.role.expiryUnix.signature.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

func (v *TokenVerifier) sign(payload string) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Issue mints a token for the given identity. Used by the seeder and
// by whatever registration service fronts this API.
func (v *TokenVerifier) Issue(userID string, role models.Role, ttl time.Duration) string {
	exp := time.Now().Add(ttl).Unix()
	payload := fmt.Sprintf("%s.%s.%d", userID, role, exp)
	return payload + "." + v.sign(payload)
}

func (v *TokenVerifier) Verify(token string) (Principal, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Principal{}, errs.Unauthorized("malformed credential")
	}
	payload := strings.Join(parts[:3], ".")
	if !hmac.Equal([]byte(v.sign(payload)), []byte(parts[3])) {
		return Principal{}, errs.Unauthorized("invalid credential")
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return Principal{}, errs.Unauthorized("credential expired")
	}
	role, ok := models.ParseRole(parts[1])
	if !ok {
		return Principal{}, errs.Unauthorized("unknown role")
	}
	return Principal{UserID: parts[0], Role: role}, nil
}
