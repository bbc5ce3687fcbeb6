package remote

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether a bearer token carries an exp claim in the
// past. The signature is NOT verified - verification is the server's job;
// this check only saves a round trip that is guaranteed to come back 401.
//
// Tokens that do not parse or carry no exp claim report false and are
// sent as-is; the server's response classifies them.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
