package auth

import (
	"strings"

	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

// BearerPrefix is the literal, case-sensitive prefix of the Authorization header.
const BearerPrefix = "Bearer "

// ExtractBearerToken returns the token carried by an Authorization header value.
// It does not look inside the token.
func ExtractBearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", apperrors.NewTokenRequired()
	}
	token := header[len(BearerPrefix):]
	if token == "" {
		return "", apperrors.NewTokenRequired()
	}
	return token, nil
}
