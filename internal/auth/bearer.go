package auth

import "strings"

type bearerState int

const (
	bearerAbsent bearerState = iota
	bearerMalformed
	bearerPresent
)

// parseBearer classifies the Authorization header before any token-service
// call, so malformed client input never reaches verification.
func parseBearer(header string) (string, bearerState) {
	if header == "" {
		return "", bearerAbsent
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", bearerMalformed
	}
	return parts[1], bearerPresent
}
