package domain

// TokenKind differentiates short-lived access tokens from long-lived refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Identity is the authenticated caller derived from a verified credential.
// The label is carried for display and logging only; authorization decisions
// key off SubjectID and Kind.
type Identity struct {
	SubjectID    string
	SubjectLabel string
	Kind         TokenKind
}
