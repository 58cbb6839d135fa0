package dto

// LoginRequest is the schema for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the schema for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// SubjectResponse identifies the authenticated subject.
type SubjectResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// LoginResponse carries the issued token pair.
type LoginResponse struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	Subject      SubjectResponse `json:"subject"`
}

// RefreshResponse carries the re-issued access token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// IdentityResponse answers the "who am I" query.
type IdentityResponse struct {
	SubjectID    string `json:"subjectId"`
	SubjectLabel string `json:"subjectLabel"`
}
