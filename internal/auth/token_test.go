package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-gateway/internal/domain"
	"github.com/spec-kit/auth-gateway/pkg/util"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager(testSecret)
	require.NoError(t, err)
	return tm
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("")
	require.Error(t, err)
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	tm := newTestManager(t)

	token, expiresAt, err := tm.Issue("u1", "u1@example.com", domain.TokenKindAccess, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	identity, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", identity.SubjectID)
	assert.Equal(t, "u1@example.com", identity.SubjectLabel)
	assert.Equal(t, domain.TokenKindAccess, identity.Kind)
}

func TestIssuePreservesRefreshKind(t *testing.T) {
	tm := newTestManager(t)

	token, _, err := tm.Issue("u1", "u1@example.com", domain.TokenKindRefresh, time.Hour)
	require.NoError(t, err)

	identity, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenKindRefresh, identity.Kind)
}

func TestVerifyFailsAtExactExpiry(t *testing.T) {
	tm := newTestManager(t)
	base := time.Now().Truncate(time.Second)
	tm.now = func() time.Time { return base }

	token, expiresAt, err := tm.Issue("u1", "u1@example.com", domain.TokenKindAccess, time.Hour)
	require.NoError(t, err)

	tm.now = func() time.Time { return expiresAt.Add(-time.Second) }
	_, err = tm.Verify(token)
	require.NoError(t, err)

	tm.now = func() time.Time { return expiresAt }
	_, err = tm.Verify(token)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))

	tm.now = func() time.Time { return expiresAt.Add(time.Minute) }
	_, err = tm.Verify(token)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	tm := newTestManager(t)
	other, err := NewTokenManager(strings.Repeat("x", 32))
	require.NoError(t, err)

	token, _, err := other.Issue("u1", "u1@example.com", domain.TokenKindAccess, time.Hour)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)
	assert.True(t, util.IsKind(err, util.KindUnauthorized))
}

func TestVerifyRejectsMutatedToken(t *testing.T) {
	tm := newTestManager(t)

	token, _, err := tm.Issue("u1", "u1@example.com", domain.TokenKindAccess, time.Hour)
	require.NoError(t, err)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for i := 0; i < len(token); i++ {
		mutated := []byte(token)
		if idx := strings.IndexByte(alphabet, mutated[i]); idx >= 0 {
			// Flip the high bit of the 6-bit value; the decoder only
			// tolerates differences in unused low bits.
			mutated[i] = alphabet[(idx+32)%64]
		} else {
			// Segment separator; replacing it breaks the structure.
			mutated[i] = 'A'
		}
		_, err := tm.Verify(string(mutated))
		assert.Errorf(t, err, "mutation at position %d must invalidate the token", i)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tm := newTestManager(t)

	for _, input := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := tm.Verify(input)
		require.Error(t, err)
		assert.True(t, util.IsKind(err, util.KindUnauthorized))
	}
}

func TestDecodeDoesNotVerify(t *testing.T) {
	tm := newTestManager(t)
	other, err := NewTokenManager(strings.Repeat("y", 32))
	require.NoError(t, err)

	// Signed with a different secret: Verify must reject, Decode still parses.
	token, _, err := other.Issue("u9", "u9@example.com", domain.TokenKindRefresh, time.Hour)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)

	identity, ok := tm.Decode(token)
	require.True(t, ok)
	assert.Equal(t, "u9", identity.SubjectID)
	assert.Equal(t, domain.TokenKindRefresh, identity.Kind)

	_, ok = tm.Decode("garbage")
	assert.False(t, ok)
}
