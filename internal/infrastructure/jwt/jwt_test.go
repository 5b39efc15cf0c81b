package jwt

import (
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify_Success(t *testing.T) {
	s := New("super-secret", time.Hour)
	userID := uuid.NewString()

	tok, err := s.Issue(userID, "alice", "alice@example.com")
	require.NoError(t, err, "Issue should not error")
	require.NotEmpty(t, tok, "token must not be empty")

	claims, err := s.Verify(tok)
	require.NoError(t, err, "Verify should not error for fresh token")
	require.NotNil(t, claims)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID, claims.UserUUID().String())
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.Time.After(time.Now().Add(-1*time.Second)))
}

func TestIssue_NoTTLIsDeterministicAndNeverExpires(t *testing.T) {
	s := New("k1", 0)
	userID := uuid.NewString()

	a, err := s.Issue(userID, "alice", "alice@example.com")
	require.NoError(t, err)
	b, err := s.Issue(userID, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	s.now = func() time.Time { return time.Now().AddDate(10, 0, 0) }
	claims, err := s.Verify(a)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestVerify_Table(t *testing.T) {
	userID := uuid.NewString()

	makeToken := func(secret string, ttl time.Duration, now time.Time) string {
		s := New(secret, ttl)
		s.now = func() time.Time { return now }
		tok, err := s.Issue(userID, "bob", "bob@example.com")
		require.NoError(t, err)
		return tok
	}
	signRaw := func(method jwtv5.SigningMethod, key any, claims jwtv5.Claims) string {
		tok, err := jwtv5.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		secret string
		token  string
		ok     bool
	}{
		{
			name:   "valid token",
			secret: "k1",
			token:  makeToken("k1", 5*time.Minute, time.Now()),
			ok:     true,
		},
		{
			name:   "invalid secret (signature mismatch)",
			secret: "k2",
			token:  makeToken("k1", 5*time.Minute, time.Now()),
		},
		{
			name:   "expired token",
			secret: "k1",
			token:  makeToken("k1", time.Minute, time.Now().Add(-time.Hour)),
		},
		{
			name:   "malformed token string",
			secret: "k1",
			token:  "not-a-jwt",
		},
		{
			name:   "empty token",
			secret: "k1",
			token:  "",
		},
		{
			name:   "alg none rejected",
			secret: "k1",
			token:  signRaw(jwtv5.SigningMethodNone, jwtv5.UnsafeAllowNoneSignatureType, Claims{UserID: userID}),
		},
		{
			name:   "user id is not a uuid",
			secret: "k1",
			token:  signRaw(jwtv5.SigningMethodHS256, []byte("k1"), Claims{UserID: "42"}),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.secret, time.Hour)

			claims, err := s.Verify(tt.token)
			if tt.ok {
				require.NoError(t, err)
				require.NotNil(t, claims)
				assert.Equal(t, userID, claims.UserID)
				return
			}
			require.ErrorIs(t, err, ErrInvalidSession)
			assert.Nil(t, claims)
		})
	}
}
