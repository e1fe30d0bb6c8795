package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndVerify(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.Issue("a@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Time.Sub(claims.IssuedAt.Time))
}

func TestManager_Issue_SingleJTIClaim(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.Issue("a@x.com")
	require.NoError(t, err)

	raw := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, raw)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)
	assert.Equal(t, claims.ID, raw["jti"])
}

func TestManager_Verify_Empty(t *testing.T) {
	m := NewManager("secret", time.Hour)

	_, err := m.Verify("  ")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestManager_Verify_Malformed(t *testing.T) {
	m := NewManager("secret", time.Hour)

	_, err := m.Verify("invalid.token.string")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestManager_Verify_Expired(t *testing.T) {
	m := NewManager("secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }

	token, err := m.Issue("a@x.com")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestManager_Verify_WrongSecret(t *testing.T) {
	m1 := NewManager("secret1", time.Hour)
	m2 := NewManager("secret2", time.Hour)

	token, err := m1.Issue("a@x.com")
	require.NoError(t, err)

	_, err = m2.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestManager_Verify_RejectsOtherAlgorithms(t *testing.T) {
	m := NewManager("secret", time.Hour)

	claims := &Claims{
		Email: "a@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, claims)
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "unexpected signing method")
}

func TestManager_Verify_RequiresEmail(t *testing.T) {
	m := NewManager("secret", time.Hour)

	raw, err := m.Issue("")
	require.NoError(t, err)

	_, err = m.Verify(raw)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestManager_Issue_WithoutSecret(t *testing.T) {
	m := NewManager("", time.Hour)

	_, err := m.Issue("a@x.com")
	assert.Error(t, err)
}
