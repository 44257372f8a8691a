package utilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exppro-backend/internal/model"
)

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	user := &model.User{ID: 42, Username: "alice"}

	token, err := signer.Sign(user)
	require.NoError(t, err)

	claims, err := signer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenSignerIssuesDistinctTokens(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	user := &model.User{ID: 1, Username: "bob"}

	a, err := signer.Sign(user)
	require.NoError(t, err)
	b, err := signer.Sign(user)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenSignerRejectsForeignSignature(t *testing.T) {
	token, err := NewTokenSigner("one").Sign(&model.User{ID: 1, Username: "bob"})
	require.NoError(t, err)

	_, err = NewTokenSigner("two").Validate(token)
	assert.Error(t, err)

	_, err = NewTokenSigner("one").Validate("not-a-jwt")
	assert.Error(t, err)
}
