package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "oidcprovider/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	secret, err := Generate()
	require.NoError(t, err)
	assert.Len(t, secret, 43)

	hash, err := Hash(secret)
	require.NoError(t, err)
	require.NoError(t, Verify(secret, hash))

	err = Verify("wrong", hash)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestHashRejectsEmptySecret(t *testing.T) {
	_, err := Hash("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestVerifyMalformedHashIsNotAMismatch(t *testing.T) {
	err := Verify("pw", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.False(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
