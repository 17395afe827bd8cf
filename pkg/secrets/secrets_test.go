package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "castingbase/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	require.NoError(t, Verify("correct horse battery staple", hash))

	err = Verify("wrong password", hash)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	// bcrypt caps input at 72 bytes
	_, err := Hash(strings.Repeat("a", 100))
	assert.True(t, dErrors.Is(err, dErrors.CodeInvalidInput))
}

func TestGenerate(t *testing.T) {
	first, err := Generate()
	require.NoError(t, err)
	second, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.GreaterOrEqual(t, len(first), 40)
}
