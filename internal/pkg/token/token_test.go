package token

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	require.Len(t, a, 64)
	_, err = hex.DecodeString(a)
	require.NoError(t, err)

	b, err := Generate()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
