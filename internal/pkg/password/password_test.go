package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndMatch(t *testing.T) {
	hash, err := Hash("pw1")
	require.NoError(t, err)
	require.NotEqual(t, "pw1", hash)
	require.True(t, Matches(hash, "pw1"))
	require.False(t, Matches(hash, "wrong"))
	require.False(t, Matches("not-a-hash", "pw1"))
}
