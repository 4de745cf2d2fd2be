package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineBufferBasicOperations(t *testing.T) {
	buf := newLineBuffer(2)

	buf.Append('a')
	buf.Append('b')
	require.Equal(t, "ab", buf.Snapshot())

	require.True(t, buf.TrimLast())
	require.Equal(t, "a", buf.Snapshot())

	require.Equal(t, "a", buf.Drain())
	require.Equal(t, "", buf.Snapshot())
	require.False(t, buf.TrimLast())

	buf.Append('ü')
	require.Equal(t, "ü", buf.Drain())
}
