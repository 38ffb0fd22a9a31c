package dates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	from, err := ParseDay("2026-08-10", false)
	require.NoError(t, err)
	to, err := ParseDay("2026-08-10", true)
	require.NoError(t, err)
	require.Equal(t, int64(24*60*60*1000-1), to-from)

	zero, err := ParseDay("", true)
	require.NoError(t, err)
	require.Zero(t, zero)

	_, err = ParseDay("10/08/2026", false)
	require.Error(t, err)
}
