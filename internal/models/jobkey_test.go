package models

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNewJobKey(t *testing.T) {
	key := NewJobKey("myvideo", ".mp4")

	parsed, err := ParseJobKey(key)
	require.NoError(t, err)
	require.Equal(t, "myvideo", parsed.DisplayName)
	require.Equal(t, ".mp4", filepath.Ext(parsed.ObjectName))
	require.Len(t, parsed.ShortID(), 10)

	other := NewJobKey("myvideo", ".mp4")
	require.NotEqual(t, key, other)
}

func TestParseJobKey(t *testing.T) {
	parsed, err := ParseJobKey("holiday clip@@@ab12cd34ef.mp4")
	require.NoError(t, err)
	require.Equal(t, "holiday clip", parsed.DisplayName)
	require.Equal(t, "ab12cd34ef.mp4", parsed.ObjectName)
	require.Equal(t, "ab12cd34ef", parsed.ShortID())
}

func TestParseJobKeyMalformed(t *testing.T) {
	cases := []string{
		"",
		"no-separator.mp4",
		"@@@ab12cd34ef.mp4",
		"myvideo@@@",
		"a@@@b@@@c.mp4",
	}
	for _, key := range cases {
		_, err := ParseJobKey(key)
		require.Error(t, err, "key %q", key)
		require.True(t, errors.Is(err, ErrMalformedJobKey), "key %q", key)
	}
}

func TestShortIDStripsExtension(t *testing.T) {
	k := JobKey{DisplayName: "clip", ObjectName: "ab12cd34ef.mp4"}
	require.Equal(t, "ab12cd34ef", k.ShortID())

	noExt := JobKey{DisplayName: "clip", ObjectName: "ab12cd34ef"}
	require.Equal(t, "ab12cd34ef", noExt.ShortID())
}

func TestShortIDIsURLSafe(t *testing.T) {
	for i := 0; i < 50; i++ {
		key := NewJobKey("x", ".mp4")
		parsed, err := ParseJobKey(key)
		require.NoError(t, err)
		require.False(t, strings.ContainsAny(parsed.ShortID(), "+/= "))
	}
}
