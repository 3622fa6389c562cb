package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationURL(t *testing.T) {
	tests := []struct {
		name string
		dest Destination
		want string
	}{
		{"waiting", WaitingFor("abc"), "/waiting?songId=abc"},
		{"results", ResultsFor("abc"), "/results?song_id=abc"},
		{"unavailable", ErrorFor(ErrorUnavailable, ""), "/error?errorId=1"},
		{"timeout", ErrorFor(ErrorTimeout, "abc"), "/error?errorId=3&songId=abc"},
		{"escaped", ResultsFor("a b&c"), "/results?song_id=a+b%26c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dest.URL())
		})
	}
}

func TestParseSongID(t *testing.T) {
	id, err := ParseSongID("?songId=1700000000")
	require.NoError(t, err)
	assert.Equal(t, "1700000000", id)

	id, err = ParseSongID("song_id=abc&x=1")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = ParseSongID("errorId=2")
	assert.ErrorIs(t, err, ErrNoSongID)
}

func TestParseSongIDRoundTripsDestinations(t *testing.T) {
	for _, d := range []Destination{WaitingFor("x-1"), ResultsFor("x-1"), ErrorFor(ErrorGeneration, "x-1")} {
		url := d.URL()
		id, err := ParseSongID(url[len("/"+string(d.View)):])
		require.NoError(t, err, url)
		assert.Equal(t, "x-1", id)
	}
}

func TestErrorIDs(t *testing.T) {
	id, ok := ParseErrorID("3")
	assert.True(t, ok)
	assert.Equal(t, ErrorTimeout, id)
	assert.Equal(t, "Your Melody could not be generated. Please try again.", id.Message())

	_, ok = ParseErrorID("9")
	assert.False(t, ok)
	_, ok = ParseErrorID("abc")
	assert.False(t, ok)

	assert.False(t, ErrorUnavailable.ShowsSongID())
	assert.True(t, ErrorGeneration.ShowsSongID())
	assert.Contains(t, ErrorUnavailable.Message(), "not available")
}
