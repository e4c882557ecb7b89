package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeFilename(t *testing.T) {
	cases := map[string]string{
		"plain.mp3":                  "plain.mp3",
		`ba<d>:"na/me".mp3`:          "badname.mp3",
		"  spaced   out\tname .mp3":  "spaced out name.mp3",
		`<>:"/\|?*`:                  "download",
		"":                           "download",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeFilename(in), "input %q", in)
	}
}

func TestSafeFilename_Truncates(t *testing.T) {
	long := strings.Repeat("a", 300) + ".mp3"
	got := SafeFilename(long)
	assert.Equal(t, strings.Repeat("a", 100)+".mp3", got)
}

func TestEnsureUniqueFilename(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "track.mp3", EnsureUniqueFilename(dir, "track.mp3"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("x"), 0o644))
	assert.Equal(t, "track (1).mp3", EnsureUniqueFilename(dir, "track.mp3"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "track (1).mp3"), []byte("x"), 0o644))
	assert.Equal(t, "track (2).mp3", EnsureUniqueFilename(dir, "track.mp3"))
}

func TestClassifyExtractorFailure(t *testing.T) {
	assert.ErrorIs(t, classifyExtractorFailure("ERROR: Sign in to confirm you're not a bot"), ErrContentAccess)
	assert.ErrorIs(t, classifyExtractorFailure("ERROR: Private video. Login required"), ErrContentAccess)
	assert.ErrorIs(t, classifyExtractorFailure("ERROR: HTTP Error 429: Too Many Requests"), ErrTransient)
	assert.ErrorIs(t, classifyExtractorFailure("ERROR: connection reset by peer"), ErrTransient)

	err := classifyExtractorFailure("ERROR: something else entirely")
	assert.NotErrorIs(t, err, ErrContentAccess)
	assert.NotErrorIs(t, err, ErrTransient)
}

func TestMediaInfo_ProducedFiles(t *testing.T) {
	info := &MediaInfo{
		Type: "playlist",
		Entries: []*MediaInfo{
			{RequestedDownloads: []RequestedDownload{{Filepath: "/a/one.mp3"}}},
			{Filename: "/a/two.mp3"},
			{},
		},
	}
	assert.Equal(t, []string{"/a/one.mp3", "/a/two.mp3"}, info.ProducedFiles())
	assert.True(t, info.IsPlaylist())

	var nilInfo *MediaInfo
	assert.Empty(t, nilInfo.ProducedFiles())
}
