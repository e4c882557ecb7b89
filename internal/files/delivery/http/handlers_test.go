package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/musicjacker/backend/internal/storage"
	"github.com/musicjacker/backend/internal/tokens"
	"github.com/musicjacker/backend/pkg/logger"
)

type serveFixture struct {
	store   storage.Driver
	tokens  tokens.Authority
	handler echo.HandlerFunc
	baseDir string
}

func newServeFixture(t *testing.T) *serveFixture {
	t.Helper()

	baseDir := t.TempDir()
	store, err := storage.NewLocalDriver(baseDir, time.Hour, logger.NewNopLogger())
	require.NoError(t, err)

	authority := tokens.NewMemoryAuthority()
	h := NewFilesHandler(store, authority, logger.NewNopLogger())

	return &serveFixture{
		store:   store,
		tokens:  authority,
		handler: h.ServeFile(),
		baseDir: baseDir,
	}
}

func (f *serveFixture) writeArtifact(t *testing.T, sessionID, filename, content string) string {
	t.Helper()

	dir := filepath.Join(f.baseDir, sessionID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *serveFixture) serve(t *testing.T, sessionID, filename, token string) *httptest.ResponseRecorder {
	t.Helper()

	target := "/serve/" + sessionID + "/" + filename
	if token != "" {
		target += "?token=" + token
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()

	c := echo.New().NewContext(req, rec)
	c.SetParamNames("session_id", "filename")
	c.SetParamValues(sessionID, filename)

	require.NoError(t, f.handler(c))
	return rec
}

func TestServeFileDeliversOnce(t *testing.T) {
	f := newServeFixture(t)
	path := f.writeArtifact(t, "sess1", "track.mp3", "audio bytes")
	token, err := f.tokens.Create(path, time.Minute)
	require.NoError(t, err)

	rec := f.serve(t, "sess1", "track.mp3", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "audio bytes", rec.Body.String())
	require.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "track.mp3")

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Dir(path))
	require.True(t, os.IsNotExist(err))

	rec = f.serve(t, "sess1", "track.mp3", token)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServeFileMissingToken(t *testing.T) {
	f := newServeFixture(t)

	rec := f.serve(t, "sess1", "track.mp3", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "Missing token")
}

func TestServeFileAcceptsHeaderToken(t *testing.T) {
	f := newServeFixture(t)
	path := f.writeArtifact(t, "sess1", "track.mp3", "audio bytes")
	token, err := f.tokens.Create(path, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/serve/sess1/track.mp3", nil)
	req.Header.Set("X-Download-Token", token)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("session_id", "filename")
	c.SetParamValues("sess1", "track.mp3")

	require.NoError(t, f.handler(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServeFileSessionMismatch(t *testing.T) {
	f := newServeFixture(t)
	path := f.writeArtifact(t, "sess1", "track.mp3", "audio bytes")
	token, err := f.tokens.Create(path, time.Minute)
	require.NoError(t, err)

	rec := f.serve(t, "other", "track.mp3", token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "session")

	_, err = os.Stat(path)
	require.NoError(t, err, "failed delivery must not remove the artifact")
}

func TestServeFileFilenameMismatch(t *testing.T) {
	f := newServeFixture(t)
	path := f.writeArtifact(t, "sess1", "track.mp3", "audio bytes")
	f.writeArtifact(t, "sess1", "other.mp3", "other bytes")
	token, err := f.tokens.Create(path, time.Minute)
	require.NoError(t, err)

	rec := f.serve(t, "sess1", "other.mp3", token)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServeFileExpiredToken(t *testing.T) {
	f := newServeFixture(t)
	path := f.writeArtifact(t, "sess1", "track.mp3", "audio bytes")
	token, err := f.tokens.Create(path, -time.Second)
	require.NoError(t, err)

	rec := f.serve(t, "sess1", "track.mp3", token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "expired")
}

func TestServeFileMissingArtifact(t *testing.T) {
	f := newServeFixture(t)
	path := filepath.Join(f.baseDir, "sess1", "track.mp3")
	token, err := f.tokens.Create(path, time.Minute)
	require.NoError(t, err)

	rec := f.serve(t, "sess1", "track.mp3", token)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCleanupRevokesTokenWhenRemovalFails(t *testing.T) {
	f := newServeFixture(t)

	// a non-empty directory cannot be removed with os.Remove
	stuck := filepath.Join(f.baseDir, "sess1", "track.mp3")
	require.NoError(t, os.MkdirAll(filepath.Join(stuck, "child"), 0o755))
	token, err := f.tokens.Create(stuck, time.Minute)
	require.NoError(t, err)

	h := &filesHandler{store: f.store, tokens: f.tokens, logger: logger.NewNopLogger()}
	h.cleanupServed(stuck, token)

	_, ok := f.tokens.Validate(token)
	require.False(t, ok, "token must be gone even when the file removal fails")
	_, err = os.Stat(stuck)
	require.NoError(t, err)
}

func TestServeFileOutsideStorageRoot(t *testing.T) {
	f := newServeFixture(t)

	outside := filepath.Join(t.TempDir(), "sess1", "track.mp3")
	require.NoError(t, os.MkdirAll(filepath.Dir(outside), 0o755))
	require.NoError(t, os.WriteFile(outside, []byte("audio bytes"), 0o644))
	token, err := f.tokens.Create(outside, time.Minute)
	require.NoError(t, err)

	rec := f.serve(t, "sess1", "track.mp3", token)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
